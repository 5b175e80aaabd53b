package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/service"
)

// OrderPlaced is shown after a customer order is accepted.
const OrderPlaced = "Order placed successfully!"

// CustomerMenu is the customer ordering controller. Satisfied by
// *service.CustomerMenu.
type CustomerMenu interface {
	Load(ctx context.Context) error
	View(table string) service.MenuView
	Increase(table string, itemID int64) (int, error)
	Decrease(table string, itemID int64) (int, error)
	PlaceOrder(ctx context.Context, table string) error
}

// CustomerHandler serves the public per-table ordering view.
type CustomerHandler struct {
	menu CustomerMenu
	log  logrus.FieldLogger
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(menu CustomerMenu, log logrus.FieldLogger) *CustomerHandler {
	return &CustomerHandler{menu: menu, log: log}
}

// RegisterRoutes registers customer endpoints. They need no session.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/order/{tableId}", h.Menu)
	r.Post("/order/{tableId}", h.Place)
	r.Post("/order/{tableId}/items/{itemId}/increase", h.Increase)
	r.Post("/order/{tableId}/items/{itemId}/decrease", h.Decrease)
}

type quantityResponse struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type placedResponse struct {
	Message string           `json:"message"`
	Menu    service.MenuView `json:"menu"`
}

// Menu loads the menu and shows the table's current selection.
func (h *CustomerHandler) Menu(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Load(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "Failed to load menu.")
		return
	}
	writeJSON(w, http.StatusOK, h.menu.View(chi.URLParam(r, "tableId")))
}

func (h *CustomerHandler) adjust(w http.ResponseWriter, r *http.Request, fn func(string, int64) (int, error)) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	qty, err := fn(chi.URLParam(r, "tableId"), itemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quantityResponse{ItemID: itemID, Quantity: qty})
}

// Increase adds one of an item.
func (h *CustomerHandler) Increase(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.menu.Increase)
}

// Decrease removes one of an item, never below zero.
func (h *CustomerHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.menu.Decrease)
}

// Place submits the table's selection.
func (h *CustomerHandler) Place(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "tableId")
	if err := h.menu.PlaceOrder(r.Context(), table); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placedResponse{Message: OrderPlaced, Menu: h.menu.View(table)})
}
