package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/service"
	"github.com/tableside/console/internal/workflow"
)

// StaffBoard is the staff view controller. Satisfied by *service.StaffBoard.
type StaffBoard interface {
	Mount(ctx context.Context) error
	Unmount()
	Refresh(ctx context.Context) error
	Navigate(nav service.Navigation) error
	View() service.BoardView
	Do(ctx context.Context, id int64, a workflow.Action) error
	PrepareCancel(id int64) (service.CancelPreview, error)
	ConfirmCancel(ctx context.Context, id int64) error
	AbortCancel()
}

// OrderHandler serves the staff board.
type OrderHandler struct {
	board StaffBoard
	log   logrus.FieldLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(board StaffBoard, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{board: board, log: log}
}

// RegisterRoutes registers staff endpoints. Expected behind the session
// guard.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/staff", h.Board)
	r.Post("/staff/refresh", h.Refresh)
	r.Get("/staff/orders/{id}/cancel", h.CancelPreview)
	r.Post("/staff/orders/{id}/cancel", h.ConfirmCancel)
	r.Delete("/staff/orders/{id}/cancel", h.AbortCancel)
	r.Post("/staff/orders/{id}/{action}", h.Transition)
}

// mount brings the board up if it is not live yet. It writes the error
// response and returns false on failure.
func (h *OrderHandler) mount(w http.ResponseWriter, r *http.Request) bool {
	if err := h.board.Mount(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}

// Board mounts the board on first visit and applies tab, search, status and
// page query parameters.
func (h *OrderHandler) Board(w http.ResponseWriter, r *http.Request) {
	if !h.mount(w, r) {
		return
	}

	q := r.URL.Query()
	var nav service.Navigation
	if q.Has("tab") {
		v := q.Get("tab")
		nav.Tab = &v
	}
	if q.Has("status") {
		v := q.Get("status")
		nav.Status = &v
	}
	if q.Has("search") {
		v := q.Get("search")
		nav.Search = &v
	}
	if q.Has("page") {
		p, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		nav.Page = &p
	}
	if err := h.board.Navigate(nav); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.board.View())
}

// Refresh re-fetches the orders on demand.
func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.mount(w, r) {
		return
	}
	if err := h.board.Refresh(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.board.View())
}

// Transition applies confirm, start_delivery, complete or mark_paid.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action, err := workflow.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.mount(w, r) {
		return
	}

	if err := h.board.Do(r.Context(), id, action); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.board.View())
}

// CancelPreview shows what is about to be cancelled.
func (h *OrderHandler) CancelPreview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.mount(w, r) {
		return
	}
	preview, err := h.board.PrepareCancel(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ConfirmCancel cancels the order previewed by CancelPreview.
func (h *OrderHandler) ConfirmCancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.mount(w, r) {
		return
	}
	if err := h.board.ConfirmCancel(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.board.View())
}

// AbortCancel dismisses the confirmation step.
func (h *OrderHandler) AbortCancel(w http.ResponseWriter, r *http.Request) {
	h.board.AbortCancel()
	w.WriteHeader(http.StatusNoContent)
}
