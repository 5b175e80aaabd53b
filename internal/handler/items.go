package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/paging"
	"github.com/tableside/console/internal/service"
)

const maxUploadSize = 8 << 20

// ItemHandler handles menu item CRUD endpoints.
type ItemHandler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(catalog Catalog, log logrus.FieldLogger) *ItemHandler {
	return &ItemHandler{catalog: catalog, log: log}
}

// RegisterRoutes registers item CRUD endpoints on the given Chi router.
// Expected to be mounted at /admin/items behind the session guard.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Response types ---

type itemsResponse struct {
	paging.Page[service.CatalogItem]
	Search     string           `json:"search"`
	Categories []model.Category `json:"categories"`
}

func (h *ItemHandler) respond(w http.ResponseWriter, r *http.Request, status int) {
	search := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	writeJSON(w, status, itemsResponse{
		Page:       h.catalog.Items(search, page),
		Search:     search,
		Categories: h.catalog.Categories(),
	})
}

// parseItemForm reads name, price, category_id and image from a multipart
// or urlencoded form.
func parseItemForm(w http.ResponseWriter, r *http.Request) (service.ItemInput, func(), string) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	multipart := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
	if multipart {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return service.ItemInput{}, noop, "invalid form"
		}
	}

	in := service.ItemInput{Name: r.FormValue("name")}

	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		return service.ItemInput{}, noop, "invalid price"
	}
	in.Price = price

	if raw := strings.TrimSpace(r.FormValue("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return service.ItemInput{}, noop, "invalid category_id"
		}
		in.CategoryID = &id
	}

	if !multipart {
		return in, noop, ""
	}
	img, closeImg, err := imageFromForm(r)
	if err != nil {
		return service.ItemInput{}, noop, "invalid image"
	}
	in.Image = img
	return in, closeImg, ""
}

// --- Handlers ---

// List reloads the catalog and returns one page of items. Query: search,
// page.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Load(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)
}

// Create adds an item. The image is required.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, done, msg := parseItemForm(w, r)
	defer done()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.catalog.SaveItem(r.Context(), 0, in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated)
}

// Update changes an item. Without an image the current one is kept.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, done, msg := parseItemForm(w, r)
	defer done()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.catalog.SaveItem(r.Context(), id, in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)
}

// Delete removes an item. Requires ?confirm=true.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.catalog.DeleteItem(r.Context(), id, confirmed(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK)
}
