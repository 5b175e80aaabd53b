package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/tableside/console/internal/api"
	"github.com/tableside/console/internal/model"
	"github.com/tableside/console/internal/paging"
	"github.com/tableside/console/internal/service"
)

// Catalog is the admin view controller. Satisfied by *service.Catalog.
type Catalog interface {
	Load(ctx context.Context) error
	Items(search string, page int) paging.Page[service.CatalogItem]
	Categories() []model.Category
	SaveItem(ctx context.Context, id int64, in service.ItemInput) error
	DeleteItem(ctx context.Context, id int64, confirmed bool) error
	SaveCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64, confirmed bool) error
}

// CategoryHandler handles category CRUD endpoints.
type CategoryHandler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(catalog Catalog, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, log: log}
}

// RegisterRoutes registers category CRUD endpoints on the given Chi router.
// Expected to be mounted at /admin/categories behind the session guard.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name string `json:"name"`
}

type categoriesResponse struct {
	Categories []model.Category `json:"categories"`
}

func decodeCategory(r *http.Request) (categoryRequest, error) {
	var req categoryRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	req.Name = r.FormValue("name")
	return req, nil
}

// confirmed reads the ?confirm= flag that delete endpoints require.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// --- Handlers ---

// List reloads and returns every category.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Load(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: h.catalog.Categories()})
}

// Create adds a category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCategory(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.catalog.SaveCategory(r.Context(), 0, req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoriesResponse{Categories: h.catalog.Categories()})
}

// Update renames a category.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, err := decodeCategory(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.catalog.SaveCategory(r.Context(), id, req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: h.catalog.Categories()})
}

// Delete removes a category. Requires ?confirm=true.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id, confirmed(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: h.catalog.Categories()})
}

// imageFromForm extracts the optional image upload.
func imageFromForm(r *http.Request) (*api.Image, func(), error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &api.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, func() { file.Close() }, nil
}
