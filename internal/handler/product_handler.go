package handler

import (
	"net/http"

	"coffee-pos/internal/model"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product and recipe requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products?q=&category=&status=&page=&limit=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	q := r.URL.Query()
	products, meta, err := h.service.List(r.Context(), model.ProductFilter{
		ListParams: params,
		Category:   q.Get("category"),
		Status:     q.Get("status"),
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, products, meta)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, product, nil)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var input model.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, &input)
	if err != nil {
		writeLookupError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeLookupError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, deleted(id), nil)
}

// GetRecipe handles GET /api/products/{id}/recipe.
func (h *ProductHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	recipe, err := h.service.GetRecipe(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, recipe, nil)
}

// ReplaceRecipe handles PUT /api/products/{id}/recipe with {items:[...]}.
func (h *ProductHandler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var input model.RecipeInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	recipe, err := h.service.ReplaceRecipe(r.Context(), id, &input)
	if err != nil {
		writeLookupError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, recipe, nil)
}
