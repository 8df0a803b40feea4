package handler

import (
	"net/http"

	"coffee-pos/internal/model"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

// InventoryHandler serves ingredients and stock movements.
type InventoryHandler struct {
	service service.InventoryService
	logger  zerolog.Logger
}

func NewInventoryHandler(service service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "inventory").Logger(),
	}
}

// Receive handles POST /api/inventory/receive.
func (h *InventoryHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req model.ReceiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	movements, err := h.service.Receive(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, movements, nil)
}

// AdjustBatch handles POST /api/inventory/adjust.
func (h *InventoryHandler) AdjustBatch(w http.ResponseWriter, r *http.Request) {
	var req model.AdjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	movements, err := h.service.AdjustBatch(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, movements, nil)
}

// Adjust handles POST /api/ingredients/{id}/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AdjustmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	result, err := h.service.Adjust(r.Context(), id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, result, nil)
}

// ListMovements handles GET /api/ingredients/{id}/movements.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	movements, meta, err := h.service.ListMovements(r.Context(), id, params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, movements, meta)
}

func (h *InventoryHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	ingredients, meta, err := h.service.ListIngredients(r.Context(), params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, ingredients, meta)
}

func (h *InventoryHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	ingredient, err := h.service.GetIngredient(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, ingredient, nil)
}

func (h *InventoryHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var input model.IngredientInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	ingredient, err := h.service.CreateIngredient(r.Context(), &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, ingredient, nil)
}

func (h *InventoryHandler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var input model.IngredientInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	ingredient, err := h.service.UpdateIngredient(r.Context(), id, &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, ingredient, nil)
}

func (h *InventoryHandler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.DeleteIngredient(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, deleted(id), nil)
}
