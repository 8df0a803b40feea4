package handler

import (
	"net/http"

	"coffee-pos/internal/model"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

// PromotionHandler manages discount codes. Codes are matched case-insensitively.
type PromotionHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

func NewPromotionHandler(service service.PromotionService, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		logger:  logger.With().Str("handler", "promotion").Logger(),
	}
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	promotions, meta, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, promotions, meta)
}

func (h *PromotionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	promotion, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, promotion, nil)
}

func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.PromotionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	promotion, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, promotion, nil)
}

func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var input model.PromotionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	promotion, err := h.service.Update(r.Context(), id, &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, promotion, nil)
}

// UpdateStatus handles PUT /api/promotions/{id}/status.
func (h *PromotionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var body model.StatusUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, body.Status); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"id": id, "status": body.Status}, nil)
}

func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, deleted(id), nil)
}
