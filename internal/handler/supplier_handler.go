package handler

import (
	"net/http"

	"coffee-pos/internal/model"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

type SupplierHandler struct {
	service service.SupplierService
	logger  zerolog.Logger
}

func NewSupplierHandler(service service.SupplierService, logger zerolog.Logger) *SupplierHandler {
	return &SupplierHandler{
		service: service,
		logger:  logger.With().Str("handler", "supplier").Logger(),
	}
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	suppliers, meta, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, suppliers, meta)
}

func (h *SupplierHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	supplier, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, supplier, nil)
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.SupplierInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	supplier, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, supplier, nil)
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var input model.SupplierInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err, h.logger)
		return
	}

	supplier, err := h.service.Update(r.Context(), id, &input)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, supplier, nil)
}

// UpdateStatus handles PUT /api/suppliers/{id}/status.
func (h *SupplierHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
