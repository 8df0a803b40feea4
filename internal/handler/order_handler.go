package handler

import (
	"net/http"

	"coffee-pos/internal/model"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader carries the client's retry key for order settlement.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders: settles a cart in one transaction.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	result, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, result, nil)
}

// List handles GET /api/orders?status=&page=&limit=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	orders, meta, err := h.service.List(r.Context(), model.OrderFilter{
		ListParams: params,
		Status:     r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, orders, meta)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, order, nil)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
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

// Delete handles DELETE /api/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
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
