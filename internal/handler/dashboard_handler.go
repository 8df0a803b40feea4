package handler

import (
	"net/http"

	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

// DashboardHandler serves the reporting endpoints. Dates are YYYY-MM-DD.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
	}
}

// Summary handles GET /api/dashboard/summary?from=&to=.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	summary, err := h.service.Summary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, summary, nil)
}

// Trend handles GET /api/dashboard/trend?days=.
func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r.URL.Query().Get("days"), "days")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	trend, err := h.service.Trend(r.Context(), days)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, trend, nil)
}

// TopProducts handles GET /api/dashboard/top-products?from=&to=&limit=.
func (h *DashboardHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	top, err := h.service.TopProducts(r.Context(), q.Get("from"), q.Get("to"), limit)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, top, nil)
}
