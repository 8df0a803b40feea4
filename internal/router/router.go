package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"coffee-pos/internal/handler"
	"coffee-pos/internal/middleware"
	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Orders     *handler.OrderHandler
	Products   *handler.ProductHandler
	Inventory  *handler.InventoryHandler
	Suppliers  *handler.SupplierHandler
	Promotions *handler.PromotionHandler
	Dashboard  *handler.DashboardHandler
}

// Options configures the middleware chain.
type Options struct {
	APIKey         string
	AllowedOrigins []string

	// Ping reports database health for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health(opts.Ping))

	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders", h.Orders.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.GetByID)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.Orders.UpdateStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.Orders.Delete)

	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("POST /api/products", h.Products.Create)
	mux.HandleFunc("GET /api/products/{id}", h.Products.GetByID)
	mux.HandleFunc("PUT /api/products/{id}", h.Products.Update)
	mux.HandleFunc("DELETE /api/products/{id}", h.Products.Delete)
	mux.HandleFunc("GET /api/products/{id}/recipe", h.Products.GetRecipe)
	mux.HandleFunc("PUT /api/products/{id}/recipe", h.Products.ReplaceRecipe)

	mux.HandleFunc("GET /api/ingredients", h.Inventory.ListIngredients)
	mux.HandleFunc("POST /api/ingredients", h.Inventory.CreateIngredient)
	mux.HandleFunc("GET /api/ingredients/{id}", h.Inventory.GetIngredient)
	mux.HandleFunc("PUT /api/ingredients/{id}", h.Inventory.UpdateIngredient)
	mux.HandleFunc("DELETE /api/ingredients/{id}", h.Inventory.DeleteIngredient)
	mux.HandleFunc("GET /api/ingredients/{id}/movements", h.Inventory.ListMovements)
	mux.HandleFunc("POST /api/ingredients/{id}/adjust", h.Inventory.Adjust)
	mux.HandleFunc("POST /api/inventory/receive", h.Inventory.Receive)
	mux.HandleFunc("POST /api/inventory/adjust", h.Inventory.AdjustBatch)

	mux.HandleFunc("GET /api/suppliers", h.Suppliers.List)
	mux.HandleFunc("POST /api/suppliers", h.Suppliers.Create)
	mux.HandleFunc("GET /api/suppliers/{id}", h.Suppliers.GetByID)
	mux.HandleFunc("PUT /api/suppliers/{id}", h.Suppliers.Update)
	mux.HandleFunc("PUT /api/suppliers/{id}/status", h.Suppliers.UpdateStatus)
	mux.HandleFunc("DELETE /api/suppliers/{id}", h.Suppliers.Delete)

	mux.HandleFunc("GET /api/promotions", h.Promotions.List)
	mux.HandleFunc("POST /api/promotions", h.Promotions.Create)
	mux.HandleFunc("GET /api/promotions/{id}", h.Promotions.GetByID)
	mux.HandleFunc("PUT /api/promotions/{id}", h.Promotions.Update)
	mux.HandleFunc("PUT /api/promotions/{id}/status", h.Promotions.UpdateStatus)
	mux.HandleFunc("DELETE /api/promotions/{id}", h.Promotions.Delete)

	mux.HandleFunc("GET /api/dashboard/summary", h.Dashboard.Summary)
	mux.HandleFunc("GET /api/dashboard/trend", h.Dashboard.Trend)
	mux.HandleFunc("GET /api/dashboard/top-products", h.Dashboard.TopProducts)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	var chain http.Handler = mux
	chain = middleware.APIKeyAuth(opts.APIKey, logger)(chain)
	chain = middleware.CORS(opts.AllowedOrigins)(chain)
	chain = middleware.Logging(logger)(chain)
	chain = middleware.RequestID(chain)
	chain = middleware.Recovery(logger)(chain)

	return chain
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "healthy", "database": "up"}

		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(model.Response{OK: status == http.StatusOK, Data: body})
	}
}
