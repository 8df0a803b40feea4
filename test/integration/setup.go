// Package integration drives the full HTTP stack against a PostgreSQL
// container. Tests are skipped with -short.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"coffee-pos/internal/config"
	"coffee-pos/internal/database/dbtest"
	"coffee-pos/internal/events"
	"coffee-pos/internal/handler"
	"coffee-pos/internal/middleware"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/router"
	"coffee-pos/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const apiKey = "integration-key"

// TestEnv is a migrated database behind a fully wired router.
type TestEnv struct {
	Pool      *pgxpool.Pool
	Server    http.Handler
	Publisher *recordingPublisher
}

// Setup starts the database and wires repositories, services and handlers
// the way cmd/api does.
func Setup(t *testing.T, inventory config.InventoryConfig) *TestEnv {
	t.Helper()

	pool := dbtest.New(t)
	logger := zerolog.Nop()
	publisher := &recordingPublisher{}

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)
	promotionRepo := repository.NewPromotionRepository(pool, logger)

	server := router.New(router.Handlers{
		Orders:     handler.NewOrderHandler(service.NewOrderService(orderRepo, productRepo, promotionRepo, inventoryRepo, publisher, inventory, logger), logger),
		Products:   handler.NewProductHandler(service.NewProductService(productRepo, logger), logger),
		Inventory:  handler.NewInventoryHandler(service.NewInventoryService(inventoryRepo, publisher, inventory, logger), logger),
		Suppliers:  handler.NewSupplierHandler(service.NewSupplierService(repository.NewSupplierRepository(pool, logger), logger), logger),
		Promotions: handler.NewPromotionHandler(service.NewPromotionService(promotionRepo, logger), logger),
		Dashboard:  handler.NewDashboardHandler(service.NewDashboardService(repository.NewDashboardRepository(pool, logger), logger), logger),
	}, router.Options{APIKey: apiKey, AllowedOrigins: []string{"*"}, Ping: pool.Ping}, logger)

	return &TestEnv{Pool: pool, Server: server, Publisher: publisher}
}

// Reset empties every table between subtests.
func (e *TestEnv) Reset(t *testing.T) {
	t.Helper()
	dbtest.Truncate(t, e.Pool)
	e.Publisher.reset()
}

// Do sends a JSON request with the API key and returns the recorder.
func (e *TestEnv) Do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderAPIKey, apiKey)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.Server.ServeHTTP(w, req)
	return w
}

// Envelope is the decoded {ok, data, meta, error, message} body.
type Envelope struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode %q: %v", w.Body.String(), err)
	}
	return env
}

// Menu holds the ids created by SeedMenu.
type Menu struct {
	Beans, Milk, Cocoa int64
	Espresso, Latte    int64
	Mocha              int64
	Inactive           int64
}

// SeedMenu inserts three ingredients and four products:
//
//	Espresso 45.00  beans 18
//	Latte    60.00  beans 18, milk 200
//	Mocha    65.00  beans 18, milk 180, cocoa 15
//	Retired  30.00  inactive
func SeedMenu(t *testing.T, pool *pgxpool.Pool, beans, milk, cocoa string) Menu {
	t.Helper()
	ctx := context.Background()

	var m Menu
	insertIngredient := func(name, unit, stock, reorder string) int64 {
		var id int64
		if err := pool.QueryRow(ctx, `
			INSERT INTO ingredients (name, unit, stock_qty, reorder_point)
			VALUES ($1, $2, $3, $4) RETURNING id`, name, unit, stock, reorder).Scan(&id); err != nil {
			t.Fatalf("failed to seed ingredient %s: %v", name, err)
		}
		return id
	}
	insertProduct := func(name, price, status string) int64 {
		var id int64
		if err := pool.QueryRow(ctx, `
			INSERT INTO products (name, category, price, status)
			VALUES ($1, 'coffee', $2, $3) RETURNING id`, name, price, status).Scan(&id); err != nil {
			t.Fatalf("failed to seed product %s: %v", name, err)
		}
		return id
	}
	recipe := func(productID, ingredientID int64, qty string) {
		if _, err := pool.Exec(ctx, `
			INSERT INTO product_recipes (product_id, ingredient_id, qty_per_unit)
			VALUES ($1, $2, $3)`, productID, ingredientID, qty); err != nil {
			t.Fatalf("failed to seed recipe: %v", err)
		}
	}

	m.Beans = insertIngredient("Espresso beans", "g", beans, "100")
	m.Milk = insertIngredient("Milk", "ml", milk, "500")
	m.Cocoa = insertIngredient("Cocoa powder", "g", cocoa, "50")

	m.Espresso = insertProduct("Espresso", "45.00", "active")
	m.Latte = insertProduct("Latte", "60.00", "active")
	m.Mocha = insertProduct("Mocha", "65.00", "active")
	m.Inactive = insertProduct("Retired blend", "30.00", "inactive")

	recipe(m.Espresso, m.Beans, "18")
	recipe(m.Latte, m.Beans, "18")
	recipe(m.Latte, m.Milk, "200")
	recipe(m.Mocha, m.Beans, "18")
	recipe(m.Mocha, m.Milk, "180")
	recipe(m.Mocha, m.Cocoa, "15")

	return m
}

// SeedPromotion inserts an active promotion.
func SeedPromotion(t *testing.T, pool *pgxpool.Pool, code, promoType, value string, minSpend *string) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `
		INSERT INTO promotions (code, type, value, min_spend) VALUES ($1, $2, $3, $4)`,
		code, promoType, value, minSpend); err != nil {
		t.Fatalf("failed to seed promotion %s: %v", code, err)
	}
}

// Stock reads an ingredient's current stock.
func Stock(t *testing.T, pool *pgxpool.Pool, ingredientID int64) decimal.Decimal {
	t.Helper()
	var raw string
	if err := pool.QueryRow(context.Background(),
		`SELECT stock_qty::text FROM ingredients WHERE id = $1`, ingredientID).Scan(&raw); err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return decimal.RequireFromString(raw)
}

// Count runs a SELECT COUNT(*) query.
func Count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	return n
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu       sync.Mutex
	settled  []events.OrderSettled
	lowStock []events.LowStock
}

func (p *recordingPublisher) PublishOrderSettled(_ context.Context, e events.OrderSettled) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled = append(p.settled, e)
	return nil
}

func (p *recordingPublisher) PublishLowStock(_ context.Context, e events.LowStock) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settled, p.lowStock = nil, nil
}

func (p *recordingPublisher) snapshot() ([]events.OrderSettled, []events.LowStock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderSettled(nil), p.settled...), append([]events.LowStock(nil), p.lowStock...)
}
