package repository

import (
	"context"
	"time"

	"coffee-pos/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Lookups return (nil, nil) when the row does not exist and mutations
// report whether a row was affected; services turn both into domain errors.

// ProductRepository defines data access for the catalogue.
type ProductRepository interface {
	// List returns a page of non-deleted products and the total match count.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)

	// GetByID retrieves a non-deleted product without its recipe.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetForSale retrieves an active, non-deleted product inside a settlement transaction.
	GetForSale(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// GetRecipe returns the recipe entries of a product inside a transaction.
	GetRecipe(ctx context.Context, tx pgx.Tx, productID int64) ([]model.RecipeEntry, error)

	// ListRecipe returns the recipe entries of a product with ingredient names.
	ListRecipe(ctx context.Context, productID int64) ([]model.RecipeEntry, error)

	// Create inserts a product together with its optional recipe.
	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)

	// Update overwrites a product's fields.
	Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error)

	// ReplaceRecipe atomically swaps a product's recipe. Returns false if the product is missing.
	ReplaceRecipe(ctx context.Context, productID int64, entries []model.RecipeEntry) (bool, error)

	// Delete soft-deletes a product.
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderRepository defines data access for order headers and lines.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// FindByIdempotencyKey returns the order created with key, if any.
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)

	// CreateOrder inserts a new order header within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts order lines within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves a non-deleted order along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// List returns a page of order summaries and the total match count.
	List(ctx context.Context, filter model.OrderFilter) ([]model.OrderSummary, int, error)

	// UpdateStatus sets an order's status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)

	// Delete soft-deletes an order.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// InventoryRepository defines data access for ingredients and the stock ledger.
type InventoryRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// ApplyDelta atomically adds delta to an ingredient's stock and returns the new level.
	ApplyDelta(ctx context.Context, tx pgx.Tx, ingredientID int64, delta decimal.Decimal) (*model.StockLevel, error)

	// LockForUpdate reads an ingredient and holds its row lock until the transaction ends.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Ingredient, error)

	// SetStock overwrites an ingredient's stock quantity.
	SetStock(ctx context.Context, tx pgx.Tx, id int64, qty decimal.Decimal) error

	// UpdateCostAndSupplier updates the purchase price and supplier when given.
	UpdateCostAndSupplier(ctx context.Context, tx pgx.Tx, id int64, cost *decimal.Decimal, supplierID *int64) error

	// InsertMovements appends ledger entries within the provided transaction.
	InsertMovements(ctx context.Context, tx pgx.Tx, movements []model.StockMovement) error

	// ListMovements returns a page of an ingredient's ledger, newest first.
	ListMovements(ctx context.Context, ingredientID int64, params model.ListParams) ([]model.StockMovement, int, error)

	// List returns a page of non-deleted ingredients and the total match count.
	List(ctx context.Context, params model.ListParams) ([]model.Ingredient, int, error)

	// GetByID retrieves a non-deleted ingredient.
	GetByID(ctx context.Context, id int64) (*model.Ingredient, error)

	// Create inserts an ingredient.
	Create(ctx context.Context, input *model.IngredientInput) (*model.Ingredient, error)

	// Update overwrites an ingredient's descriptive fields and stock.
	Update(ctx context.Context, id int64, input *model.IngredientInput) (*model.Ingredient, error)

	// Delete soft-deletes an ingredient.
	Delete(ctx context.Context, id int64) (bool, error)
}

// PromotionRepository defines data access for promotions.
type PromotionRepository interface {
	// FindByCode looks a promotion up by code, case-insensitively, inside a transaction.
	FindByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Promotion, error)

	List(ctx context.Context, params model.ListParams) ([]model.Promotion, int, error)
	GetByID(ctx context.Context, id int64) (*model.Promotion, error)

	// Create inserts a promotion; a clashing code returns model.ErrDuplicateCode.
	Create(ctx context.Context, p *model.Promotion) error

	// Update overwrites a promotion; a clashing code returns model.ErrDuplicateCode.
	Update(ctx context.Context, p *model.Promotion) (bool, error)

	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// Upsert inserts or replaces promotions keyed by code and returns how many rows changed.
	Upsert(ctx context.Context, promotions []model.Promotion) (int, error)
}

// SupplierRepository defines data access for suppliers.
type SupplierRepository interface {
	List(ctx context.Context, params model.ListParams) ([]model.Supplier, int, error)
	GetByID(ctx context.Context, id int64) (*model.Supplier, error)
	Create(ctx context.Context, input *model.SupplierInput) (*model.Supplier, error)
	Update(ctx context.Context, id int64, input *model.SupplierInput) (*model.Supplier, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderStats aggregates orders created within a range.
type OrderStats struct {
	SalesTotal decimal.Decimal
	Open       int
	Paid       int
	Cancelled  int
}

// DashboardRepository defines reporting queries.
type DashboardRepository interface {
	// OrderStats sums paid sales and counts orders by status within [from, to).
	OrderStats(ctx context.Context, from, to time.Time) (*OrderStats, error)

	// LowStock returns ingredients below their reorder point, largest shortfall first.
	LowStock(ctx context.Context, limit int) ([]model.LowStockItem, error)

	// DailySales groups orders by calendar day within [from, to).
	DailySales(ctx context.Context, from, to time.Time) ([]model.DailySales, error)

	// TopProducts ranks products by quantity sold in paid orders within [from, to).
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.TopProduct, error)
}
