package service

import (
	"context"
	"time"

	"coffee-pos/internal/model"

	"github.com/google/uuid"
)

// OrderService settles and manages orders.
type OrderService interface {
	// CreateOrder prices a cart, applies a promotion, deducts stock by recipe
	// and persists everything in one transaction.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	List(ctx context.Context, filter model.OrderFilter) ([]model.OrderSummary, *model.PageMeta, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductService manages the catalogue.
type ProductService interface {
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, *model.PageMeta, error)

	// GetByID retrieves a product together with its recipe.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id int64) error

	GetRecipe(ctx context.Context, productID int64) ([]model.RecipeEntry, error)

	// ReplaceRecipe swaps a product's recipe atomically and returns the stored entries.
	ReplaceRecipe(ctx context.Context, productID int64, input *model.RecipeInput) ([]model.RecipeEntry, error)
}

// InventoryService manages ingredients and every stock movement other than sales.
type InventoryService interface {
	// Receive books goods arriving from a supplier.
	Receive(ctx context.Context, req *model.ReceiveRequest) ([]model.StockMovement, error)

	// AdjustBatch applies signed corrections to several ingredients.
	AdjustBatch(ctx context.Context, req *model.AdjustRequest) ([]model.StockMovement, error)

	// Adjust changes one ingredient's stock under a row lock.
	Adjust(ctx context.Context, id int64, req *model.AdjustmentRequest) (*model.AdjustmentResult, error)

	ListMovements(ctx context.Context, ingredientID int64, params model.ListParams) ([]model.StockMovement, *model.PageMeta, error)

	ListIngredients(ctx context.Context, params model.ListParams) ([]model.Ingredient, *model.PageMeta, error)
	GetIngredient(ctx context.Context, id int64) (*model.Ingredient, error)
	CreateIngredient(ctx context.Context, input *model.IngredientInput) (*model.Ingredient, error)
	UpdateIngredient(ctx context.Context, id int64, input *model.IngredientInput) (*model.Ingredient, error)
	DeleteIngredient(ctx context.Context, id int64) error
}

// PromotionService manages promotion rules.
type PromotionService interface {
	List(ctx context.Context, params model.ListParams) ([]model.Promotion, *model.PageMeta, error)
	GetByID(ctx context.Context, id int64) (*model.Promotion, error)
	Create(ctx context.Context, input *model.PromotionInput) (*model.Promotion, error)
	Update(ctx context.Context, id int64, input *model.PromotionInput) (*model.Promotion, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

// SupplierService manages suppliers.
type SupplierService interface {
	List(ctx context.Context, params model.ListParams) ([]model.Supplier, *model.PageMeta, error)
	GetByID(ctx context.Context, id int64) (*model.Supplier, error)
	Create(ctx context.Context, input *model.SupplierInput) (*model.Supplier, error)
	Update(ctx context.Context, id int64, input *model.SupplierInput) (*model.Supplier, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

// DashboardService builds reporting views. Dates are YYYY-MM-DD in UTC;
// an empty bound means today and both bounds are inclusive.
type DashboardService interface {
	// Summary reports sales and order counts in the range plus the most
	// urgent low-stock ingredients.
	Summary(ctx context.Context, from, to string) (*model.DashboardSummary, error)

	// Trend returns one row per day for the last days days, ending today.
	Trend(ctx context.Context, days int) ([]model.DailySales, error)

	TopProducts(ctx context.Context, from, to string, limit int) ([]model.TopProduct, error)
}

// clock is overridden in tests.
type clock func() time.Time
