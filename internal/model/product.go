package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidActiveStatus reports whether s is active or inactive.
func ValidActiveStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

// Product is a sellable menu item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Recipe      []RecipeEntry   `json:"recipe,omitempty"`
}

// RecipeEntry is the amount of one ingredient consumed per unit sold.
type RecipeEntry struct {
	ProductID      int64           `json:"product_id"`
	IngredientID   int64           `json:"ingredient_id" validate:"required,gt=0"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Quantity       decimal.Decimal `json:"qty_per_unit" validate:"gt=0"`
}

// ProductInput is the create/update payload for a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"max=100"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Status      string          `json:"status" validate:"omitempty,oneof=active inactive"`
	Description string          `json:"description"`
	Recipe      []RecipeEntry   `json:"recipe,omitempty" validate:"omitempty,dive"`
}

// RecipeInput replaces a product's recipe.
type RecipeInput struct {
	Items []RecipeEntry `json:"items" validate:"dive"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	ListParams
	Category string
	Status   string
}
