package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement types. Quantities are signed: negative leaves stock, positive enters it.
const (
	MovementReceive = "receive"
	MovementAdjust  = "adjust"
	MovementConsume = "consume"
)

// Stock status values derived from stock quantity and reorder point.
const (
	StockOutOfStock = "out_of_stock"
	StockLow        = "low"
	StockGood       = "good"
)

// StockStatusOf classifies a stock level.
func StockStatusOf(stock, reorderPoint decimal.Decimal) string {
	switch {
	case stock.Sign() <= 0:
		return StockOutOfStock
	case stock.LessThanOrEqual(reorderPoint):
		return StockLow
	default:
		return StockGood
	}
}

// Ingredient is a stocked raw material.
type Ingredient struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	SupplierID   *int64          `json:"supplier_id,omitempty"`
	SupplierName *string         `json:"supplier_name,omitempty"`
	StockStatus  string          `json:"stock_status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IngredientInput is the create/update payload for an ingredient.
type IngredientInput struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Unit         string          `json:"unit" validate:"required,max=32"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	ReorderPoint decimal.Decimal `json:"reorder_point" validate:"gte=0"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit" validate:"gte=0"`
	SupplierID   *int64          `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
}

// StockLevel is an ingredient's stock right after a change.
type StockLevel struct {
	IngredientID int64
	Name         string
	StockQty     decimal.Decimal
	ReorderPoint decimal.Decimal
}

// BelowReorderPoint reports whether the level warrants a restock.
func (l StockLevel) BelowReorderPoint() bool {
	return l.StockQty.LessThan(l.ReorderPoint)
}

// StockMovement is one append-only ledger entry.
type StockMovement struct {
	ID             uuid.UUID       `json:"id"`
	IngredientID   int64           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"qty"`
	Reason         *string         `json:"reason,omitempty"`
	Ref            json.RawMessage `json:"ref,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ConsumeRef is the ledger reference of a sale deduction.
type ConsumeRef struct {
	OrderID   uuid.UUID `json:"order_id"`
	ProductID int64     `json:"product_id"`
}

// ReceiveRef is the ledger reference of a goods receipt.
type ReceiveRef struct {
	SupplierID   *int64           `json:"supplier_id"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

// ReceiveRequest records goods arriving from a supplier.
type ReceiveRequest struct {
	SupplierID *int64        `json:"supplier_id,omitempty"`
	Date       string        `json:"date,omitempty"`
	Items      []ReceiveItem `json:"items"`
}

// ReceiveItem is one received ingredient line.
type ReceiveItem struct {
	IngredientID int64            `json:"ingredient_id"`
	Qty          decimal.Decimal  `json:"qty"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit,omitempty"`
}

// AdjustRequest applies signed corrections to several ingredients.
type AdjustRequest struct {
	Reason string       `json:"reason,omitempty"`
	Items  []AdjustItem `json:"items"`
}

// AdjustItem is one signed correction.
type AdjustItem struct {
	IngredientID int64           `json:"ingredient_id"`
	Qty          decimal.Decimal `json:"qty"`
}

// Adjustment types accepted by the single-ingredient adjust endpoint.
const (
	AdjustIncrease = "increase"
	AdjustDecrease = "decrease"
	AdjustSet      = "set"
	AdjustReceive  = "receive"
)

// AdjustmentRequest changes one ingredient's stock.
type AdjustmentRequest struct {
	Type        string           `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Reason      string           `json:"reason,omitempty"`
	CostPerUnit *decimal.Decimal `json:"cost_per_unit,omitempty"`
	SupplierID  *int64           `json:"supplier_id,omitempty"`
}

// AdjustmentResult is the ingredient after an adjustment and the delta applied.
type AdjustmentResult struct {
	Ingredient *Ingredient     `json:"ingredient"`
	Delta      decimal.Decimal `json:"delta"`
}

// LowStockItem is a dashboard row for an ingredient at or below its reorder point.
type LowStockItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	Shortfall    decimal.Decimal `json:"shortfall"`
}
