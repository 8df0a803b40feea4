// Package events publishes domain events after a transaction has committed.
// Delivery is best effort: callers log publish failures and carry on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routing keys on the topic exchange.
const (
	RoutingOrderSettled = "order.settled"
	RoutingLowStock     = "inventory.low_stock"
)

// OrderSettled is emitted once an order and its stock deductions are committed.
type OrderSettled struct {
	OrderID      uuid.UUID       `json:"order_id"`
	Status       string          `json:"status"`
	PayMethod    string          `json:"pay_method"`
	SubTotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	DiscountCode *string         `json:"discount_code,omitempty"`
	ItemCount    int             `json:"item_count"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// LowStock is emitted when a change leaves an ingredient below its reorder point.
type LowStock struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"name"`
	StockQty     decimal.Decimal `json:"stock_qty"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	Source       string          `json:"source"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Publisher sends domain events to a message broker.
type Publisher interface {
	PublishOrderSettled(ctx context.Context, e OrderSettled) error
	PublishLowStock(ctx context.Context, e LowStock) error
	Close() error
}

// nopPublisher drops every event. It is used when no broker is configured.
type nopPublisher struct{}

// NewNopPublisher returns a Publisher that discards events.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishOrderSettled(context.Context, OrderSettled) error { return nil }
func (nopPublisher) PublishLowStock(context.Context, LowStock) error         { return nil }
func (nopPublisher) Close() error                                            { return nil }
