package model

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusOpen   = "open"
	OrderStatusPaid   = "paid"
	OrderStatusCancel = "cancel"
	OrderStatusRefund = "refund"

	DefaultPayMethod = "cash"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusOpen, OrderStatusPaid, OrderStatusCancel, OrderStatusRefund:
		return true
	}
	return false
}

// Order is a settled order header.
// Total always equals SubTotal minus Discount, and Discount never exceeds SubTotal.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	Status         string          `json:"status"`
	PayMethod      string          `json:"pay_method"`
	SubTotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	Note           *string         `json:"note,omitempty"`
	Customer       *string         `json:"customer,omitempty"`
	IdempotencyKey *string         `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Items          []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one order line. Name and unit price are captured at sale time.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"-"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Options     json.RawMessage `json:"options,omitempty"`
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest is the payload for settling a new order.
type OrderRequest struct {
	Items        CartLines          `json:"items"`
	PayMethod    string             `json:"pay_method,omitempty"`
	DiscountCode *string            `json:"discount_code,omitempty"`
	Note         *string            `json:"note,omitempty"`
	Customer     *string            `json:"customer,omitempty"`
	Status       string             `json:"status,omitempty"`

	// IdempotencyKey is taken from the Idempotency-Key request header.
	IdempotencyKey string `json:"-"`
}

// CartLines decodes the items of an order request. Anything other than a
// JSON array decodes to an empty cart.
type CartLines []OrderItemRequest

func (c *CartLines) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*c = nil
		return nil
	}

	var lines []OrderItemRequest
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*c = lines
	return nil
}

// OrderItemRequest is a single cart line.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id"`
	Qty       int             `json:"qty"`
	Options   json.RawMessage `json:"options,omitempty"`

	malformed bool
}

// UnmarshalJSON accepts product ids and quantities given as JSON numbers or
// numeric strings. Values that are not whole numbers mark the line malformed
// instead of failing the whole request.
func (i *OrderItemRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID json.RawMessage `json:"product_id"`
		Qty       json.RawMessage `json:"qty"`
		Options   json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*i = OrderItemRequest{malformed: true}
		return nil
	}

	productID, okProduct := wholeNumber(raw.ProductID)
	qty, okQty := wholeNumber(raw.Qty)

	*i = OrderItemRequest{
		ProductID: productID,
		Qty:       int(qty),
		Options:   raw.Options,
		malformed: !okProduct || !okQty || qty > math.MaxInt32,
	}
	return nil
}

// Malformed reports whether the line's id or quantity could not be read as a
// whole number.
func (i OrderItemRequest) Malformed() bool {
	return i.malformed
}

func wholeNumber(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil || !d.IsInteger() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, false
	}
	return d.IntPart(), true
}

// OrderResult is returned after a successful settlement.
type OrderResult struct {
	ID    uuid.UUID       `json:"id"`
	Total decimal.Decimal `json:"total"`
}

// OrderSummary is a row of the order listing.
type OrderSummary struct {
	ID        uuid.UUID       `json:"id"`
	Status    string          `json:"status"`
	PayMethod string          `json:"pay_method"`
	SubTotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	Customer  *string         `json:"customer,omitempty"`
	ItemCount int             `json:"item_count"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	ListParams
	Status string
}

// StatusUpdate is the payload of the status endpoints.
type StatusUpdate struct {
	Status string `json:"status" validate:"required"`
}
