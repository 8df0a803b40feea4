package service

import (
	"time"

	"coffee-pos/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Subtotal sums unit price times quantity over all lines.
func Subtotal(items []model.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Discount returns the amount promotion p takes off subtotal at time now.
// It is zero when p is nil, inactive, outside its window or the subtotal is
// below the minimum spend, and never exceeds subtotal.
func Discount(p *model.Promotion, subtotal decimal.Decimal, now time.Time) decimal.Decimal {
	if p == nil || !p.ActiveAt(now) {
		return decimal.Zero
	}
	if p.MinSpend != nil && subtotal.LessThan(*p.MinSpend) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch p.Type {
	case model.PromotionPercent:
		// Round rounds half away from zero, which is half-up for non-negative amounts.
		d = subtotal.Mul(p.Value).Div(hundred).Round(2)
	case model.PromotionFixed:
		d = decimal.Min(p.Value, subtotal)
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}
