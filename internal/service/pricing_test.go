package service

import (
	"testing"
	"time"

	"coffee-pos/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestSubtotal(t *testing.T) {
	items := []model.OrderItem{
		{UnitPrice: dec("55.50"), Quantity: 2},
		{UnitPrice: dec("0.10"), Quantity: 3},
	}

	assert.True(t, dec("111.30").Equal(Subtotal(items)))
	assert.True(t, decimal.Zero.Equal(Subtotal(nil)))
}

func TestDiscount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		promo    *model.Promotion
		subtotal string
		want     string
	}{
		{
			name:     "No promotion",
			subtotal: "100",
			want:     "0",
		},
		{
			name:     "Percent",
			promo:    &model.Promotion{Type: model.PromotionPercent, Value: dec("10"), Status: model.StatusActive},
			subtotal: "100.00",
			want:     "10.00",
		},
		{
			name:     "Percent rounds half up",
			promo:    &model.Promotion{Type: model.PromotionPercent, Value: dec("5"), Status: model.StatusActive},
			subtotal: "10.10",
			want:     "0.51",
		},
		{
			name:     "Fixed larger than subtotal is capped",
			promo:    &model.Promotion{Type: model.PromotionFixed, Value: dec("500"), Status: model.StatusActive},
			subtotal: "80.00",
			want:     "80.00",
		},
		{
			name:     "Percent above 100 is capped",
			promo:    &model.Promotion{Type: model.PromotionPercent, Value: dec("150"), Status: model.StatusActive},
			subtotal: "40",
			want:     "40",
		},
		{
			name: "Below minimum spend",
			promo: &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), MinSpend: decPtr("200"),
				Status: model.StatusActive},
			subtotal: "150.00",
			want:     "0",
		},
		{
			name: "Exactly minimum spend",
			promo: &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), MinSpend: decPtr("200"),
				Status: model.StatusActive},
			subtotal: "200.00",
			want:     "20",
		},
		{
			name:     "Inactive",
			promo:    &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), Status: model.StatusInactive},
			subtotal: "100",
			want:     "0",
		},
		{
			name:     "Not started",
			promo:    &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), StartAt: &future, Status: model.StatusActive},
			subtotal: "100",
			want:     "0",
		},
		{
			name:     "Expired",
			promo:    &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), EndAt: &past, Status: model.StatusActive},
			subtotal: "100",
			want:     "0",
		},
		{
			name: "Within window",
			promo: &model.Promotion{Type: model.PromotionFixed, Value: dec("20"), StartAt: &past, EndAt: &future,
				Status: model.StatusActive},
			subtotal: "100",
			want:     "20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := dec(tt.subtotal)
			got := Discount(tt.promo, subtotal, now)

			assert.True(t, dec(tt.want).Equal(got), "got %s, want %s", got, tt.want)
			assert.False(t, got.IsNegative())
			assert.True(t, got.LessThanOrEqual(subtotal))
		})
	}
}
