package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PromotionPercent = "percent"
	PromotionFixed   = "fixed"
)

var maxPercent = decimal.NewFromInt(100)

// ValidPromotionValue reports whether value fits the promotion type: never
// negative, and at most 100 for a percentage.
func ValidPromotionValue(promoType string, value decimal.Decimal) bool {
	if value.IsNegative() {
		return false
	}
	return promoType != PromotionPercent || !value.GreaterThan(maxPercent)
}

// NormalizePromotionType maps accepted spellings onto percent or fixed.
func NormalizePromotionType(t string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "percent", "percentage":
		return PromotionPercent, true
	case "fixed", "amount":
		return PromotionFixed, true
	}
	return "", false
}

// Promotion is a discount rule addressed by code.
type Promotion struct {
	ID        int64            `json:"id"`
	Code      string           `json:"code"`
	Type      string           `json:"type"`
	Value     decimal.Decimal  `json:"value"`
	MinSpend  *decimal.Decimal `json:"min_spend,omitempty"`
	StartAt   *time.Time       `json:"start_at,omitempty"`
	EndAt     *time.Time       `json:"end_at,omitempty"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ActiveAt reports whether the promotion is enabled and its window contains t.
// A nil bound is open.
func (p *Promotion) ActiveAt(t time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.StartAt != nil && t.Before(*p.StartAt) {
		return false
	}
	if p.EndAt != nil && t.After(*p.EndAt) {
		return false
	}
	return true
}

// PromotionInput is the create/update payload for a promotion.
type PromotionInput struct {
	Code     string           `json:"code" validate:"required,max=64"`
	Type     string           `json:"type" validate:"required"`
	Value    decimal.Decimal  `json:"value" validate:"gte=0"`
	MinSpend *decimal.Decimal `json:"min_spend,omitempty"`
	StartAt  *time.Time       `json:"start_at,omitempty"`
	EndAt    *time.Time       `json:"end_at,omitempty"`
	Status   string           `json:"status" validate:"omitempty,oneof=active inactive"`
}
