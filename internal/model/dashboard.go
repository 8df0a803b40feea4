package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates sales and stock for a date range.
type DashboardSummary struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	SalesTotal      decimal.Decimal `json:"sales_total"`
	OpenOrders      int             `json:"open_orders"`
	PaidOrders      int             `json:"paid_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	LowStock        []LowStockItem  `json:"low_stock"`
}

// DateRange is a half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// DailySales is one day of the sales trend.
type DailySales struct {
	Date       string          `json:"date"`
	SalesTotal decimal.Decimal `json:"sales_total"`
	OrdersAll  int             `json:"orders_all"`
	OrdersPaid int             `json:"orders_paid"`
}

// TopProduct is a best seller over a period of paid orders.
type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"qty"`
	Amount      decimal.Decimal `json:"amount"`
}
