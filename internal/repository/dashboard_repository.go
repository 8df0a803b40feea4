package repository

import (
	"context"
	"fmt"
	"time"

	"coffee-pos/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type dashboardRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDashboardRepository creates a new PostgreSQL-backed reporting repository.
func NewDashboardRepository(pool *pgxpool.Pool, logger zerolog.Logger) DashboardRepository {
	return &dashboardRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "dashboard").Logger(),
	}
}

// OrderStats sums paid sales and counts orders by status within [from, to).
func (r *dashboardRepository) OrderStats(ctx context.Context, from, to time.Time) (*OrderStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'cancel')
		FROM orders
		WHERE deleted_at IS NULL AND created_at >= $1 AND created_at < $2
	`

	var s OrderStats
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&s.SalesTotal, &s.Open, &s.Paid, &s.Cancelled); err != nil {
		r.logger.Error().Err(err).Time("from", from).Time("to", to).Msg("failed to query order stats")
		return nil, fmt.Errorf("failed to query order stats: %w", err)
	}

	return &s, nil
}

// LowStock returns ingredients below their reorder point, largest shortfall first.
func (r *dashboardRepository) LowStock(ctx context.Context, limit int) ([]model.LowStockItem, error) {
	query := `
		SELECT id, name, unit, stock_qty, reorder_point, reorder_point - stock_qty AS shortfall
		FROM ingredients
		WHERE deleted_at IS NULL AND stock_qty < reorder_point
		ORDER BY shortfall DESC, name
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query low stock")
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	defer rows.Close()

	items := []model.LowStockItem{}
	for rows.Next() {
		var it model.LowStockItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.StockQty, &it.ReorderPoint, &it.Shortfall); err != nil {
			return nil, fmt.Errorf("failed to scan low stock row: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// DailySales groups orders by calendar day (UTC) within [from, to).
// Days without orders are omitted.
func (r *dashboardRepository) DailySales(ctx context.Context, from, to time.Time) ([]model.DailySales, error) {
	query := `
		SELECT
			TO_CHAR(DATE(created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'paid')
		FROM orders
		WHERE deleted_at IS NULL AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query daily sales")
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	days := []model.DailySales{}
	for rows.Next() {
		var d model.DailySales
		if err := rows.Scan(&d.Date, &d.SalesTotal, &d.OrdersAll, &d.OrdersPaid); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales row: %w", err)
		}
		days = append(days, d)
	}

	return days, rows.Err()
}

// TopProducts ranks products by quantity sold in paid orders within [from, to).
func (r *dashboardRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.TopProduct, error) {
	query := `
		SELECT oi.product_id, oi.product_name, SUM(oi.qty)::int AS qty, SUM(oi.qty * oi.unit_price) AS amount
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.deleted_at IS NULL AND o.status = 'paid' AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.product_id, oi.product_name
		ORDER BY qty DESC, amount DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top products")
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	products := []model.TopProduct{}
	for rows.Next() {
		var p model.TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Qty, &p.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan top product row: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}
