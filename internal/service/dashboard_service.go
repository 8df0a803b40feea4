package service

import (
	"context"
	"fmt"
	"time"

	"coffee-pos/internal/model"
	"coffee-pos/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	lowStockLimit      = 10
	defaultTrendDays   = 7
	maxTrendDays       = 90
	defaultTopProducts = 10
	maxTopProducts     = 50
)

type dashboardService struct {
	dashboardRepo repository.DashboardRepository
	now           clock
	logger        zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(dashboardRepo repository.DashboardRepository, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		dashboardRepo: dashboardRepo,
		now:           time.Now,
		logger:        logger.With().Str("service", "dashboard").Logger(),
	}
}

func (s *dashboardService) Summary(ctx context.Context, from, to string) (*model.DashboardSummary, error) {
	r, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}

	stats, err := s.dashboardRepo.OrderStats(ctx, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}

	low, err := s.dashboardRepo.LowStock(ctx, lowStockLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock: %w", err)
	}

	return &model.DashboardSummary{
		From:            r.From.Format(dateLayout),
		To:              r.To.AddDate(0, 0, -1).Format(dateLayout),
		SalesTotal:      stats.SalesTotal,
		OpenOrders:      stats.Open,
		PaidOrders:      stats.Paid,
		CancelledOrders: stats.Cancelled,
		LowStock:        low,
	}, nil
}

func (s *dashboardService) Trend(ctx context.Context, days int) ([]model.DailySales, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}

	end := startOfDay(s.now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	rows, err := s.dashboardRepo.DailySales(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily sales: %w", err)
	}

	byDate := make(map[string]model.DailySales, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	trend := make([]model.DailySales, 0, days)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		row, ok := byDate[key]
		if !ok {
			row = model.DailySales{Date: key, SalesTotal: decimal.Zero}
		}
		trend = append(trend, row)
	}

	return trend, nil
}

func (s *dashboardService) TopProducts(ctx context.Context, from, to string, limit int) ([]model.TopProduct, error) {
	r, err := s.parseRange(from, to)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopProducts
	}
	if limit > maxTopProducts {
		limit = maxTopProducts
	}

	top, err := s.dashboardRepo.TopProducts(ctx, r.From, r.To, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	return top, nil
}

// parseRange turns inclusive YYYY-MM-DD bounds into a half-open UTC range.
func (s *dashboardService) parseRange(from, to string) (model.DateRange, error) {
	today := startOfDay(s.now())

	start := today
	if from != "" {
		d, err := time.Parse(dateLayout, from)
		if err != nil {
			return model.DateRange{}, model.ErrInvalidDate
		}
		start = d
	}

	end := today
	if to != "" {
		d, err := time.Parse(dateLayout, to)
		if err != nil {
			return model.DateRange{}, model.ErrInvalidDate
		}
		end = d
	}

	if end.Before(start) {
		return model.DateRange{}, model.ErrInvalidDate.Withf("from must not be after to")
	}

	return model.DateRange{From: start, To: end.AddDate(0, 0, 1)}, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
