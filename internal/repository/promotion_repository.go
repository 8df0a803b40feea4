package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// promotionRepository implements the PromotionRepository interface using PostgreSQL.
type promotionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion repository.
func NewPromotionRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromotionRepository {
	return &promotionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promotion").Logger(),
	}
}

const promotionColumns = `id, code, type, value, min_spend, start_at, end_at, status, created_at, updated_at`

func scanPromotion(row pgx.Row, p *model.Promotion) error {
	return row.Scan(&p.ID, &p.Code, &p.Type, &p.Value, &p.MinSpend, &p.StartAt, &p.EndAt, &p.Status,
		&p.CreatedAt, &p.UpdatedAt)
}

// FindByCode looks a promotion up by code, ignoring case. Whether it
// applies (status, window, minimum spend) is decided by the caller.
func (r *promotionRepository) FindByCode(ctx context.Context, tx pgx.Tx, code string) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE LOWER(code) = LOWER($1)`

	var p model.Promotion
	if err := scanPromotion(tx.QueryRow(ctx, query, code), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query promotion")
		return nil, fmt.Errorf("failed to query promotion: %w", err)
	}

	return &p, nil
}

// List returns a page of promotions, latest start first.
func (r *promotionRepository) List(ctx context.Context, params model.ListParams) ([]model.Promotion, int, error) {
	where := ` WHERE ($1 = '' OR code ILIKE $2)`
	args := []any{params.Query, likePattern(params.Query)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM promotions`+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count promotions")
		return nil, 0, fmt.Errorf("failed to count promotions: %w", err)
	}

	query := `SELECT ` + promotionColumns + ` FROM promotions` + where + `
		ORDER BY start_at DESC NULLS LAST, code
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query promotions")
		return nil, 0, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	promotions := []model.Promotion{}
	for rows.Next() {
		var p model.Promotion
		if err := scanPromotion(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating promotions: %w", err)
	}

	return promotions, total, nil
}

// GetByID retrieves a promotion.
func (r *promotionRepository) GetByID(ctx context.Context, id int64) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	var p model.Promotion
	if err := scanPromotion(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("promotion_id", id).Msg("failed to query promotion")
		return nil, fmt.Errorf("failed to query promotion: %w", err)
	}

	return &p, nil
}

// Create inserts a promotion and fills in its id and timestamps.
func (r *promotionRepository) Create(ctx context.Context, p *model.Promotion) error {
	query := `
		INSERT INTO promotions (code, type, value, min_spend, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + promotionColumns

	err := scanPromotion(r.pool.QueryRow(ctx, query,
		p.Code, p.Type, p.Value, p.MinSpend, p.StartAt, p.EndAt, p.Status,
	), p)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateCode
		}
		r.logger.Error().Err(err).Str("code", p.Code).Msg("failed to create promotion")
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	return nil
}

// Update overwrites a promotion.
func (r *promotionRepository) Update(ctx context.Context, p *model.Promotion) (bool, error) {
	query := `
		UPDATE promotions
		SET code = $2, type = $3, value = $4, min_spend = $5, start_at = $6, end_at = $7, status = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + promotionColumns

	err := scanPromotion(r.pool.QueryRow(ctx, query,
		p.ID, p.Code, p.Type, p.Value, p.MinSpend, p.StartAt, p.EndAt, p.Status,
	), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isUniqueViolation(err) {
			return false, model.ErrDuplicateCode
		}
		r.logger.Error().Err(err).Int64("promotion_id", p.ID).Msg("failed to update promotion")
		return false, fmt.Errorf("failed to update promotion: %w", err)
	}

	return true, nil
}

// UpdateStatus enables or disables a promotion.
func (r *promotionRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE promotions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error().Err(err).Int64("promotion_id", id).Msg("failed to update promotion status")
		return false, fmt.Errorf("failed to update promotion status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a promotion. Orders keep the code they were settled with.
func (r *promotionRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("promotion_id", id).Msg("failed to delete promotion")
		return false, fmt.Errorf("failed to delete promotion: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Upsert inserts or replaces promotions keyed by case-insensitive code, in one
// transaction. The status of an existing promotion is left as the operator set it.
func (r *promotionRepository) Upsert(ctx context.Context, promotions []model.Promotion) (int, error) {
	if len(promotions) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO promotions (code, type, value, min_spend, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (LOWER(code)) DO UPDATE
		SET type = EXCLUDED.type,
		    value = EXCLUDED.value,
		    min_spend = EXCLUDED.min_spend,
		    start_at = EXCLUDED.start_at,
		    end_at = EXCLUDED.end_at,
		    updated_at = NOW()
	`

	changed := 0
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range promotions {
			batch.Queue(query, p.Code, p.Type, p.Value, p.MinSpend, p.StartAt, p.EndAt, p.Status)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for _, p := range promotions {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("failed to upsert promotion %s: %w", p.Code, err)
			}
			changed += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(promotions)).Msg("failed to upsert promotions")
		return 0, err
	}

	return changed, nil
}
