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

type supplierRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSupplierRepository creates a new PostgreSQL-backed supplier repository.
func NewSupplierRepository(pool *pgxpool.Pool, logger zerolog.Logger) SupplierRepository {
	return &supplierRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "supplier").Logger(),
	}
}

const supplierColumns = `id, name, contact_name, phone, email, address, status, created_at, updated_at`

func scanSupplier(row pgx.Row, s *model.Supplier) error {
	return row.Scan(&s.ID, &s.Name, &s.ContactName, &s.Phone, &s.Email, &s.Address, &s.Status,
		&s.CreatedAt, &s.UpdatedAt)
}

func (r *supplierRepository) List(ctx context.Context, params model.ListParams) ([]model.Supplier, int, error) {
	where := ` WHERE ($1 = '' OR name ILIKE $2 OR contact_name ILIKE $2 OR email ILIKE $2)`
	args := []any{params.Query, likePattern(params.Query)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count suppliers")
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers` + where + `
		ORDER BY name, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query suppliers")
		return nil, 0, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []model.Supplier{}
	for rows.Next() {
		var s model.Supplier
		if err := scanSupplier(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating suppliers: %w", err)
	}

	return suppliers, total, nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id int64) (*model.Supplier, error) {
	var s model.Supplier
	err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("supplier_id", id).Msg("failed to query supplier")
		return nil, fmt.Errorf("failed to query supplier: %w", err)
	}
	return &s, nil
}

func (r *supplierRepository) Create(ctx context.Context, input *model.SupplierInput) (*model.Supplier, error) {
	query := `
		INSERT INTO suppliers (name, contact_name, phone, email, address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + supplierColumns

	var s model.Supplier
	err := scanSupplier(r.pool.QueryRow(ctx, query,
		input.Name, input.ContactName, input.Phone, input.Email, input.Address, input.Status,
	), &s)
	if err != nil {
		r.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create supplier")
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	return &s, nil
}

func (r *supplierRepository) Update(ctx context.Context, id int64, input *model.SupplierInput) (*model.Supplier, error) {
	query := `
		UPDATE suppliers
		SET name = $2, contact_name = $3, phone = $4, email = $5, address = $6, status = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + supplierColumns

	var s model.Supplier
	err := scanSupplier(r.pool.QueryRow(ctx, query,
		id, input.Name, input.ContactName, input.Phone, input.Email, input.Address, input.Status,
	), &s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("supplier_id", id).Msg("failed to update supplier")
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	return &s, nil
}

func (r *supplierRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.logger.Error().Err(err).Int64("supplier_id", id).Msg("failed to update supplier status")
		return false, fmt.Errorf("failed to update supplier status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a supplier; ingredients it supplied keep a NULL supplier.
func (r *supplierRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("supplier_id", id).Msg("failed to delete supplier")
		return false, fmt.Errorf("failed to delete supplier: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
