package repository

import (
	"context"
	"errors"
	"fmt"

	"coffee-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// inventoryRepository implements the InventoryRepository interface using PostgreSQL.
type inventoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInventoryRepository creates a new PostgreSQL-backed inventory repository.
func NewInventoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) InventoryRepository {
	return &inventoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "inventory").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *inventoryRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// ApplyDelta adds delta to the stock in a single statement, so concurrent
// callers serialise on the row lock and no update is lost.
func (r *inventoryRepository) ApplyDelta(ctx context.Context, tx pgx.Tx, ingredientID int64, delta decimal.Decimal) (*model.StockLevel, error) {
	query := `
		UPDATE ingredients
		SET stock_qty = stock_qty + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, stock_qty, reorder_point
	`

	var level model.StockLevel
	err := tx.QueryRow(ctx, query, ingredientID, delta).Scan(
		&level.IngredientID,
		&level.Name,
		&level.StockQty,
		&level.ReorderPoint,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Int64("ingredient_id", ingredientID).
			Str("delta", delta.String()).
			Msg("failed to apply stock delta")
		return nil, fmt.Errorf("failed to apply stock delta: %w", err)
	}

	return &level, nil
}

// LockForUpdate reads an ingredient with SELECT ... FOR UPDATE.
func (r *inventoryRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
		FROM ingredients i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.id = $1 AND i.deleted_at IS NULL
		FOR UPDATE OF i
	`

	var ing model.Ingredient
	if err := scanIngredient(tx.QueryRow(ctx, query, id), &ing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to lock ingredient")
		return nil, fmt.Errorf("failed to lock ingredient: %w", err)
	}

	return &ing, nil
}

// SetStock overwrites an ingredient's stock quantity.
func (r *inventoryRepository) SetStock(ctx context.Context, tx pgx.Tx, id int64, qty decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE ingredients SET stock_qty = $2, updated_at = NOW() WHERE id = $1`, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to set stock")
		return fmt.Errorf("failed to set stock: %w", err)
	}
	return nil
}

// UpdateCostAndSupplier updates the purchase price and supplier; nil arguments are left unchanged.
func (r *inventoryRepository) UpdateCostAndSupplier(ctx context.Context, tx pgx.Tx, id int64, cost *decimal.Decimal, supplierID *int64) error {
	if cost == nil && supplierID == nil {
		return nil
	}

	_, err := tx.Exec(ctx, `
		UPDATE ingredients
		SET cost_per_unit = COALESCE($2, cost_per_unit),
		    supplier_id = COALESCE($3, supplier_id),
		    updated_at = NOW()
		WHERE id = $1
	`, id, cost, supplierID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrSupplierNotFound
		}
		r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to update cost and supplier")
		return fmt.Errorf("failed to update cost and supplier: %w", err)
	}
	return nil
}

// InsertMovements appends ledger entries within the provided transaction.
func (r *inventoryRepository) InsertMovements(ctx context.Context, tx pgx.Tx, movements []model.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	query := `
		INSERT INTO stock_movements (id, ingredient_id, type, qty, reason, ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, m := range movements {
		var ref any
		if len(m.Ref) > 0 {
			ref = m.Ref
		}
		batch.Queue(query, m.ID, m.IngredientID, m.Type, m.Quantity, m.Reason, ref, m.CreatedAt)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range movements {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Int64("ingredient_id", movements[i].IngredientID).
				Str("type", movements[i].Type).
				Msg("failed to insert stock movement")
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}
	}

	r.logger.Debug().Int("count", len(movements)).Msg("stock movements recorded")

	return nil
}

// ListMovements returns a page of an ingredient's ledger, newest first.
func (r *inventoryRepository) ListMovements(ctx context.Context, ingredientID int64, params model.ListParams) ([]model.StockMovement, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movements WHERE ingredient_id = $1`, ingredientID).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Int64("ingredient_id", ingredientID).Msg("failed to count movements")
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	query := `
		SELECT m.id, m.ingredient_id, i.name, m.type, m.qty, m.reason, m.ref, m.created_at
		FROM stock_movements m
		JOIN ingredients i ON i.id = m.ingredient_id
		WHERE m.ingredient_id = $1
		ORDER BY m.created_at DESC, m.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, ingredientID, params.Limit, params.Offset())
	if err != nil {
		r.logger.Error().Err(err).Int64("ingredient_id", ingredientID).Msg("failed to query movements")
		return nil, 0, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := []model.StockMovement{}
	for rows.Next() {
		var m model.StockMovement
		err := rows.Scan(&m.ID, &m.IngredientID, &m.IngredientName, &m.Type, &m.Quantity, &m.Reason, &m.Ref, &m.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, total, nil
}
