package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coffee-pos/internal/model"

	"github.com/jackc/pgx/v5"
)

const ingredientColumns = `i.id, i.name, i.unit, i.stock_qty, i.reorder_point, i.cost_per_unit,
	i.supplier_id, s.name, i.created_at, i.updated_at`

func scanIngredient(row pgx.Row, ing *model.Ingredient) error {
	err := row.Scan(
		&ing.ID,
		&ing.Name,
		&ing.Unit,
		&ing.StockQty,
		&ing.ReorderPoint,
		&ing.CostPerUnit,
		&ing.SupplierID,
		&ing.SupplierName,
		&ing.CreatedAt,
		&ing.UpdatedAt,
	)
	if err != nil {
		return err
	}
	ing.StockStatus = model.StockStatusOf(ing.StockQty, ing.ReorderPoint)
	return nil
}

// List returns a page of non-deleted ingredients ordered by name.
func (r *inventoryRepository) List(ctx context.Context, params model.ListParams) ([]model.Ingredient, int, error) {
	where := `
		WHERE i.deleted_at IS NULL
		  AND ($1 = '' OR i.name ILIKE $2)
	`
	args := []any{params.Query, likePattern(params.Query)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ingredients i`+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count ingredients")
		return nil, 0, fmt.Errorf("failed to count ingredients: %w", err)
	}

	query := `SELECT ` + ingredientColumns + `
		FROM ingredients i
		LEFT JOIN suppliers s ON s.id = i.supplier_id` + where + `
		ORDER BY i.name, i.id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, append(args, params.Limit, params.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query ingredients")
		return nil, 0, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []model.Ingredient{}
	for rows.Next() {
		var ing model.Ingredient
		if err := scanIngredient(rows, &ing); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan ingredient row")
			return nil, 0, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return ingredients, total, nil
}

// GetByID retrieves a non-deleted ingredient.
func (r *inventoryRepository) GetByID(ctx context.Context, id int64) (*model.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + `
		FROM ingredients i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.id = $1 AND i.deleted_at IS NULL
	`

	var ing model.Ingredient
	if err := scanIngredient(r.pool.QueryRow(ctx, query, id), &ing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to query ingredient")
		return nil, fmt.Errorf("failed to query ingredient: %w", err)
	}

	return &ing, nil
}

// Create inserts an ingredient.
func (r *inventoryRepository) Create(ctx context.Context, input *model.IngredientInput) (*model.Ingredient, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ingredients (name, unit, stock_qty, reorder_point, cost_per_unit, supplier_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, input.Name, input.Unit, input.StockQty, input.ReorderPoint, input.CostPerUnit, input.SupplierID).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrSupplierNotFound
		}
		r.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create ingredient")
		return nil, fmt.Errorf("failed to create ingredient: %w", err)
	}

	r.logger.Info().Int64("ingredient_id", id).Msg("ingredient created")

	return r.GetByID(ctx, id)
}

// Update overwrites an ingredient's fields, stock included.
func (r *inventoryRepository) Update(ctx context.Context, id int64, input *model.IngredientInput) (*model.Ingredient, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ingredients
		SET name = $2, unit = $3, stock_qty = $4, reorder_point = $5, cost_per_unit = $6, supplier_id = $7,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id, input.Name, input.Unit, input.StockQty, input.ReorderPoint, input.CostPerUnit, input.SupplierID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrSupplierNotFound
		}
		r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to update ingredient")
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Delete soft-deletes an ingredient. An ingredient still used by the recipe
// of a live product is refused with ErrIngredientInUse.
func (r *inventoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	found := false

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM ingredients WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("failed to lock ingredient: %w", err)
		}
		found = true

		users, err := recipeUsers(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return model.ErrIngredientInUse.Withf("Ingredient %d is used by %s", id, strings.Join(users, ", "))
		}

		if _, err := tx.Exec(ctx,
			`UPDATE ingredients SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete ingredient: %w", err)
		}
		return nil
	})
	if err != nil {
		var domainErr *model.DomainError
		if !errors.As(err, &domainErr) {
			r.logger.Error().Err(err).Int64("ingredient_id", id).Msg("failed to delete ingredient")
		}
		return false, err
	}

	return found, nil
}

// recipeUsers names the live products whose recipe uses the ingredient.
func recipeUsers(ctx context.Context, tx pgx.Tx, ingredientID int64) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT p.name
		FROM product_recipes pr
		JOIN products p ON p.id = pr.product_id
		WHERE pr.ingredient_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.name
		LIMIT 5
	`, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipes using ingredient: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe users: %w", err)
	}
	return names, nil
}
