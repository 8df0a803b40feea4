package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"coffee-pos/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, name, category, price, status, description, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Status, &p.Description, &p.CreatedAt, &p.UpdatedAt)
}

// List returns a page of non-deleted products and the total match count.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error) {
	where := `
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR name ILIKE $2 OR description ILIKE $2)
		  AND ($3 = '' OR category = $3)
		  AND ($4 = '' OR status = $4)
	`
	args := []any{filter.Query, likePattern(filter.Query), filter.Category, filter.Status}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + `
		ORDER BY updated_at DESC, id DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("page", filter.Page).
			Msg("failed to query products")
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// GetByID retrieves a single non-deleted product.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetForSale retrieves an active, non-deleted product inside a settlement transaction.
func (r *productRepository) GetForSale(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND status = 'active' AND deleted_at IS NULL
	`

	var p model.Product
	if err := scanProduct(tx.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product for sale")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetRecipe returns the recipe of a product inside a transaction.
func (r *productRepository) GetRecipe(ctx context.Context, tx pgx.Tx, productID int64) ([]model.RecipeEntry, error) {
	return r.queryRecipe(ctx, tx, productID)
}

// ListRecipe returns the recipe of a product with ingredient names.
func (r *productRepository) ListRecipe(ctx context.Context, productID int64) ([]model.RecipeEntry, error) {
	return r.queryRecipe(ctx, r.pool, productID)
}

func (r *productRepository) queryRecipe(ctx context.Context, q querier, productID int64) ([]model.RecipeEntry, error) {
	query := `
		SELECT pr.product_id, pr.ingredient_id, i.name, i.unit, pr.qty_per_unit
		FROM product_recipes pr
		JOIN ingredients i ON i.id = pr.ingredient_id
		WHERE pr.product_id = $1
		ORDER BY pr.ingredient_id
	`

	rows, err := q.Query(ctx, query, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query recipe")
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	defer rows.Close()

	entries := []model.RecipeEntry{}
	for rows.Next() {
		var e model.RecipeEntry
		if err := rows.Scan(&e.ProductID, &e.IngredientID, &e.IngredientName, &e.Unit, &e.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan recipe entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe: %w", err)
	}

	return entries, nil
}

// Create inserts a product together with its optional recipe.
func (r *productRepository) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	var p model.Product

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO products (name, category, price, status, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + productColumns

		if err := scanProduct(tx.QueryRow(ctx, query,
			input.Name, input.Category, input.Price, input.Status, input.Description,
		), &p); err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}

		return insertRecipe(ctx, tx, p.ID, input.Recipe)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create product")
		return nil, r.translate(err)
	}

	p.Recipe = input.Recipe
	for i := range p.Recipe {
		p.Recipe[i].ProductID = p.ID
	}

	r.logger.Info().Int64("product_id", p.ID).Msg("product created")

	return &p, nil
}

// Update overwrites a product's fields.
func (r *productRepository) Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error) {
	query := `
		UPDATE products
		SET name = $2, category = $3, price = $4, status = $5, description = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + productColumns

	var p model.Product
	err := scanProduct(r.pool.QueryRow(ctx, query,
		id, input.Name, input.Category, input.Price, input.Status, input.Description,
	), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return &p, nil
}

// ReplaceRecipe atomically swaps a product's recipe.
func (r *productRepository) ReplaceRecipe(ctx context.Context, productID int64, entries []model.RecipeEntry) (bool, error) {
	found := false

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, productID)
		if err != nil {
			return fmt.Errorf("failed to touch product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		found = true

		if _, err := tx.Exec(ctx, `DELETE FROM product_recipes WHERE product_id = $1`, productID); err != nil {
			return fmt.Errorf("failed to clear recipe: %w", err)
		}

		return insertRecipe(ctx, tx, productID, entries)
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to replace recipe")
		return false, r.translate(err)
	}

	return found, nil
}

// Delete soft-deletes a product.
func (r *productRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// translate maps constraint violations raised by recipe writes onto domain errors.
func (r *productRepository) translate(err error) error {
	if isForeignKeyViolation(err) {
		return model.ErrIngredientNotFound.Withf("Recipe references an unknown ingredient")
	}
	if isUniqueViolation(err) {
		return model.ErrValidation.Withf("Recipe lists the same ingredient twice")
	}
	return err
}

func insertRecipe(ctx context.Context, tx pgx.Tx, productID int64, entries []model.RecipeEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := lockLiveIngredients(ctx, tx, entries); err != nil {
		return err
	}

	query := `
		INSERT INTO product_recipes (product_id, ingredient_id, qty_per_unit)
		VALUES ($1, $2, $3)
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, productID, e.IngredientID, e.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert recipe entry for ingredient %d: %w", entries[i].IngredientID, err)
		}
	}

	return nil
}

// lockLiveIngredients share-locks the recipe's ingredients so a concurrent
// delete waits for this transaction, and rejects ingredients that are gone.
func lockLiveIngredients(ctx context.Context, tx pgx.Tx, entries []model.RecipeEntry) error {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.IngredientID
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM ingredients WHERE id = ANY($1) AND deleted_at IS NULL FOR SHARE`, ids)
	if err != nil {
		return fmt.Errorf("failed to lock recipe ingredients: %w", err)
	}
	live, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("failed to scan recipe ingredients: %w", err)
	}

	for _, id := range ids {
		if !slices.Contains(live, id) {
			return model.ErrIngredientNotFound.Withf("Ingredient %d not found", id)
		}
	}
	return nil
}
