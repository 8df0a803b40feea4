package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, name, price, status string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO products (name, category, price, status) VALUES ($1, 'coffee', $2, $3) RETURNING id
	`, name, dec(price), status).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedIngredient(t *testing.T, pool *pgxpool.Pool, name, stock, reorder string) int64 {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO ingredients (name, unit, stock_qty, reorder_point) VALUES ($1, 'g', $2, $3) RETURNING id
	`, name, dec(stock), dec(reorder)).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedRecipe(t *testing.T, pool *pgxpool.Pool, productID, ingredientID int64, qty string) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO product_recipes (product_id, ingredient_id, qty_per_unit) VALUES ($1, $2, $3)
	`, productID, ingredientID, dec(qty))
	require.NoError(t, err)
}

func stockOf(t *testing.T, pool *pgxpool.Pool, ingredientID int64) decimal.Decimal {
	t.Helper()

	var qty decimal.Decimal
	err := pool.QueryRow(context.Background(),
		`SELECT stock_qty FROM ingredients WHERE id = $1`, ingredientID).Scan(&qty)
	require.NoError(t, err)
	return qty
}
