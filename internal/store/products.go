package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ennovar/demandcast/internal/contracts"
)

// ProductRepository implements contracts.ProductRepository on
// Postgres.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByCategory retrieves all products in a category.
func (r *ProductRepository) GetByCategory(ctx context.Context, category string) ([]contracts.Product, error) {
	query := `
		SELECT sku_id, product_name, category, sub_category
		FROM sales.products
		WHERE category = $1
		ORDER BY sku_id
	`
	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query products by category: %w", err)
	}
	return scanProducts(rows)
}

// GetByName retrieves products matching a name within a category.
func (r *ProductRepository) GetByName(ctx context.Context, category, name string) ([]contracts.Product, error) {
	query := `
		SELECT sku_id, product_name, category, sub_category
		FROM sales.products
		WHERE category = $1 AND product_name = $2
		ORDER BY sku_id
	`
	rows, err := r.pool.Query(ctx, query, category, name)
	if err != nil {
		return nil, fmt.Errorf("query products by name: %w", err)
	}
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]contracts.Product, error) {
	defer rows.Close()
	var products []contracts.Product
	for rows.Next() {
		var p contracts.Product
		if err := rows.Scan(&p.SKUID, &p.Name, &p.Category, &p.SubCategory); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
