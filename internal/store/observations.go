package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ennovar/demandcast/internal/contracts"
)

const observationColumns = `sku_id, sale_date, quantity, unit_price, promo_flag, category, sub_category, product_type`

// ObservationRepository implements contracts.ObservationRepository on
// Postgres.
type ObservationRepository struct {
	pool *pgxpool.Pool
}

func NewObservationRepository(pool *pgxpool.Pool) *ObservationRepository {
	return &ObservationRepository{pool: pool}
}

// GetAll retrieves every sales row ordered by (sku_id, date).
func (r *ObservationRepository) GetAll(ctx context.Context) ([]contracts.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM sales.daily_sales
		ORDER BY sku_id, sale_date
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	return scanObservations(rows)
}

// GetByDateRange retrieves rows with sale_date in [from, to].
func (r *ObservationRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM sales.daily_sales
		WHERE sale_date BETWEEN $1 AND $2
		ORDER BY sku_id, sale_date
	`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query observations by range: %w", err)
	}
	return scanObservations(rows)
}

// GetBySKUs retrieves rows for the given SKUs.
func (r *ObservationRepository) GetBySKUs(ctx context.Context, skuIDs []string) ([]contracts.Observation, error) {
	if len(skuIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + observationColumns + `
		FROM sales.daily_sales
		WHERE sku_id = ANY($1)
		ORDER BY sku_id, sale_date
	`
	rows, err := r.pool.Query(ctx, query, skuIDs)
	if err != nil {
		return nil, fmt.Errorf("query observations by sku: %w", err)
	}
	return scanObservations(rows)
}

// LatestDate returns the newest sale_date in the store.
func (r *ObservationRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(sale_date) FROM sales.daily_sales`).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest sale date: %w", err)
	}
	return latest, nil
}

// SaveAll upserts a batch of sales rows keyed by (sku_id, sale_date).
func (r *ObservationRepository) SaveAll(ctx context.Context, obs []contracts.Observation) error {
	query := `
		INSERT INTO sales.daily_sales (` + observationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sku_id, sale_date) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			promo_flag = EXCLUDED.promo_flag
	`
	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(query,
			o.SKUID, o.Date, o.Quantity, o.UnitPrice, o.PromoFlag,
			o.Category, o.SubCategory, o.ProductType,
		)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range obs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert observation: %w", err)
		}
	}
	return nil
}

func scanObservations(rows pgx.Rows) ([]contracts.Observation, error) {
	defer rows.Close()
	var obs []contracts.Observation
	for rows.Next() {
		var o contracts.Observation
		if err := rows.Scan(
			&o.SKUID, &o.Date, &o.Quantity, &o.UnitPrice, &o.PromoFlag,
			&o.Category, &o.SubCategory, &o.ProductType,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
