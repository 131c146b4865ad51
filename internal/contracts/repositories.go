package contracts

import (
	"context"
	"time"
)

// ObservationRepository is the readable tabular source of raw sales
// rows, time-ordered per SKU. The core does not prescribe how the
// rows are stored.
type ObservationRepository interface {
	// GetAll returns every observation, ordered by (sku_id, date).
	GetAll(ctx context.Context) ([]Observation, error)

	// GetByDateRange returns observations with date in [from, to],
	// ordered by (sku_id, date).
	GetByDateRange(ctx context.Context, from, to time.Time) ([]Observation, error)

	// GetBySKUs returns observations for the given SKUs, ordered by
	// (sku_id, date).
	GetBySKUs(ctx context.Context, skuIDs []string) ([]Observation, error)

	// LatestDate returns the newest observation date in the store.
	LatestDate(ctx context.Context) (time.Time, error)
}

// Product describes one sellable item for filter resolution.
type Product struct {
	SKUID       string `json:"sku_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	SubCategory string `json:"sub_category"`
}

// ProductRepository resolves category/product filters to SKU sets for
// the serving layer.
type ProductRepository interface {
	// GetByCategory returns all products in a category.
	GetByCategory(ctx context.Context, category string) ([]Product, error)

	// GetByName returns products matching a product name within a
	// category.
	GetByName(ctx context.Context, category, name string) ([]Product, error)
}
