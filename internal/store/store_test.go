package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennovar/demandcast/internal/contracts"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestObservationRepository_RoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewObservationRepository(pool)
	ctx := context.Background()

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	obs := []contracts.Observation{
		{
			SKUID: "TEST-SKU-1", Date: day, Quantity: 12, UnitPrice: 3.5,
			Category: "test", SubCategory: "test", ProductType: "test",
		},
		{
			SKUID: "TEST-SKU-1", Date: day.AddDate(0, 0, 1), Quantity: 15,
			UnitPrice: 3.5, PromoFlag: true,
			Category: "test", SubCategory: "test", ProductType: "test",
		},
	}
	require.NoError(t, repo.SaveAll(ctx, obs))

	got, err := repo.GetBySKUs(ctx, []string{"TEST-SKU-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "TEST-SKU-1", got[0].SKUID)
	assert.True(t, got[0].Date.Before(got[1].Date), "rows must be date-ordered")
	assert.True(t, got[1].PromoFlag)

	latest, err := repo.LatestDate(ctx)
	require.NoError(t, err)
	assert.False(t, latest.Before(day))
}

func TestObservationRepository_GetBySKUsEmpty(t *testing.T) {
	pool := testPool(t)
	repo := NewObservationRepository(pool)

	got, err := repo.GetBySKUs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProductRepository_GetByCategory(t *testing.T) {
	pool := testPool(t)
	repo := NewProductRepository(pool)

	products, err := repo.GetByCategory(context.Background(), "test")
	require.NoError(t, err)
	for _, p := range products {
		assert.Equal(t, "test", p.Category)
	}
}
