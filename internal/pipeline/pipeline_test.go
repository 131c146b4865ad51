package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/pkg/config"
)

type memRepo struct {
	obs []contracts.Observation
}

func (m *memRepo) GetAll(ctx context.Context) ([]contracts.Observation, error) {
	return m.obs, nil
}

func (m *memRepo) GetByDateRange(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	var out []contracts.Observation
	for _, o := range m.obs {
		if !o.Date.Before(from) && !o.Date.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memRepo) GetBySKUs(ctx context.Context, skuIDs []string) ([]contracts.Observation, error) {
	return m.obs, nil
}

func (m *memRepo) LatestDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, o := range m.obs {
		if o.Date.After(latest) {
			latest = o.Date
		}
	}
	return latest, nil
}

func weeklySeries(sku string, days int) []contracts.Observation {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]contracts.Observation, 0, days)
	for i := 0; i < days; i++ {
		obs = append(obs, contracts.Observation{
			SKUID:       sku,
			Date:        start.AddDate(0, 0, i),
			Quantity:    30 + 12*math.Sin(2*math.Pi*float64(i)/7),
			UnitPrice:   5,
			Category:    "beverages",
			SubCategory: "juice",
			ProductType: "bottle",
		})
	}
	return obs
}

func TestTrainer_Run(t *testing.T) {
	store := artifact.NewStore(filepath.Join(t.TempDir(), "model"), zerolog.Nop())
	repo := &memRepo{obs: weeklySeries("SKU-001", 300)}
	cfg := config.ForecastConfig{
		ValidationDays: 14,
		TestDays:       30,
		Rounds:         40,
		EarlyStopping:  10,
		Seed:           42,
	}

	meta, err := NewTrainer(repo, store, cfg, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 40, meta.Rounds)
	assert.NotZero(t, meta.RowCounts[contracts.SplitTrain])

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, meta.TrainedAt, loaded.Metadata.TrainedAt)
	assert.NotEmpty(t, loaded.Schema.Columns)
}

func TestTrainer_RunTrailingWindow(t *testing.T) {
	store := artifact.NewStore(filepath.Join(t.TempDir(), "model"), zerolog.Nop())
	repo := &memRepo{obs: weeklySeries("SKU-001", 500)}
	cfg := config.ForecastConfig{
		ValidationDays:     14,
		TestDays:           30,
		Rounds:             40,
		EarlyStopping:      10,
		Seed:               42,
		TrainingWindowDays: 200,
	}

	meta, err := NewTrainer(repo, store, cfg, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	latest, err := repo.LatestDate(context.Background())
	require.NoError(t, err)
	windowStart := latest.AddDate(0, 0, -199)
	assert.False(t, meta.DataStart.Before(windowStart),
		"history older than the window must not reach the trainer")
	assert.Equal(t, latest, meta.DataEnd)
}

func TestTrainer_RunEmptyStore(t *testing.T) {
	store := artifact.NewStore(filepath.Join(t.TempDir(), "model"), zerolog.Nop())
	_, err := NewTrainer(&memRepo{}, store, config.ForecastConfig{ValidationDays: 14, TestDays: 30}, zerolog.Nop()).Run(context.Background())
	require.Error(t, err)
	assert.False(t, store.Exists())
}
