package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennovar/demandcast/internal/api/handlers"
	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/dataset"
	"github.com/ennovar/demandcast/internal/features"
	"github.com/ennovar/demandcast/internal/forecast"
	"github.com/ennovar/demandcast/internal/training"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/logger"
)

type fakeObsRepo struct {
	obs []contracts.Observation
}

func (f *fakeObsRepo) GetAll(ctx context.Context) ([]contracts.Observation, error) {
	return f.obs, nil
}

func (f *fakeObsRepo) GetByDateRange(ctx context.Context, from, to time.Time) ([]contracts.Observation, error) {
	var out []contracts.Observation
	for _, o := range f.obs {
		if !o.Date.Before(from) && !o.Date.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObsRepo) GetBySKUs(ctx context.Context, skuIDs []string) ([]contracts.Observation, error) {
	want := make(map[string]bool, len(skuIDs))
	for _, id := range skuIDs {
		want[id] = true
	}
	var out []contracts.Observation
	for _, o := range f.obs {
		if want[o.SKUID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObsRepo) LatestDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, o := range f.obs {
		if o.Date.After(latest) {
			latest = o.Date
		}
	}
	return latest, nil
}

type fakeProductRepo struct {
	products []contracts.Product
}

func (f *fakeProductRepo) GetByCategory(ctx context.Context, category string) ([]contracts.Product, error) {
	var out []contracts.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetByName(ctx context.Context, category, name string) ([]contracts.Product, error) {
	var out []contracts.Product
	for _, p := range f.products {
		if p.Category == category && p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func dailyObservations(sku string, days int) []contracts.Observation {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]contracts.Observation, 0, days)
	for i := 0; i < days; i++ {
		obs = append(obs, contracts.Observation{
			SKUID:       sku,
			Date:        start.AddDate(0, 0, i),
			Quantity:    25 + 10*math.Sin(2*math.Pi*float64(i)/7),
			UnitPrice:   4.5,
			Category:    "beverages",
			SubCategory: "juice",
			ProductType: "bottle",
		})
	}
	return obs
}

// newTestRouter trains a small model on obs and wires the full
// handler stack around it, without Redis.
func newTestRouter(t *testing.T, obs []contracts.Observation, products []contracts.Product) (http.Handler, *artifact.Store) {
	t.Helper()
	ctx := context.Background()
	zlog := zerolog.Nop()

	store := artifact.NewStore(filepath.Join(t.TempDir(), "model"), zlog)
	if len(obs) > 0 {
		engineer := features.NewEngineer(zlog)
		built, err := engineer.Build(ctx, obs, nil)
		require.NoError(t, err)

		latest := obs[len(obs)-1].Date
		ds, err := dataset.NewSplitter(zlog).Split(built.Rows, dataset.CutoffsFromRange(latest, 14, 30))
		require.NoError(t, err)

		cfg := training.DefaultTrainerConfig()
		cfg.Rounds = 40
		cfg.EarlyStopping = 10
		result, err := training.NewTrainer(cfg, zlog).Train(ctx, ds, built.Schema)
		require.NoError(t, err)

		require.NoError(t, store.Save(&artifact.Artifact{
			Model:     result.Model,
			Schema:    built.Schema,
			Encoders:  *built.Encoders,
			Transform: result.Transform,
			Metadata:  result.Metadata,
		}))
	}

	handler := handlers.NewForecastHandler(
		store,
		forecast.NewGenerator(features.NewEngineer(zlog), zlog),
		forecast.NewEvaluator(zlog),
		&fakeObsRepo{obs: obs},
		&fakeProductRepo{products: products},
		nil,
		testLogger(),
	)
	return NewRouter(handler, testLogger()), store
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_StatusWithoutModel(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/forecast/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status contracts.ModelStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Available)
}

func TestRouter_StatusWithModel(t *testing.T) {
	router, _ := newTestRouter(t, dailyObservations("SKU-001", 300), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/forecast/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status contracts.ModelStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Available)
	assert.Equal(t, training.ModelType, status.ModelType)
}

func predictBody(t *testing.T, req contracts.ForecastRequest) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestRouter_Predict(t *testing.T) {
	obs := dailyObservations("SKU-001", 300)
	products := []contracts.Product{
		{SKUID: "SKU-001", Name: "Orange Juice 1L", Category: "beverages", SubCategory: "juice"},
	}
	router, _ := newTestRouter(t, obs, products)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{Horizon: 7, Category: "beverages"})))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Success  bool                      `json:"success"`
		Horizon  int                       `json:"horizon"`
		Summary  contracts.ForecastSummary `json:"summary"`
		Forecast []contracts.ForecastRow   `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 7, resp.Horizon)
	assert.Len(t, resp.Forecast, 7)
	assert.Equal(t, 7, resp.Summary.Rows)
	for _, row := range resp.Forecast {
		assert.GreaterOrEqual(t, row.Predicted, 0.0)
	}

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
	assert.Contains(t, keys, "success")
	assert.Contains(t, keys, "forecast")
	assert.Contains(t, keys, "summary")
}

func TestRouter_PredictByProductName(t *testing.T) {
	obs := append(dailyObservations("SKU-001", 300), dailyObservations("SKU-002", 300)...)
	products := []contracts.Product{
		{SKUID: "SKU-001", Name: "Orange Juice 1L", Category: "beverages"},
		{SKUID: "SKU-002", Name: "Apple Juice 1L", Category: "beverages"},
	}
	router, _ := newTestRouter(t, obs, products)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{
			Horizon: 7, Category: "beverages", Product: "Orange Juice 1L",
		})))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Forecast []contracts.ForecastRow `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Forecast, 7)
	for _, row := range resp.Forecast {
		assert.Equal(t, "SKU-001", row.SKUID)
	}
}

func TestRouter_PredictInvalidHorizon(t *testing.T) {
	router, _ := newTestRouter(t, dailyObservations("SKU-001", 300), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{Horizon: 3, Category: "beverages"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
}

func TestRouter_PredictWithoutModel(t *testing.T) {
	router, _ := newTestRouter(t, nil, []contracts.Product{
		{SKUID: "SKU-001", Category: "beverages"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{Horizon: 7, Category: "beverages"})))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_PredictUnknownCategory(t *testing.T) {
	router, _ := newTestRouter(t, dailyObservations("SKU-001", 300), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{Horizon: 7, Category: "frozen"})))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PredictMissingFilter(t *testing.T) {
	router, _ := newTestRouter(t, dailyObservations("SKU-001", 300), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/forecast/predict",
		predictBody(t, contracts.ForecastRequest{Horizon: 7})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Products(t *testing.T) {
	products := []contracts.Product{
		{SKUID: "SKU-001", Name: "Orange Juice 1L", Category: "beverages"},
		{SKUID: "SKU-002", Name: "Apple Juice 1L", Category: "beverages"},
		{SKUID: "SKU-003", Name: "Frozen Peas", Category: "frozen"},
	}
	router, _ := newTestRouter(t, nil, products)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/products/beverages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []contracts.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
