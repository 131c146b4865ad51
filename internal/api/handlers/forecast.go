package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/forecast"
	"github.com/ennovar/demandcast/pkg/logger"
	"github.com/ennovar/demandcast/pkg/redis"
)

// ForecastHandler serves model status and on-demand predictions.
type ForecastHandler struct {
	store       *artifact.Store
	generator   *forecast.Generator
	evaluator   *forecast.Evaluator
	obsRepo     contracts.ObservationRepository
	productRepo contracts.ProductRepository
	cache       *redis.Cache
	logger      *logger.Logger

	mu       sync.Mutex
	loaded   *artifact.Artifact
	loadedAt time.Time
}

// modelReloadInterval bounds how long a request can be served by a
// stale in-process artifact after a retrain in another process.
const modelReloadInterval = 5 * time.Minute

// NewForecastHandler creates a new forecast handler. cache may be nil
// when Redis is not configured.
func NewForecastHandler(
	store *artifact.Store,
	generator *forecast.Generator,
	evaluator *forecast.Evaluator,
	obsRepo contracts.ObservationRepository,
	productRepo contracts.ProductRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		store:       store,
		generator:   generator,
		evaluator:   evaluator,
		obsRepo:     obsRepo,
		productRepo: productRepo,
		cache:       cache,
		logger:      log,
	}
}

// InvalidateModel drops the cached artifact so the next request
// reloads from disk. Called after retraining swaps the bundle.
func (h *ForecastHandler) InvalidateModel() {
	h.mu.Lock()
	h.loaded = nil
	h.mu.Unlock()
	if h.cache != nil {
		if err := h.cache.Delete(context.Background(), redis.ModelStatusKey(h.store.Dir())); err != nil {
			h.logger.WithError(err).Warn("Failed to drop cached model status")
		}
	}
}

func (h *ForecastHandler) model() (*artifact.Artifact, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded != nil && time.Since(h.loadedAt) < modelReloadInterval {
		return h.loaded, nil
	}
	a, err := h.store.Load()
	if err != nil {
		// Serve the previous artifact if the swap is mid-flight.
		if h.loaded != nil {
			return h.loaded, nil
		}
		return nil, err
	}
	h.loaded = a
	h.loadedAt = time.Now()
	return a, nil
}

// GetStatus reports whether a trained model is available.
// GET /api/forecast/status
func (h *ForecastHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	statusKey := redis.ModelStatusKey(h.store.Dir())
	if h.cache != nil {
		var cached contracts.ModelStatus
		if hit, err := h.cache.Get(r.Context(), statusKey, &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	a, err := h.model()
	if err != nil {
		var missing *contracts.MissingModelError
		if errors.As(err, &missing) {
			respondJSON(w, http.StatusOK, contracts.ModelStatus{Available: false})
			return
		}
		h.logger.WithError(err).Error("Failed to load model artifact")
		respondError(w, http.StatusServiceUnavailable, "model artifact is not loadable")
		return
	}

	status := a.Status()
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), statusKey, status, redis.TTLShort); err != nil {
			h.logger.WithError(err).Warn("Failed to cache model status")
		}
	}
	respondJSON(w, http.StatusOK, status)
}

type predictResponse struct {
	Success  bool                      `json:"success"`
	Horizon  int                       `json:"horizon"`
	Summary  contracts.ForecastSummary `json:"summary"`
	Metrics  contracts.Metrics         `json:"metrics"`
	Forecast []contracts.ForecastRow   `json:"forecast"`
}

// Predict generates forecasts for a category or a single SKU.
// POST /api/forecast/predict
func (h *ForecastHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contracts.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !contracts.HorizonSupported(req.Horizon) {
		respondError(w, http.StatusBadRequest,
			(&contracts.InvalidHorizonError{Horizon: req.Horizon, Supported: contracts.SupportedHorizons}).Error())
		return
	}
	if req.Category == "" && req.SKUID == "" {
		respondError(w, http.StatusBadRequest, "category or sku_id is required")
		return
	}

	a, err := h.model()
	if err != nil {
		var missing *contracts.MissingModelError
		if errors.As(err, &missing) {
			respondError(w, http.StatusServiceUnavailable, "no trained model available")
			return
		}
		h.logger.WithError(err).Error("Failed to load model artifact")
		respondError(w, http.StatusServiceUnavailable, "model artifact is not loadable")
		return
	}

	skuIDs, err := h.resolveSKUs(ctx, req)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve SKUs")
		respondError(w, http.StatusInternalServerError, "failed to resolve products")
		return
	}
	if len(skuIDs) == 0 {
		respondError(w, http.StatusNotFound, "no products match the filter")
		return
	}

	filter := req.Category
	if req.Product != "" {
		filter += ":" + req.Product
	}
	cacheKey := redis.ForecastKey(filter, req.SKUID, req.Horizon)
	if h.cache != nil {
		var cached predictResponse
		if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	obs, err := h.obsRepo.GetBySKUs(ctx, skuIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load observations")
		respondError(w, http.StatusInternalServerError, "failed to load sales history")
		return
	}

	rows, err := h.generator.Generate(ctx, a, obs, req.Horizon)
	if err != nil {
		var mismatch *contracts.SchemaMismatchError
		if errors.As(err, &mismatch) {
			h.logger.WithError(err).Error("Feature schema drifted from artifact")
			respondError(w, http.StatusInternalServerError, mismatch.Error())
			return
		}
		h.logger.WithError(err).Error("Forecast generation failed")
		respondError(w, http.StatusInternalServerError, "forecast generation failed")
		return
	}

	resp := predictResponse{
		Success:  true,
		Horizon:  req.Horizon,
		Summary:  contracts.Summarize(rows),
		Metrics:  h.evaluator.Evaluate(rows).Overall,
		Forecast: rows,
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, resp, redis.TTLMedium); err != nil {
			h.logger.WithError(err).Warn("Failed to cache forecast response")
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetProducts lists the products in a category.
// GET /api/products/{category}
func (h *ForecastHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := mux.Vars(r)["category"]
	if category == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}

	load := func() ([]contracts.Product, error) {
		products, err := h.productRepo.GetByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		if products == nil {
			products = []contracts.Product{}
		}
		return products, nil
	}

	var products []contracts.Product
	var err error
	if h.cache != nil {
		err = h.cache.GetOrSet(ctx, redis.CategoryProductsKey(category), &products, redis.TTLLong,
			func() (interface{}, error) { return load() })
	} else {
		products, err = load()
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load products")
		respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// resolveSKUs turns the request filter into a SKU list. A sku_id
// filter wins over product and category filters.
func (h *ForecastHandler) resolveSKUs(ctx context.Context, req contracts.ForecastRequest) ([]string, error) {
	if req.SKUID != "" {
		return []string{req.SKUID}, nil
	}
	var (
		products []contracts.Product
		err      error
	)
	if req.Product != "" {
		products, err = h.productRepo.GetByName(ctx, req.Category, req.Product)
	} else {
		products, err = h.productRepo.GetByCategory(ctx, req.Category)
	}
	if err != nil {
		return nil, err
	}
	skuIDs := make([]string, 0, len(products))
	for _, p := range products {
		skuIDs = append(skuIDs, p.SKUID)
	}
	return skuIDs, nil
}
