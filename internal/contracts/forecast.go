package contracts

import "time"

// SupportedHorizons is the closed set of forecast horizons, in days.
var SupportedHorizons = []int{7, 14, 30}

// HorizonSupported reports whether h is a member of the supported set.
func HorizonSupported(h int) bool {
	for _, s := range SupportedHorizons {
		if s == h {
			return true
		}
	}
	return false
}

// ForecastRequest asks for predictions over one horizon, optionally
// restricted to a category, a product name within it, or a single SKU.
type ForecastRequest struct {
	Horizon  int    `json:"horizon"`
	Category string `json:"category,omitempty"`
	Product  string `json:"product,omitempty"`
	SKUID    string `json:"sku_id,omitempty"`
}

// ForecastRow is one prediction for one (sku, date). Actual is nil
// where no ground truth exists. Rows are transient; the core never
// persists them.
type ForecastRow struct {
	Date        time.Time `json:"date"`
	SKUID       string    `json:"sku_id"`
	ProductType string    `json:"product_type"`
	Category    string    `json:"category"`
	Horizon     int       `json:"forecast_horizon"`
	Actual      *float64  `json:"actual_quantity"`
	Predicted   float64   `json:"predicted_quantity"`
}

// ForecastSummary aggregates a result set for the serving layer.
type ForecastSummary struct {
	TotalPredicted float64  `json:"total_predicted"`
	TotalActual    *float64 `json:"total_actual,omitempty"`
	Rows           int      `json:"rows"`
}

// Summarize computes totals over rows. TotalActual is nil when no row
// carries ground truth.
func Summarize(rows []ForecastRow) ForecastSummary {
	s := ForecastSummary{Rows: len(rows)}
	var actualSum float64
	var haveActual bool
	for _, r := range rows {
		s.TotalPredicted += r.Predicted
		if r.Actual != nil {
			actualSum += *r.Actual
			haveActual = true
		}
	}
	if haveActual {
		s.TotalActual = &actualSum
	}
	return s
}

// Metrics is the standard accuracy bundle. R2 is nil when undefined
// (fewer than two distinct actuals in the group).
type Metrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	R2   *float64 `json:"r2"`
	MAPE float64  `json:"mape"`
}

// ModelStatus is the serving-layer view of artifact availability.
type ModelStatus struct {
	Available bool      `json:"available"`
	ModelType string    `json:"model_type,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}
