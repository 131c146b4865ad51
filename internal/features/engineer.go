package features

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/contracts"
)

// Config holds the lag and window sets the engineer derives features
// from. The largest lag defines the minimum history a SKU must have.
type Config struct {
	Lags    []int
	Windows []int
}

// DefaultConfig returns the standard feature configuration.
func DefaultConfig() Config {
	return Config{
		Lags:    []int{7, 14, 28, 56, 84},
		Windows: []int{7, 14, 28},
	}
}

// MinHistory is the number of observations a SKU needs before any
// feature row can be emitted.
func (c Config) MinHistory() int {
	min := 0
	for _, l := range c.Lags {
		if l > min {
			min = l
		}
	}
	for _, w := range c.Windows {
		if w > min {
			min = w
		}
	}
	return min
}

// BuildResult is the output of one feature construction pass.
type BuildResult struct {
	Rows     []contracts.FeatureVector
	Schema   contracts.FeatureSchema
	Encoders *contracts.EncoderSet

	// Dropped lists SKUs excluded for insufficient history. They are
	// reported, not fabricated.
	Dropped []*contracts.InsufficientHistoryError

	// UnknownValues counts inference-time categorical values that fell
	// back to the unknown code, keyed by column. Non-empty is a
	// data-quality signal, not an error.
	UnknownValues map[string]int
}

// Engineer turns raw per-SKU time series into fixed-width numeric
// feature vectors. Given identical input and encoder state, output is
// reproducible byte for byte: iteration is sorted and nothing reads
// the clock.
type Engineer struct {
	config Config
	log    zerolog.Logger
}

// NewEngineer creates a feature engineer with the default lag/window
// configuration.
func NewEngineer(log zerolog.Logger) *Engineer {
	return NewEngineerWithConfig(DefaultConfig(), log)
}

// NewEngineerWithConfig creates a feature engineer with a custom
// configuration.
func NewEngineerWithConfig(cfg Config, log zerolog.Logger) *Engineer {
	return &Engineer{
		config: cfg,
		log:    log.With().Str("component", "features.engineer").Logger(),
	}
}

// Schema returns the ordered feature column list this configuration
// produces. The order is fixed by construction, never inferred from
// data.
func (e *Engineer) Schema() contracts.FeatureSchema {
	cols := []string{"unit_price", "promo_flag"}
	for _, l := range e.config.Lags {
		cols = append(cols, fmt.Sprintf("lag_%d", l))
	}
	for _, w := range e.config.Windows {
		cols = append(cols,
			fmt.Sprintf("roll_mean_%d", w),
			fmt.Sprintf("roll_std_%d", w),
			fmt.Sprintf("roll_min_%d", w),
			fmt.Sprintf("roll_max_%d", w),
		)
	}
	cols = append(cols,
		"momentum_7_14",
		"pct_change_7",
		"price_change_7",
		"cv_28",
		"current_vs_avg",
		"promo_share_28",
		"promo_count_7",
	)
	cols = append(cols,
		"month",
		"day_of_week",
		"day_of_month",
		"is_weekend",
		"month_sin",
		"month_cos",
		"dow_sin",
		"dow_cos",
	)
	cols = append(cols,
		"price_promo",
		"weekend_promo",
		"month_promo",
	)
	for _, col := range encodedColumns {
		cols = append(cols, col+"_code")
	}
	return contracts.FeatureSchema{Columns: cols}
}

// Build constructs feature rows for all SKUs in obs. When encoders is
// nil the categorical encoders are fitted from obs (training); when
// given, they are reused as-is and unseen values map to the unknown
// code (inference).
func (e *Engineer) Build(ctx context.Context, obs []contracts.Observation, encoders *contracts.EncoderSet) (*BuildResult, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations to build features from")
	}

	fitted := encoders != nil
	if !fitted {
		encoders = FitEncoders(obs)
		e.log.Debug().
			Int("category", encoders.Cardinality("category")).
			Int("sub_category", encoders.Cardinality("sub_category")).
			Int("product_type", encoders.Cardinality("product_type")).
			Int("sku_id", encoders.Cardinality("sku_id")).
			Msg("encoders fitted")
	}

	groups := contracts.GroupBySKU(obs)
	minHistory := e.config.MinHistory()

	result := &BuildResult{
		Schema:        e.Schema(),
		Encoders:      encoders,
		UnknownValues: make(map[string]int),
	}

	for _, skuID := range contracts.SKUIDs(obs) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		series := groups[skuID]
		if len(series) <= minHistory {
			dropped := &contracts.InsufficientHistoryError{
				SKUID:    skuID,
				Rows:     len(series),
				Required: minHistory + 1,
			}
			result.Dropped = append(result.Dropped, dropped)
			e.log.Warn().
				Str("sku_id", skuID).
				Int("rows", len(series)).
				Int("required", minHistory+1).
				Msg("sku dropped for insufficient history")
			continue
		}

		rows := e.buildSKU(series, encoders, result.UnknownValues)
		result.Rows = append(result.Rows, rows...)
	}

	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("no sku has the %d observations required for feature construction", minHistory+1)
	}

	for col, n := range result.UnknownValues {
		e.log.Warn().
			Str("column", col).
			Int("values", n).
			Msg("categorical values mapped to unknown code")
	}

	e.log.Info().
		Int("rows", len(result.Rows)).
		Int("features", len(result.Schema.Columns)).
		Int("skus_dropped", len(result.Dropped)).
		Msg("feature construction completed")

	return result, nil
}

// buildSKU emits one feature row per observation from index
// MinHistory onward. Earlier rows are warm-up only.
func (e *Engineer) buildSKU(series []contracts.Observation, encoders *contracts.EncoderSet, unknown map[string]int) []contracts.FeatureVector {
	quantities := make([]float64, len(series))
	prices := make([]float64, len(series))
	promos := make([]float64, len(series))
	for i, o := range series {
		quantities[i] = o.Quantity
		prices[i] = o.UnitPrice
		if o.PromoFlag {
			promos[i] = 1
		}
	}

	minHistory := e.config.MinHistory()
	rows := make([]contracts.FeatureVector, 0, len(series)-minHistory)

	for i := minHistory; i < len(series); i++ {
		o := series[i]
		values := make([]float64, 0, len(e.Schema().Columns))

		promoFlag := promos[i]
		values = append(values, o.UnitPrice, promoFlag)

		// Lags of the target's own history
		for _, l := range e.config.Lags {
			values = append(values, quantities[i-l])
		}

		// Trailing rolling statistics, current day excluded: the
		// current quantity is the target.
		for _, w := range e.config.Windows {
			stats := rollingStats(quantities, i, w)
			values = append(values, stats.Mean, stats.Std, stats.Min, stats.Max)
		}

		roll28 := rollingStats(quantities, i, 28)
		lag7 := quantities[i-7]
		lag14 := quantities[i-14]

		values = append(values,
			safeRatio(lag7-lag14, lag14),                       // momentum_7_14
			safeRatio(quantities[i-1]-quantities[i-7], quantities[i-7]), // pct_change_7
			safeRatio(prices[i]-prices[i-7], prices[i-7]),      // price_change_7
			safeRatio(roll28.Std, roll28.Mean),                 // cv_28
			safeRatio(lag7, roll28.Mean),                       // current_vs_avg
			trailingMean(promos, i, 28),                        // promo_share_28
			trailingSum(promos, i, 7),                          // promo_count_7
		)

		cal := calendarFeatures(o.Date)
		values = append(values,
			cal.Month,
			cal.DayOfWeek,
			cal.DayOfMonth,
			cal.IsWeekend,
			cal.MonthSin,
			cal.MonthCos,
			cal.DowSin,
			cal.DowCos,
		)

		values = append(values,
			o.UnitPrice*promoFlag, // price_promo
			cal.IsWeekend*promoFlag,
			cal.Month*promoFlag,
		)

		values = append(values, encodeObservation(encoders, o, unknown)...)

		rows = append(rows, contracts.FeatureVector{
			SKUID:       o.SKUID,
			Date:        o.Date,
			Category:    o.Category,
			ProductType: o.ProductType,
			Target:      o.Quantity,
			Values:      sanitize(values),
		})
	}

	return rows
}
