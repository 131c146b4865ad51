package forecast

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/features"
)

// Generator scores recent observations with a loaded artifact. It
// rebuilds features with the artifact's own encoders and schema, so
// serving can never drift from what training saw.
type Generator struct {
	engineer *features.Engineer
	log      zerolog.Logger
}

func NewGenerator(engineer *features.Engineer, log zerolog.Logger) *Generator {
	return &Generator{
		engineer: engineer,
		log:      log.With().Str("component", "forecast_generator").Logger(),
	}
}

// Generate predicts demand for the last horizon days of each SKU in
// obs. Rows carry the known actual next to the prediction, so the
// output doubles as evaluation input. SKUs filtered out for
// insufficient history yield an empty result, not an error.
func (g *Generator) Generate(ctx context.Context, a *artifact.Artifact, obs []contracts.Observation, horizon int) ([]contracts.ForecastRow, error) {
	if !contracts.HorizonSupported(horizon) {
		return nil, &contracts.InvalidHorizonError{
			Horizon:   horizon,
			Supported: contracts.SupportedHorizons,
		}
	}
	if len(obs) == 0 {
		return []contracts.ForecastRow{}, nil
	}

	built, err := g.engineer.Build(ctx, obs, &a.Encoders)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Every SKU fell below the history minimum. Nothing to score.
		g.log.Warn().Int("observations", len(obs)).Msg("no SKU has enough history to forecast")
		return []contracts.ForecastRow{}, nil
	}
	if !built.Schema.Equal(a.Schema) {
		missing, extra := a.Schema.Diff(built.Schema)
		return nil, &contracts.SchemaMismatchError{Missing: missing, Extra: extra}
	}
	for col, n := range built.UnknownValues {
		g.log.Warn().
			Str("column", col).
			Int("count", n).
			Msg("values unseen at training mapped to the unknown code")
	}

	windows := horizonWindows(built.Rows, horizon)

	rows := make([]contracts.ForecastRow, 0, len(built.Rows))
	for _, fv := range built.Rows {
		if fv.Date.Before(windows[fv.SKUID]) {
			continue
		}
		raw, err := a.Model.Predict(fv.Values)
		if err != nil {
			return nil, err
		}
		pred := a.Transform.Invert(raw)
		if pred < 0 {
			pred = 0
		}
		actual := fv.Target
		rows = append(rows, contracts.ForecastRow{
			Date:        fv.Date,
			SKUID:       fv.SKUID,
			ProductType: fv.ProductType,
			Category:    fv.Category,
			Horizon:     horizon,
			Actual:      &actual,
			Predicted:   pred,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].SKUID < rows[j].SKUID
	})

	g.log.Info().
		Int("horizon", horizon).
		Int("rows", len(rows)).
		Int("skus_dropped", len(built.Dropped)).
		Msg("forecast generated")
	return rows, nil
}

// GenerateAll runs Generate for every supported horizon and returns
// the concatenated rows.
func (g *Generator) GenerateAll(ctx context.Context, a *artifact.Artifact, obs []contracts.Observation) ([]contracts.ForecastRow, error) {
	var all []contracts.ForecastRow
	for _, h := range contracts.SupportedHorizons {
		rows, err := g.Generate(ctx, a, obs, h)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

// horizonWindows returns, per SKU, the earliest date inside the last
// horizon days of that SKU's feature rows.
func horizonWindows(rows []contracts.FeatureVector, horizon int) map[string]time.Time {
	latest := make(map[string]time.Time)
	for _, fv := range rows {
		if fv.Date.After(latest[fv.SKUID]) {
			latest[fv.SKUID] = fv.Date
		}
	}
	windows := make(map[string]time.Time, len(latest))
	for sku, last := range latest {
		windows[sku] = last.AddDate(0, 0, -(horizon - 1))
	}
	return windows
}
