package forecast

import (
	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/contracts"
)

// EvaluationReport breaks accuracy down overall and per horizon.
// Rows without a known actual are excluded from every group.
type EvaluationReport struct {
	Rows      int                       `json:"rows"`
	Overall   contracts.Metrics         `json:"overall"`
	ByHorizon map[int]contracts.Metrics `json:"by_horizon"`
}

// Evaluator compares predictions against known actuals.
type Evaluator struct {
	log zerolog.Logger
}

func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log.With().Str("component", "evaluator").Logger()}
}

// Evaluate computes MAE, RMSE, R2 and MAPE over all scored rows and
// within each horizon present.
func (e *Evaluator) Evaluate(rows []contracts.ForecastRow) EvaluationReport {
	var actual, predicted []float64
	byHorizonActual := make(map[int][]float64)
	byHorizonPred := make(map[int][]float64)

	for _, row := range rows {
		if row.Actual == nil {
			continue
		}
		actual = append(actual, *row.Actual)
		predicted = append(predicted, row.Predicted)
		byHorizonActual[row.Horizon] = append(byHorizonActual[row.Horizon], *row.Actual)
		byHorizonPred[row.Horizon] = append(byHorizonPred[row.Horizon], row.Predicted)
	}

	report := EvaluationReport{
		Rows:      len(actual),
		Overall:   contracts.ComputeMetrics(actual, predicted),
		ByHorizon: make(map[int]contracts.Metrics, len(byHorizonActual)),
	}
	for h, a := range byHorizonActual {
		report.ByHorizon[h] = contracts.ComputeMetrics(a, byHorizonPred[h])
	}

	ev := e.log.Info().
		Int("rows", report.Rows).
		Float64("mae", report.Overall.MAE).
		Float64("rmse", report.Overall.RMSE).
		Float64("mape", report.Overall.MAPE)
	if report.Overall.R2 != nil {
		ev = ev.Float64("r2", *report.Overall.R2)
	}
	ev.Msg("evaluation complete")
	return report
}
