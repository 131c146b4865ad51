package training

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/contracts"
)

// ModelType identifies the regressor family stored in artifacts.
const ModelType = "gbdt-regressor"

// TrainerConfig holds the boosting hyperparameters. Zero values are
// replaced by defaults tuned for daily demand series.
type TrainerConfig struct {
	Rounds         int
	EarlyStopping  int
	MaxDepth       int
	MinChildWeight float64
	Subsample      float64
	Colsample      float64
	LearningRate   float64
	Alpha          float64
	Lambda         float64
	MaxBins        int
	Seed           int64
}

// DefaultTrainerConfig returns the production hyperparameters.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Rounds:         2000,
		EarlyStopping:  100,
		MaxDepth:       4,
		MinChildWeight: 5,
		Subsample:      0.8,
		Colsample:      0.8,
		LearningRate:   0.05,
		Alpha:          1.0,
		Lambda:         5.0,
		MaxBins:        32,
		Seed:           42,
	}
}

func (c TrainerConfig) withDefaults() TrainerConfig {
	d := DefaultTrainerConfig()
	if c.Rounds <= 0 {
		c.Rounds = d.Rounds
	}
	if c.EarlyStopping <= 0 {
		c.EarlyStopping = d.EarlyStopping
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MinChildWeight <= 0 {
		c.MinChildWeight = d.MinChildWeight
	}
	if c.Subsample <= 0 || c.Subsample > 1 {
		c.Subsample = d.Subsample
	}
	if c.Colsample <= 0 || c.Colsample > 1 {
		c.Colsample = d.Colsample
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Alpha <= 0 {
		c.Alpha = d.Alpha
	}
	if c.Lambda <= 0 {
		c.Lambda = d.Lambda
	}
	if c.MaxBins < 2 || c.MaxBins > 256 {
		c.MaxBins = d.MaxBins
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	return c
}

// TrainResult bundles the fitted model with everything the artifact
// layer needs to persist alongside it.
type TrainResult struct {
	Model     *Ensemble
	Transform contracts.TargetTransform
	Metadata  contracts.TrainingMetadata
}

// Trainer fits a gradient-boosted ensemble on an engineered dataset.
type Trainer struct {
	cfg TrainerConfig
	log zerolog.Logger
}

func NewTrainer(cfg TrainerConfig, log zerolog.Logger) *Trainer {
	return &Trainer{
		cfg: cfg.withDefaults(),
		log: log.With().Str("component", "trainer").Logger(),
	}
}

// Train fits the model on the train split with early stopping on
// validation MAE, then reports metrics on all three splits in
// original (untransformed) space.
func (t *Trainer) Train(ctx context.Context, ds *contracts.TrainingDataset, schema contracts.FeatureSchema) (*TrainResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	transform := contracts.TargetTransform{Kind: contracts.TransformLog1p}

	trainX, trainY := matrix(ds.Train, transform)
	valX, valY := matrix(ds.Validation, transform)

	start := time.Now()
	counts := ds.Counts()
	t.log.Info().
		Int("train_rows", counts[contracts.SplitTrain]).
		Int("validation_rows", counts[contracts.SplitValidation]).
		Int("test_rows", counts[contracts.SplitTest]).
		Int("features", len(schema.Columns)).
		Int("rounds", t.cfg.Rounds).
		Msg("training started")

	ens := &Ensemble{
		BaseScore:   mean(trainY),
		NumFeatures: len(schema.Columns),
	}

	g := newGrower(t.cfg, trainX)

	trainPred := make([]float64, len(trainY))
	for i := range trainPred {
		trainPred[i] = ens.BaseScore
	}
	valPred := make([]float64, len(valY))
	for i := range valPred {
		valPred[i] = ens.BaseScore
	}

	grad := make([]float64, len(trainY))
	hess := make([]float64, len(trainY))
	for i := range hess {
		hess[i] = 1
	}

	bestRound := 0
	bestMAE := maeOf(valPred, valY)

	for round := 0; round < t.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training canceled at round %d: %w", round, err)
		}

		// Squared-error gradients on the transformed target
		for i := range grad {
			grad[i] = trainPred[i] - trainY[i]
		}

		tree := g.grow(grad, hess)
		ens.Trees = append(ens.Trees, tree)

		for i, row := range trainX {
			trainPred[i] += tree.Predict(row)
		}
		for i, row := range valX {
			valPred[i] += tree.Predict(row)
		}

		valMAE := maeOf(valPred, valY)
		if valMAE < bestMAE {
			bestMAE = valMAE
			bestRound = round + 1
		} else if round+1-bestRound >= t.cfg.EarlyStopping {
			t.log.Debug().
				Int("round", round+1).
				Int("best_round", bestRound).
				Float64("best_val_mae", bestMAE).
				Msg("early stopping triggered")
			break
		}
	}

	if bestRound == 0 {
		t.log.Warn().
			Float64("base_val_mae", bestMAE).
			Msg("no boosting round improved validation error, keeping base score only")
	}
	ens.Trees = ens.Trees[:bestRound]

	metrics := map[contracts.SplitName]contracts.Metrics{
		contracts.SplitTrain:      t.evaluate(ens, ds.Train, transform),
		contracts.SplitValidation: t.evaluate(ens, ds.Validation, transform),
		contracts.SplitTest:       t.evaluate(ens, ds.Test, transform),
	}

	dataStart, dataEnd := ds.DateRange()
	meta := contracts.TrainingMetadata{
		ModelType:         ModelType,
		TrainedAt:         time.Now().UTC(),
		BestIteration:     bestRound,
		Rounds:            t.cfg.Rounds,
		DataStart:         dataStart,
		DataEnd:           dataEnd,
		RowCounts:         counts,
		Metrics:           metrics,
		FeatureImportance: g.importance(schema, bestRound),
	}

	testM := metrics[contracts.SplitTest]
	ev := t.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("best_iteration", bestRound).
		Float64("test_mae", testM.MAE).
		Float64("test_rmse", testM.RMSE).
		Float64("test_mape", testM.MAPE)
	if testM.R2 != nil {
		ev = ev.Float64("test_r2", *testM.R2)
	}
	ev.Msg("training complete")

	return &TrainResult{Model: ens, Transform: transform, Metadata: meta}, nil
}

// evaluate scores a split in original space, clamping negative
// predictions to zero since demand cannot go below it.
func (t *Trainer) evaluate(ens *Ensemble, rows []contracts.FeatureVector, transform contracts.TargetTransform) contracts.Metrics {
	actual := make([]float64, len(rows))
	predicted := make([]float64, len(rows))
	for i, row := range rows {
		actual[i] = row.Target
		p, _ := ens.Predict(row.Values)
		p = transform.Invert(p)
		if p < 0 {
			p = 0
		}
		predicted[i] = p
	}
	return contracts.ComputeMetrics(actual, predicted)
}

// importance maps split gains back to column names, normalized to
// sum to one. Only the first rounds trees contribute, so gains from
// rounds discarded by early-stopping truncation are excluded.
func (g *grower) importance(schema contracts.FeatureSchema, rounds int) map[string]float64 {
	if rounds > len(g.roundGains) {
		rounds = len(g.roundGains)
	}
	sums := make([]float64, g.numCols)
	var total float64
	for _, gains := range g.roundGains[:rounds] {
		for i, v := range gains {
			sums[i] += v
			total += v
		}
	}
	if total <= 0 {
		return nil
	}
	out := make(map[string]float64)
	for i, v := range sums {
		if v > 0 && i < len(schema.Columns) {
			out[schema.Columns[i]] = v / total
		}
	}
	return out
}

func matrix(rows []contracts.FeatureVector, transform contracts.TargetTransform) ([][]float64, []float64) {
	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = row.Values
		y[i] = transform.Apply(row.Target)
	}
	return x, y
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func maeOf(pred, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(pred[i] - actual[i])
	}
	return sum / float64(len(actual))
}
