package training

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennovar/demandcast/internal/contracts"
)

func testSchema() contracts.FeatureSchema {
	return contracts.FeatureSchema{Columns: []string{"lag_7", "dow", "promo_flag"}}
}

// seasonalDataset builds a dataset whose target is a deterministic
// function of the features, so the model has a real signal to find.
func seasonalDataset(days int) *contracts.TrainingDataset {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows []contracts.FeatureVector

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		dow := float64(int(date.Weekday()))
		promo := 0.0
		if i%11 == 0 {
			promo = 1
		}
		lag := 20 + 10*math.Sin(2*math.Pi*float64(i)/7)
		target := 20 + 10*math.Sin(2*math.Pi*float64(i)/7) + 6*promo + dow

		rows = append(rows, contracts.FeatureVector{
			SKUID:  "SKU-001",
			Date:   date,
			Target: target,
			Values: []float64{lag, dow, promo},
		})
	}

	n := len(rows)
	return &contracts.TrainingDataset{
		Train:      rows[:n-44],
		Validation: rows[n-44 : n-30],
		Test:       rows[n-30:],
	}
}

func fastConfig() TrainerConfig {
	cfg := DefaultTrainerConfig()
	cfg.Rounds = 200
	cfg.EarlyStopping = 30
	return cfg
}

func TestTrainer_LearnsSeasonalSignal(t *testing.T) {
	ds := seasonalDataset(400)
	trainer := NewTrainer(fastConfig(), zerolog.Nop())

	result, err := trainer.Train(context.Background(), ds, testSchema())
	require.NoError(t, err)
	require.NotNil(t, result.Model)

	testM := result.Metadata.Metrics[contracts.SplitTest]
	require.NotNil(t, testM.R2)
	assert.Greater(t, *testM.R2, 0.5, "model should explain most of the seasonal variance")
	assert.Less(t, testM.MAE, 5.0)
}

func TestTrainer_KeepsBestRoundOnly(t *testing.T) {
	ds := seasonalDataset(300)
	trainer := NewTrainer(fastConfig(), zerolog.Nop())

	result, err := trainer.Train(context.Background(), ds, testSchema())
	require.NoError(t, err)

	assert.Equal(t, result.Metadata.BestIteration, len(result.Model.Trees),
		"ensemble must be truncated to the best validation round")
	assert.LessOrEqual(t, len(result.Model.Trees), fastConfig().Rounds)
}

func TestTrainer_ImportanceExcludesTruncatedRounds(t *testing.T) {
	ds := seasonalDataset(400)

	// Mirror the validation targets around the transformed train mean.
	// Every boosting round then moves validation predictions away from
	// their targets, so no round improves, every grown tree is
	// discarded, and their split gains must not surface as importance.
	var base float64
	for _, row := range ds.Train {
		base += math.Log1p(row.Target)
	}
	base /= float64(len(ds.Train))
	for i := range ds.Validation {
		ds.Validation[i].Target = math.Expm1(2*base - math.Log1p(ds.Validation[i].Target))
	}

	result, err := NewTrainer(fastConfig(), zerolog.Nop()).Train(context.Background(), ds, testSchema())
	require.NoError(t, err)

	assert.Zero(t, result.Metadata.BestIteration)
	assert.Empty(t, result.Model.Trees)
	assert.Nil(t, result.Metadata.FeatureImportance,
		"discarded rounds must not contribute split gains")
}

func TestTrainer_Deterministic(t *testing.T) {
	ds := seasonalDataset(250)
	schema := testSchema()

	a, err := NewTrainer(fastConfig(), zerolog.Nop()).Train(context.Background(), ds, schema)
	require.NoError(t, err)
	b, err := NewTrainer(fastConfig(), zerolog.Nop()).Train(context.Background(), ds, schema)
	require.NoError(t, err)

	require.Equal(t, len(a.Model.Trees), len(b.Model.Trees))
	for _, row := range ds.Test {
		pa, err := a.Model.Predict(row.Values)
		require.NoError(t, err)
		pb, err := b.Model.Predict(row.Values)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestTrainer_EmptySplit(t *testing.T) {
	ds := seasonalDataset(300)
	ds.Validation = nil

	_, err := NewTrainer(fastConfig(), zerolog.Nop()).Train(context.Background(), ds, testSchema())
	require.Error(t, err)

	var emptyErr *contracts.TrainingDataEmptyError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, contracts.SplitValidation, emptyErr.Split)
}

func TestTrainer_CanceledContext(t *testing.T) {
	ds := seasonalDataset(300)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrainer(fastConfig(), zerolog.Nop()).Train(ctx, ds, testSchema())
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrainerConfig_Defaults(t *testing.T) {
	cfg := TrainerConfig{}.withDefaults()
	assert.Equal(t, DefaultTrainerConfig(), cfg)

	custom := TrainerConfig{Rounds: 50, Seed: 7}.withDefaults()
	assert.Equal(t, 50, custom.Rounds)
	assert.Equal(t, int64(7), custom.Seed)
	assert.Equal(t, 4, custom.MaxDepth)
}

func TestEnsemble_PredictDimensionMismatch(t *testing.T) {
	ens := &Ensemble{BaseScore: 1, NumFeatures: 3}
	_, err := ens.Predict([]float64{1, 2})
	require.Error(t, err)
}

func TestTree_Predict(t *testing.T) {
	tree := Tree{Nodes: []Node{
		{Feature: 0, Threshold: 5, Left: 1, Right: 2},
		{Leaf: true, Value: -1},
		{Leaf: true, Value: 2},
	}}

	assert.Equal(t, -1.0, tree.Predict([]float64{4}))
	assert.Equal(t, -1.0, tree.Predict([]float64{5}), "boundary routes left")
	assert.Equal(t, 2.0, tree.Predict([]float64{6}))
}
