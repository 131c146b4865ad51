package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/training"
)

func sampleArtifact() *Artifact {
	return &Artifact{
		Model: &training.Ensemble{
			BaseScore:   2.5,
			NumFeatures: 2,
			Trees: []training.Tree{{Nodes: []training.Node{
				{Feature: 0, Threshold: 1.5, Left: 1, Right: 2},
				{Leaf: true, Value: -0.1},
				{Leaf: true, Value: 0.3},
			}}},
		},
		Schema: contracts.FeatureSchema{Columns: []string{"lag_7", "dow"}},
		Encoders: contracts.EncoderSet{Columns: map[string]map[string]int{
			"category": {"beverages": 0, "snacks": 1},
		}},
		Transform: contracts.TargetTransform{Kind: contracts.TransformLog1p},
		Metadata: contracts.TrainingMetadata{
			ModelType:     training.ModelType,
			TrainedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			BestIteration: 1,
			Rounds:        10,
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	store := NewStore(dir, zerolog.Nop())

	original := sampleArtifact()
	require.NoError(t, store.Save(original))
	require.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, original.Schema, loaded.Schema)
	assert.Equal(t, original.Encoders, loaded.Encoders)
	assert.Equal(t, original.Transform, loaded.Transform)
	assert.Equal(t, original.Metadata.TrainedAt, loaded.Metadata.TrainedAt)

	for _, values := range [][]float64{{1, 0}, {2, 3}, {1.5, -1}} {
		want, err := original.Model.Predict(values)
		require.NoError(t, err)
		got, err := loaded.Model.Predict(values)
		require.NoError(t, err)
		assert.Equal(t, want, got, "loaded model must predict identically")
	}
}

func TestStore_LoadMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	require.False(t, store.Exists())

	_, err := store.Load()
	var missing *contracts.MissingModelError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, store.Dir(), missing.Dir)
}

func TestStore_LoadUnsupportedVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	store := NewStore(dir, zerolog.Nop())
	require.NoError(t, store.Save(sampleArtifact()))

	data, err := json.Marshal(manifest{FormatVersion: FormatVersion + 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644))

	_, err = store.Load()
	var incompatible *contracts.IncompatibleArtifactError
	require.True(t, errors.As(err, &incompatible))
	assert.Equal(t, FormatVersion+1, incompatible.Version)
	assert.Equal(t, FormatVersion, incompatible.Supported)
}

func TestStore_LoadMissingComponent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	store := NewStore(dir, zerolog.Nop())
	require.NoError(t, store.Save(sampleArtifact()))
	require.NoError(t, os.Remove(filepath.Join(dir, encodersFile)))

	_, err := store.Load()
	var incompatible *contracts.IncompatibleArtifactError
	require.True(t, errors.As(err, &incompatible))
	assert.Contains(t, incompatible.Reason, encodersFile)
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	store := NewStore(dir, zerolog.Nop())

	first := sampleArtifact()
	require.NoError(t, store.Save(first))

	second := sampleArtifact()
	second.Model.BaseScore = 9.9
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 9.9, loaded.Model.BaseScore)

	// No staging leftovers next to the bundle
	entries, err := os.ReadDir(filepath.Dir(dir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(dir), entries[0].Name())
}

func TestStore_SaveRejectsNilModel(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "model"), zerolog.Nop())
	require.Error(t, store.Save(&Artifact{}))
}

func TestArtifact_Status(t *testing.T) {
	a := sampleArtifact()
	status := a.Status()
	assert.True(t, status.Available)
	assert.Equal(t, training.ModelType, status.ModelType)
	assert.Equal(t, a.Metadata.TrainedAt, status.TrainedAt)
}
