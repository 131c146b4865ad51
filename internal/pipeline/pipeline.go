package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/dataset"
	"github.com/ennovar/demandcast/internal/features"
	"github.com/ennovar/demandcast/internal/training"
	"github.com/ennovar/demandcast/pkg/config"
)

// Trainer runs the full training flow: load history, engineer
// features, split chronologically, fit, persist. The CLI train
// command and the scheduled retrain job both go through here.
type Trainer struct {
	repo  contracts.ObservationRepository
	store *artifact.Store
	cfg   config.ForecastConfig
	log   zerolog.Logger
}

func NewTrainer(repo contracts.ObservationRepository, store *artifact.Store, cfg config.ForecastConfig, log zerolog.Logger) *Trainer {
	return &Trainer{
		repo:  repo,
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "training_pipeline").Logger(),
	}
}

// Run trains a fresh model and swaps it into the artifact store. The
// metadata of the new artifact is returned. History is loaded in full
// unless the config bounds it to a trailing window.
func (p *Trainer) Run(ctx context.Context) (*contracts.TrainingMetadata, error) {
	obs, err := p.loadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations in store")
	}
	p.log.Info().Int("observations", len(obs)).Msg("history loaded")

	engineer := features.NewEngineer(p.log)
	built, err := engineer.Build(ctx, obs, nil)
	if err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}
	for _, dropped := range built.Dropped {
		p.log.Warn().
			Str("sku_id", dropped.SKUID).
			Int("rows", dropped.Rows).
			Int("required", dropped.Required).
			Msg("sku dropped for insufficient history")
	}

	maxDate, err := p.repo.LatestDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest date: %w", err)
	}
	cutoffs := dataset.CutoffsFromRange(maxDate, p.cfg.ValidationDays, p.cfg.TestDays)
	ds, err := dataset.NewSplitter(p.log).Split(built.Rows, cutoffs)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	trainCfg := training.DefaultTrainerConfig()
	if p.cfg.Rounds > 0 {
		trainCfg.Rounds = p.cfg.Rounds
	}
	if p.cfg.EarlyStopping > 0 {
		trainCfg.EarlyStopping = p.cfg.EarlyStopping
	}
	if p.cfg.Seed != 0 {
		trainCfg.Seed = p.cfg.Seed
	}
	result, err := training.NewTrainer(trainCfg, p.log).Train(ctx, ds, built.Schema)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	if err := p.store.Save(&artifact.Artifact{
		Model:     result.Model,
		Schema:    built.Schema,
		Encoders:  *built.Encoders,
		Transform: result.Transform,
		Metadata:  result.Metadata,
	}); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	return &result.Metadata, nil
}

// loadHistory fetches the training rows, trimmed to the configured
// trailing window when one is set.
func (p *Trainer) loadHistory(ctx context.Context) ([]contracts.Observation, error) {
	if p.cfg.TrainingWindowDays <= 0 {
		return p.repo.GetAll(ctx)
	}
	latest, err := p.repo.LatestDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve latest date: %w", err)
	}
	from := latest.AddDate(0, 0, -(p.cfg.TrainingWindowDays - 1))
	p.log.Info().
		Time("from", from).
		Time("to", latest).
		Int("window_days", p.cfg.TrainingWindowDays).
		Msg("training on trailing window")
	return p.repo.GetByDateRange(ctx, from, latest)
}
