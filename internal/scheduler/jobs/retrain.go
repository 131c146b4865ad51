package jobs

import (
	"context"
	"fmt"

	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/pipeline"
	"github.com/ennovar/demandcast/pkg/logger"
)

// RetrainJob retrains the demand model on the full sales history and
// swaps the artifact bundle. Default schedule is Sunday 2 AM, after
// the week's sales have landed.
type RetrainJob struct {
	pipeline *pipeline.Trainer
	schedule string
	logger   *logger.Logger

	// onComplete runs after a successful swap, e.g. to drop the API
	// server's cached artifact.
	onComplete func()
}

// NewRetrainJob creates a new retrain job. onComplete may be nil.
func NewRetrainJob(p *pipeline.Trainer, schedule string, log *logger.Logger, onComplete func()) *RetrainJob {
	return &RetrainJob{
		pipeline:   p,
		schedule:   schedule,
		logger:     log,
		onComplete: onComplete,
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "model_retrain"
}

// Schedule returns the cron schedule expression
func (j *RetrainJob) Schedule() string {
	return j.schedule
}

// Run executes one retraining cycle
func (j *RetrainJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled model retraining")

	meta, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("retrain model: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"best_iteration": meta.BestIteration,
		"data_end":       meta.DataEnd.Format("2006-01-02"),
		"test_mae":       meta.Metrics[contracts.SplitTest].MAE,
	}).Info("Model retrained and artifact swapped")

	if j.onComplete != nil {
		j.onComplete()
	}
	return nil
}
