package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/pipeline"
	"github.com/ennovar/demandcast/internal/store"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
	"github.com/ennovar/demandcast/pkg/logger"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a demand model on the full sales history",
	Long: `Trains a gradient-boosted demand model and saves the artifact
bundle for serving.

This command:
- Loads all daily sales rows from the database
- Engineers lag/rolling/calendar features per SKU
- Splits chronologically into train/validation/test
- Fits with early stopping on validation error
- Saves the artifact bundle atomically

Example:
  go run ./cmd/demandcast train
  go run ./cmd/demandcast train --rounds 500 --artifact-dir artifacts/candidate
  go run ./cmd/demandcast train --window-days 365`,
	RunE: runTrain,
}

var (
	trainRounds      int
	trainWindowDays  int
	trainArtifactDir string
)

func init() {
	rootCmd.AddCommand(trainCmd)

	// Flags
	trainCmd.Flags().IntVar(&trainRounds, "rounds", 0, "boosting rounds (0 = default)")
	trainCmd.Flags().IntVar(&trainWindowDays, "window-days", 0, "train on the trailing N days only (0 = full history)")
	trainCmd.Flags().StringVar(&trainArtifactDir, "artifact-dir", "", "artifact output directory (default from config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast Train ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if trainRounds > 0 {
		cfg.Forecast.Rounds = trainRounds
	}
	if trainWindowDays > 0 {
		cfg.Forecast.TrainingWindowDays = trainWindowDays
	}
	if trainArtifactDir != "" {
		cfg.Forecast.ArtifactDir = trainArtifactDir
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Run the training pipeline
	obsRepo := store.NewObservationRepository(db.Pool)
	artifactStore := artifact.NewStore(cfg.Forecast.ArtifactDir, log.Zerolog())
	trainer := pipeline.NewTrainer(obsRepo, artifactStore, cfg.Forecast, log.Zerolog())

	start := time.Now()
	meta, err := trainer.Run(context.Background())
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	printTrainSummary(meta, cfg.Forecast.ArtifactDir, time.Since(start))
	return nil
}

func printTrainSummary(meta *contracts.TrainingMetadata, dir string, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Training Summary")
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Data      : %s ~ %s\n",
		meta.DataStart.Format("2006-01-02"), meta.DataEnd.Format("2006-01-02"))
	fmt.Printf("  Rows      : train %d / validation %d / test %d\n",
		meta.RowCounts[contracts.SplitTrain],
		meta.RowCounts[contracts.SplitValidation],
		meta.RowCounts[contracts.SplitTest])
	fmt.Printf("  Best round: %d of %d\n", meta.BestIteration, meta.Rounds)
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, split := range []contracts.SplitName{contracts.SplitTrain, contracts.SplitValidation, contracts.SplitTest} {
		m := meta.Metrics[split]
		line := fmt.Sprintf("  %-10s: MAE %.3f  RMSE %.3f  MAPE %.1f%%", split, m.MAE, m.RMSE, m.MAPE)
		if m.R2 != nil {
			line += fmt.Sprintf("  R2 %.3f", *m.R2)
		}
		fmt.Println(line)
	}
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Artifact  : %s\n", dir)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("✅ Training completed in %.2fs\n", elapsed.Seconds())
}
