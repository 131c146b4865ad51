package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/features"
	"github.com/ennovar/demandcast/internal/forecast"
	"github.com/ennovar/demandcast/internal/store"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
	"github.com/ennovar/demandcast/pkg/logger"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Generate demand forecasts with the trained model",
	Long: `Scores recent sales history with the saved artifact and writes
the forecasts to a CSV file.

This command:
- Loads the artifact bundle
- Rebuilds features with the artifact's encoders
- Predicts the last N days per SKU for each requested horizon
- Writes one row per (sku, date) with actual and predicted demand

Example:
  go run ./cmd/demandcast predict --horizon 7
  go run ./cmd/demandcast predict --category beverages --output forecasts.csv`,
	RunE: runPredict,
}

var (
	predictHorizon  int
	predictCategory string
	predictProduct  string
	predictSKU      string
	predictOutput   string
)

func init() {
	rootCmd.AddCommand(predictCmd)

	// Flags
	predictCmd.Flags().IntVar(&predictHorizon, "horizon", 0, "forecast horizon in days (0 = all supported)")
	predictCmd.Flags().StringVar(&predictCategory, "category", "", "restrict to one category")
	predictCmd.Flags().StringVar(&predictProduct, "product", "", "restrict to one product name within the category")
	predictCmd.Flags().StringVar(&predictSKU, "sku", "", "restrict to one SKU")
	predictCmd.Flags().StringVar(&predictOutput, "output", "forecasts.csv", "output CSV path")
}

func runPredict(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast Predict ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load the artifact
	artifactStore := artifact.NewStore(cfg.Forecast.ArtifactDir, log.Zerolog())
	a, err := artifactStore.Load()
	if err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}
	fmt.Printf("Model trained at %s (best round %d)\n",
		a.Metadata.TrainedAt.Format("2006-01-02 15:04"), a.Metadata.BestIteration)

	// 4. Load observations
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	obs, err := loadObservations(ctx, db)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("no observations match the filter")
	}

	// 5. Generate forecasts
	generator := forecast.NewGenerator(features.NewEngineer(log.Zerolog()), log.Zerolog())

	var rows []contracts.ForecastRow
	if predictHorizon > 0 {
		rows, err = generator.Generate(ctx, a, obs, predictHorizon)
	} else {
		rows, err = generator.GenerateAll(ctx, a, obs)
	}
	if err != nil {
		return fmt.Errorf("generate forecasts: %w", err)
	}

	// 6. Write CSV and report accuracy
	if err := writeForecastCSV(predictOutput, rows); err != nil {
		return err
	}
	printEvaluation(forecast.NewEvaluator(log.Zerolog()).Evaluate(rows))

	fmt.Printf("\n✅ %d forecasts written to %s\n", len(rows), predictOutput)
	return nil
}

func loadObservations(ctx context.Context, db *database.DB) ([]contracts.Observation, error) {
	obsRepo := store.NewObservationRepository(db.Pool)

	if predictSKU != "" {
		return obsRepo.GetBySKUs(ctx, []string{predictSKU})
	}
	if predictCategory != "" {
		productRepo := store.NewProductRepository(db.Pool)
		var (
			products []contracts.Product
			err      error
		)
		if predictProduct != "" {
			products, err = productRepo.GetByName(ctx, predictCategory, predictProduct)
		} else {
			products, err = productRepo.GetByCategory(ctx, predictCategory)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		skuIDs := make([]string, 0, len(products))
		for _, p := range products {
			skuIDs = append(skuIDs, p.SKUID)
		}
		return obsRepo.GetBySKUs(ctx, skuIDs)
	}
	return obsRepo.GetAll(ctx)
}

func writeForecastCSV(path string, rows []contracts.ForecastRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"date", "sku_id", "product_type", "category", "forecast_horizon", "actual_quantity", "predicted_quantity"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		actual := ""
		if row.Actual != nil {
			actual = strconv.FormatFloat(*row.Actual, 'f', 2, 64)
		}
		record := []string{
			row.Date.Format("2006-01-02"),
			row.SKUID,
			row.ProductType,
			row.Category,
			strconv.Itoa(row.Horizon),
			actual,
			strconv.FormatFloat(row.Predicted, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

func printEvaluation(report forecast.EvaluationReport) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Forecast Accuracy")
	fmt.Println("───────────────────────────────────────────────────────────")
	printMetricsLine("overall", report.Overall)
	for _, h := range contracts.SupportedHorizons {
		if m, ok := report.ByHorizon[h]; ok {
			printMetricsLine(fmt.Sprintf("%d-day", h), m)
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}

func printMetricsLine(label string, m contracts.Metrics) {
	line := fmt.Sprintf("  %-8s: MAE %.3f  RMSE %.3f  MAPE %.1f%%", label, m.MAE, m.RMSE, m.MAPE)
	if m.R2 != nil {
		line += fmt.Sprintf("  R2 %.3f", *m.R2)
	}
	fmt.Println(line)
}
