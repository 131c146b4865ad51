package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the trained model status",
	Long: `Prints the saved artifact's metadata: when it was trained, on
what data, how accurate it is, and which features matter.

Example:
  go run ./cmd/demandcast status
  go run ./cmd/demandcast status --top-features 20`,
	RunE: runStatus,
}

var (
	statusTopFeatures int
)

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().IntVar(&statusTopFeatures, "top-features", 10, "number of top features to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a, err := artifact.NewStore(cfg.Forecast.ArtifactDir, log.Zerolog()).Load()
	if err != nil {
		var missing *contracts.MissingModelError
		if errors.As(err, &missing) {
			fmt.Printf("No trained model at %s. Run 'demandcast train' first.\n", missing.Dir)
			return nil
		}
		return fmt.Errorf("load artifact: %w", err)
	}

	meta := a.Metadata
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Model Status")
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Model     : %s\n", meta.ModelType)
	fmt.Printf("  Trained   : %s\n", meta.TrainedAt.Format("2006-01-02 15:04 MST"))
	fmt.Printf("  Data      : %s ~ %s\n",
		meta.DataStart.Format("2006-01-02"), meta.DataEnd.Format("2006-01-02"))
	fmt.Printf("  Best round: %d of %d\n", meta.BestIteration, meta.Rounds)
	fmt.Printf("  Features  : %d\n", len(a.Schema.Columns))
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, split := range []contracts.SplitName{contracts.SplitTrain, contracts.SplitValidation, contracts.SplitTest} {
		printMetricsLine(string(split), meta.Metrics[split])
	}

	if len(meta.FeatureImportance) > 0 {
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Println("  Top features by split gain:")
		for _, fi := range topFeatures(meta.FeatureImportance, statusTopFeatures) {
			fmt.Printf("  %-24s %5.1f%%\n", fi.name, fi.share*100)
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	return nil
}

type featureShare struct {
	name  string
	share float64
}

func topFeatures(importance map[string]float64, n int) []featureShare {
	all := make([]featureShare, 0, len(importance))
	for name, share := range importance {
		all = append(all, featureShare{name: name, share: share})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].share != all[j].share {
			return all[i].share > all[j].share
		}
		return all[i].name < all[j].name
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}
