package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demandcast",
	Short: "Per-SKU demand forecasting for daily retail sales",
	Long: `demandcast Unified CLI

Trains gradient-boosted demand models on per-SKU sales history and
serves forecasts over HTTP.

Usage:
  go run ./cmd/demandcast [command]

Examples:
  go run ./cmd/demandcast train
  go run ./cmd/demandcast predict --category beverages --horizon 7
  go run ./cmd/demandcast api
  go run ./cmd/demandcast scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
