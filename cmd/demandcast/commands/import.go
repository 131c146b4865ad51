package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/contracts"
	"github.com/ennovar/demandcast/internal/store"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
	"github.com/ennovar/demandcast/pkg/logger"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import daily sales rows from a CSV file",
	Long: `Upserts daily sales rows into the database, keyed by (sku_id, date).
Re-importing a file overwrites quantity, price and promo flag for
rows that already exist.

The CSV must carry a header with these columns:
  sku_id, date, quantity, unit_price, promo_flag, category, sub_category, product_type

Example:
  go run ./cmd/demandcast import --file sales.csv`,
	RunE: runImport,
}

var importFile string

func init() {
	rootCmd.AddCommand(importCmd)

	// Flags
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file to import (required)")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast Import ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Parse the CSV
	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	obs, err := parseSalesCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", importFile, err)
	}
	if len(obs) == 0 {
		return fmt.Errorf("%s holds no sales rows", importFile)
	}

	// 4. Upsert into the database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	start := time.Now()
	obsRepo := store.NewObservationRepository(db.Pool)
	if err := obsRepo.SaveAll(context.Background(), obs); err != nil {
		return fmt.Errorf("import rows: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"rows": len(obs),
		"file": importFile,
	}).Info("Sales rows imported")
	fmt.Printf("\n✅ %d rows imported in %.2fs\n", len(obs), time.Since(start).Seconds())
	return nil
}

// parseSalesCSV reads header-addressed sales rows. Column order in
// the file does not matter, unknown columns are ignored.
func parseSalesCSV(r io.Reader) ([]contracts.Observation, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"sku_id", "date", "quantity"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		if i, ok := col[name]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var obs []contracts.Observation
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse("2006-01-02", field(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", line, err)
		}
		quantity, err := strconv.ParseFloat(field(record, "quantity"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse quantity: %w", line, err)
		}

		o := contracts.Observation{
			SKUID:       field(record, "sku_id"),
			Date:        date,
			Quantity:    quantity,
			Category:    field(record, "category"),
			SubCategory: field(record, "sub_category"),
			ProductType: field(record, "product_type"),
		}
		if v := field(record, "unit_price"); v != "" {
			if o.UnitPrice, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("line %d: parse unit_price: %w", line, err)
			}
		}
		if v := field(record, "promo_flag"); v != "" {
			if o.PromoFlag, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("line %d: parse promo_flag: %w", line, err)
			}
		}
		obs = append(obs, o)
	}
	return obs, nil
}
