package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "Check sales data readiness",
	Long: `Checks the state of each database table the pipeline reads.

Checked:
- Product catalog counts
- Daily sales row counts and date coverage
- SKUs with enough history to train on

Example:
  go run ./cmd/demandcast data-check`,
	RunE: runDataCheck,
}

func init() {
	rootCmd.AddCommand(dataCheckCmd)
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast Data Check ===")
	fmt.Println()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	checkProducts(ctx, db.Pool)
	checkSales(ctx, db.Pool)
	checkTrainability(ctx, db.Pool)

	return nil
}

func checkProducts(ctx context.Context, pool *pgxpool.Pool) {
	fmt.Println("📋 Product catalog (sales.products)")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	var total, categories int
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT category)
		FROM sales.products
	`).Scan(&total, &categories)
	if err != nil {
		fmt.Printf("  ❌ query failed: %v\n\n", err)
		return
	}

	fmt.Printf("  Products    : %d\n", total)
	fmt.Printf("  Categories  : %d\n\n", categories)
}

func checkSales(ctx context.Context, pool *pgxpool.Pool) {
	fmt.Println("🧾 Daily sales (sales.daily_sales)")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	var rows, skus int
	var first, last *time.Time
	err := pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT sku_id), MIN(sale_date), MAX(sale_date)
		FROM sales.daily_sales
	`).Scan(&rows, &skus, &first, &last)
	if err != nil {
		fmt.Printf("  ❌ query failed: %v\n\n", err)
		return
	}

	fmt.Printf("  Rows        : %d\n", rows)
	fmt.Printf("  SKUs        : %d\n", skus)
	if first != nil && last != nil {
		fmt.Printf("  Coverage    : %s ~ %s\n",
			first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	fmt.Println()
}

func checkTrainability(ctx context.Context, pool *pgxpool.Pool) {
	fmt.Println("📈 Training readiness")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// 84 days covers the longest lag feature; shorter series are
	// dropped at feature construction.
	var trainable, tooShort int
	err := pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE cnt > 84),
			COUNT(*) FILTER (WHERE cnt <= 84)
		FROM (
			SELECT sku_id, COUNT(*) AS cnt
			FROM sales.daily_sales
			GROUP BY sku_id
		) per_sku
	`).Scan(&trainable, &tooShort)
	if err != nil {
		fmt.Printf("  ❌ query failed: %v\n\n", err)
		return
	}

	fmt.Printf("  Trainable SKUs      : %d\n", trainable)
	fmt.Printf("  Insufficient history: %d\n", tooShort)
	if trainable == 0 {
		fmt.Println("  ⚠️  No SKU has enough history to train a model")
	} else {
		fmt.Println("  ✅ Ready to train")
	}
	fmt.Println()
}
