package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ennovar/demandcast/internal/api"
	"github.com/ennovar/demandcast/internal/api/handlers"
	"github.com/ennovar/demandcast/internal/artifact"
	"github.com/ennovar/demandcast/internal/features"
	"github.com/ennovar/demandcast/internal/forecast"
	"github.com/ennovar/demandcast/internal/store"
	"github.com/ennovar/demandcast/pkg/config"
	"github.com/ennovar/demandcast/pkg/database"
	"github.com/ennovar/demandcast/pkg/logger"
	"github.com/ennovar/demandcast/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the forecast API server",
	Long: `Starts the REST API server.

This command:
- Starts the HTTP API server
- Serves model status and on-demand forecasts
- Caches responses in Redis when enabled

Endpoints:
  GET  /health                   - Health check
  GET  /api/forecast/status      - Trained model availability
  POST /api/forecast/predict     - Generate forecasts
  GET  /api/products/{category}  - List products in a category

Example:
  go run ./cmd/demandcast api
  go run ./cmd/demandcast api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "8080", "API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandcast API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional)
	var cache *redis.Cache
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, serving without cache")
	} else if redisClient.Enabled() {
		defer redisClient.Close()
		cache = redis.NewCache(redisClient, "demandcast")
		log.Info("Connected to Redis")
	}

	// 5. Create repositories
	obsRepo := store.NewObservationRepository(db.Pool)
	productRepo := store.NewProductRepository(db.Pool)

	// 6. Create forecast components
	artifactStore := artifact.NewStore(cfg.Forecast.ArtifactDir, log.Zerolog())
	generator := forecast.NewGenerator(features.NewEngineer(log.Zerolog()), log.Zerolog())
	evaluator := forecast.NewEvaluator(log.Zerolog())

	// 7. Create handler
	forecastHandler := handlers.NewForecastHandler(
		artifactStore, generator, evaluator, obsRepo, productRepo, cache, log)

	// 8. Create router
	router := api.NewRouter(forecastHandler, log)

	// 9. Create server
	server := api.New(cfg, log, router)

	// 10. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/forecast/status")
	fmt.Println("  POST /api/forecast/predict")
	fmt.Println("  GET  /api/products/{category}")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
