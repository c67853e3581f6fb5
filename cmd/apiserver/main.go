// Command apiserver exposes a read-only HTTP view over the corpus and the
// run-report/mapping-stats history that cmd/culturemech and the gRPC
// ingestion path produce. It never writes to the layer store itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/culturemech/culturemech/internal/config"
	culturemechhttp "github.com/culturemech/culturemech/internal/interfaces/http"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/reports"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/internal/telemetry/metrics"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "apiserver:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logger.Info("apiserver starting",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
	)

	store, err := layerstore.NewStore(cfg.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("layer store initialization failed: %w", err)
	}

	reportStore := reports.New(20)
	metricsRegistry := metrics.NewRegistry()

	router := culturemechhttp.NewRouter(culturemechhttp.RouterConfig{
		Store:   store,
		Reports: reportStore,
		Metrics: metricsRegistry,
		Logger:  logger,
	})

	server := culturemechhttp.NewServer(cfg.Server, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CULTUREMECH_CONFIG"); path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("./culturemech.yaml"); err == nil {
		return config.Load("./culturemech.yaml")
	}
	return config.LoadFromEnv()
}
