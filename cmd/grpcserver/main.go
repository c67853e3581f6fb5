// Command grpcserver exposes the CultureMechCore ingestion contract so
// external fetchers can submit Layer 3 records and poll run history without
// shelling out to cmd/culturemech. It writes to the normalized_yaml layer
// but never touches raw/raw_yaml/merge_yaml directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/culturemech/culturemech/internal/config"
	culturemechgrpc "github.com/culturemech/culturemech/internal/interfaces/grpc"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/reports"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "grpcserver:", err)
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
	logger.Info("grpcserver starting",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
	)

	store, err := layerstore.NewStore(cfg.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("layer store initialization failed: %w", err)
	}
	reportStore := reports.New(20)

	srv, err := culturemechgrpc.NewServer(&cfg.GRPC, culturemechgrpc.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("grpc server initialization failed: %w", err)
	}

	service := culturemechgrpc.NewCultureMechService(store, reportStore, logger)
	srv.RegisterService(&culturemechgrpc.CultureMechCore_ServiceDesc, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		return srv.Stop(context.Background())
	case err := <-errCh:
		return fmt.Errorf("grpc server exited: %w", err)
	}
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
