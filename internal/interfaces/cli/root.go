// Package cli implements the culturemech command-line tool: one subcommand
// per batch operation (import, convert, repair, resolve-composition,
// tag-quality, map, merge, validate, curate), each mutating one exposing
// --dry-run (validate writes nothing and has no such flag), each printing a stats.RunReport at exit and setting the
// process exit code from it per spec.md's exit-code contract.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/stats"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/internal/telemetry/metrics"
	"github.com/culturemech/culturemech/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
	CuratorID  string
}

// CLIContext carries the dependencies every subcommand needs, built once in
// PersistentPreRunE and threaded through cmd.Context().
type CLIContext struct {
	Config  *config.Config
	Logger  logging.Logger
	Store   *layerstore.Store
	Metrics *metrics.Registry
	Output  string
	Curator string
}

// NewRootCommand builds the root cobra command, registering global flags
// and every batch subcommand.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "culturemech",
		Short:   "CultureMech pipeline CLI — growth-media recipe curation and ontology mapping",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (falls back to CULTUREMECH_* env vars)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "report format (text, json)")
	pf.StringVar(&opts.CuratorID, "curator", "cli", "curator id attributed to curation events this run produces")

	registerSubcommands(cmd)
	return cmd
}

func registerSubcommands(root *cobra.Command) {
	root.AddCommand(
		newConvertCmd(),
		newImportCmd(),
		newRepairCmd(),
		newResolveCompositionCmd(),
		newTagQualityCmd(),
		newMapCmd(),
		newMergeCmd(),
		newValidateCmd(),
		newCurateCmd(),
	)
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	store, err := layerstore.NewStore(cfg.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("layer store initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: metrics.NewRegistry(),
		Output:  opts.Output,
		Curator: opts.CuratorID,
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	cmd.SetContext(ctx)
	return nil
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	if _, err := os.Stat("./culturemech.yaml"); err == nil {
		return config.Load("./culturemech.yaml")
	}
	return config.LoadFromEnv()
}

func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := opts.LogLevel
	if level == "" {
		level = cfg.Log.Level
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext built by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.CodeInvalidParam, "cli: command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.CodeInvalidParam, "cli: CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute is the culturemech CLI's entry point.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return errors.GetCode(err).ExitCode()
	}
	return 0
}

// emitReport prints report in the CLIContext's configured format and
// returns an error carrying the exit code derived from it (nil for exit 0).
func emitReport(cmd *cobra.Command, cliCtx *CLIContext, report stats.RunReport) error {
	switch strings.ToLower(cliCtx.Output) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d succeeded (%d failed) in %s\n",
			report.Command, report.Succeeded, report.Total, report.Failed,
			report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
		for category, count := range report.ByCategory {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", category, count)
		}
		for _, path := range report.FailedPaths {
			fmt.Fprintf(cmd.OutOrStdout(), "  FAILED %s\n", path)
		}
	}
	if report.ExitCode == 2 {
		return errors.New(errors.CodeInternal, fmt.Sprintf("%s: an internal invariant was violated, see report", report.Command))
	}
	if report.ExitCode == 1 {
		return errors.New(errors.CodeStructuralInvalid, fmt.Sprintf("%s: %d record(s) failed, see report", report.Command, report.Failed))
	}
	return nil
}
