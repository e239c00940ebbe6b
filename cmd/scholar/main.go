// Package main provides the scholar CLI, which runs gateway operations
// directly against the configured sources without the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixir/scholar-gateway/internal/app"
	"github.com/helixir/scholar-gateway/internal/config"
	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/service"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath  string
	envPath     string
	adapterName string
	humanOutput bool
	logLevel    string
)

// application is built once per invocation by the root pre-run hook.
var application *app.App

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Query academic literature sources from the command line",
	Long: `scholar runs the gateway's lookups against OpenAlex, Scopus or
ScienceDirect without starting the HTTP server. Configuration is read the
same way as the server: config.yaml, SCHOLAR_* environment variables and
provider API keys from the environment or a .env file.

All commands print JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if err := application.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing cache: %v\n", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "Path to a dotenv file with API keys (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&adapterName, "adapter", "", "Source to query (openalex, scopus, sciencedirect)")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Version = Version
}

// setup loads configuration and assembles the service.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	if err := config.LoadEnvFile(envPath); err != nil {
		return &configError{err: err}
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return &configError{err: err}
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  logLevel,
		Format: "console",
		Writer: os.Stderr,
	})

	application, err = app.New(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return &configError{err: err}
	}

	if adapterName != "" {
		if err := application.Service.SwitchAdapter(adapterName); err != nil {
			return err
		}
	}
	return nil
}

// svc returns the assembled service.
func svc() *service.Service {
	return application.Service
}

type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode maps an error onto the process exit status.
func exitCode(err error) int {
	var cfgErr *configError
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownSource):
		return ExitDataError
	case errors.Is(err, domain.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrRequestFailed),
		errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidData):
		return ExitUpstreamError
	default:
		return ExitError
	}
}
