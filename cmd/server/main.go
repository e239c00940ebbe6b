// Command server runs the scholar gateway REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/scholar-gateway/internal/app"
	"github.com/helixir/scholar-gateway/internal/config"
	"github.com/helixir/scholar-gateway/internal/observability"
	httpserver "github.com/helixir/scholar-gateway/internal/server/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scholar-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default: search ., ./config, /etc/scholar-gateway)")
	envPath := fs.String("env", "", "path to a dotenv file with API keys (default: ./.env when present)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		return err
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}).With().Str("component", "server").Logger()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	application, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("closing cache backend")
		}
	}()

	srv := httpserver.NewServer(serverConfig(cfg), application.Service, metrics, logger)
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger, application)
}

// serverConfig derives the HTTP listener settings. The metrics endpoint is
// mounted only when metrics are enabled.
func serverConfig(cfg *config.Config) httpserver.Config {
	out := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSEnabled:     cfg.Server.CORSEnabled,
	}
	if cfg.Metrics.Enabled {
		out.MetricsPath = cfg.Metrics.Path
	}
	return out
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// in-flight requests within shutdownTimeout.
func serve(ctx context.Context, srv *httpserver.Server, shutdownTimeout time.Duration, logger zerolog.Logger, application *app.App) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	logger.Info().
		Str("adapter", string(application.Service.CurrentAdapter())).
		Str("cache_backend", application.Cache.BackendName()).
		Bool("llm_analysis", application.Service.AnalysisEnabled()).
		Msg("scholar-gateway started")

	err := g.Wait()
	if err == nil {
		logger.Info().Msg("scholar-gateway stopped")
	}
	return err
}
