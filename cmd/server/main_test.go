package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-gateway/internal/config"
)

func TestServerConfig(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8000,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 3 * time.Second,
			CORSEnabled:     true,
		},
		Metrics: config.MetricsConfig{Enabled: false, Path: "/metrics"},
	}

	got := serverConfig(cfg)
	assert.Equal(t, "127.0.0.1:8000", got.Address)
	assert.Equal(t, 5*time.Second, got.ReadTimeout)
	assert.Equal(t, 3*time.Second, got.ShutdownTimeout)
	assert.True(t, got.CORSEnabled)
	assert.Empty(t, got.MetricsPath, "metrics endpoint hidden when disabled")

	cfg.Metrics.Enabled = true
	assert.Equal(t, "/metrics", serverConfig(cfg).MetricsPath)
}

func TestRun_ConfigErrors(t *testing.T) {
	err := run(context.Background(), []string{"-unknown-flag"})
	require.Error(t, err)

	err = run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")

	err = run(context.Background(), []string{"-env", filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env file")
}
