package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/siftdb/sift/internal/cli/config"
	"github.com/siftdb/sift/internal/manifest"
	"github.com/siftdb/sift/pkg/sift"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	DB     *sift.DB
}

// NewCommandContext opens the configured database and applies the schema
// manifest when one is configured.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	db, err := sift.Open(cfg.Database, sift.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = db.Close() }

	if cfg.Manifest != "" {
		if err := applyManifest(cmd.Context(), db, cfg.Manifest); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		DB:     db,
	}, cleanup, nil
}

// applyManifest loads a manifest file and declares every table in it.
func applyManifest(ctx context.Context, db *sift.DB, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	return manifest.Apply(ctx, db, m)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Database: getEnvOrDefault("SIFT_DATABASE", config.DefaultDatabase),
		Manifest: os.Getenv("SIFT_MANIFEST"),
		Format:   getEnvOrDefault("SIFT_FORMAT", config.DefaultFormat),
		History:  getEnvOrDefault("SIFT_HISTORY", config.DefaultHistory),
		Verbose:  os.Getenv("SIFT_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
