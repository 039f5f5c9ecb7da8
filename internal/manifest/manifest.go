// Package manifest loads table declarations from a YAML file and
// applies them to a database handle.
package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/siftdb/sift/pkg/sift"
)

// Manifest declares a set of tables and their column schemas.
//
//	tables:
//	  todos:
//	    id: integer primary key
//	    content: text
type Manifest struct {
	Tables map[string]map[string]string `yaml:"tables"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Tables) == 0 {
		return nil, fmt.Errorf("manifest %s declares no tables", path)
	}
	for name, schema := range m.Tables {
		if len(schema) == 0 {
			return nil, fmt.Errorf("manifest table %q has no columns", name)
		}
	}
	return &m, nil
}

// Apply declares every table in the manifest and waits until all
// creation statements have completed.
func Apply(ctx context.Context, db *sift.DB, m *Manifest) error {
	var eg errgroup.Group
	for name, schema := range m.Tables {
		eg.Go(func() error {
			return db.Declare(name, schema)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return db.Ready(ctx)
}

// Watch re-applies the manifest whenever its file is written or
// replaced. It blocks until ctx is cancelled. Reload failures are
// logged, not fatal: the previously applied declarations stay in
// effect.
func Watch(ctx context.Context, db *sift.DB, path string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start manifest watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors often replace the
	// file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch manifest directory: %w", err)
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				m, err := Load(path)
				if err != nil {
					logger.Error("manifest reload failed", "error", err)
					return
				}
				if err := Apply(ctx, db, m); err != nil {
					logger.Error("manifest apply failed", "error", err)
					return
				}
				logger.Info("manifest applied", "path", path, "tables", len(m.Tables))
			})

		case err := <-watcher.Errors:
			logger.Error("manifest watcher error", "error", err)
		}
	}
}
