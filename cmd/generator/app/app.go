package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/gait-radar/internal/config"
	"github.com/roman-kulish/gait-radar/internal/dataset"
	"github.com/roman-kulish/gait-radar/internal/storage"
)

const (
	storageDir = "data"
)

// Run generates n samples into the stores named by the configuration.
func Run(ctx context.Context, cfg *config.Config, n int, logger *slog.Logger) error {
	if n <= 0 {
		return fmt.Errorf("number of samples must be positive: %d", n)
	}

	store, err := createStorage(&cfg.Storage, time.Now(), logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	summary, err := dataset.NewGenerator(cfg, store, dataset.WithLogger(logger)).Run(ctx, n)
	if cerr := store.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("closing storage: %w", cerr))
	}
	if err != nil {
		return err
	}

	if summary.Stored == 0 {
		return fmt.Errorf("run %s stored no samples", summary.RunID)
	}
	return nil
}

// createStorage opens every configured store. Without any, a timestamped
// database is created in the data directory of the working directory.
func createStorage(cfg *config.Storage, now time.Time, logger *slog.Logger) (storage.Store, error) {
	var stores []storage.Store

	dbPath := cfg.Database
	if dbPath == "" && cfg.DataDirectory == "" {
		dbPath = filepath.Join(storageDir, fmt.Sprintf("gait_dataset_%s.sqlite", now.UTC().Format("20060102_150405")))
	}

	if dbPath != "" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory '%s': %w", dir, err)
		}
		stores = append(stores, storage.NewSqliteStore(dbPath))
		logger.Info("storing samples in database", slog.String("path", dbPath))
	}

	if cfg.DataDirectory != "" {
		stat, err := os.Stat(cfg.DataDirectory)
		if err == nil && !stat.IsDir() {
			return nil, fmt.Errorf("invalid data directory '%s'", cfg.DataDirectory)
		}
		stores = append(stores, storage.NewDirectoryStore(cfg.DataDirectory))
		logger.Info("storing samples as NumPy files", slog.String("directory", cfg.DataDirectory))
	}

	if len(stores) == 1 {
		return stores[0], nil
	}
	return storage.Multi(stores...), nil
}
