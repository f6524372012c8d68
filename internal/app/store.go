package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/catalog"
	"github.com/sha1n/mcp-civic-search/internal/config"
	"github.com/sha1n/mcp-civic-search/internal/seed"
	"github.com/sha1n/mcp-civic-search/internal/store"
	"github.com/sha1n/mcp-civic-search/internal/store/sqlite"
)

// SeedLockTimeout bounds the wait for another process seeding the same data
// directory.
const SeedLockTimeout = 30 * time.Second

// OpenBackend opens the record store selected by settings.
func OpenBackend(settings config.StoreSettings) (store.Backend, error) {
	var (
		backend store.Backend
		err     error
	)
	switch settings.Backend {
	case config.StoreBackendSQLite:
		var s *sqlite.Store
		if s, err = sqlite.Open(filepath.Join(settings.Path, sqlite.DefaultFilename)); err == nil {
			backend = s
		}
	case config.StoreBackendBleve:
		var c *catalog.Catalog
		if c, err = catalog.Open(filepath.Join(settings.Path, catalog.IndexDirName)); err == nil {
			backend = c
		}
	case config.StoreBackendMemory:
		var c *catalog.Catalog
		if c, err = catalog.OpenMemory(); err == nil {
			backend = c
		}
	default:
		err = fmt.Errorf("unknown store backend: %s", settings.Backend)
	}
	return backend, err
}

// OpenSeededBackend opens the configured store and loads the seed file into it
// when one is set. The store is closed again if seeding fails.
func OpenSeededBackend(ctx context.Context, settings config.StoreSettings) (store.Backend, error) {
	backend, err := OpenBackend(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", settings.Backend, err)
	}
	if settings.SeedFile == "" {
		return backend, nil
	}

	counts, err := SeedBackend(ctx, settings, settings.SeedFile, backend)
	if err != nil {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	slog.Info("Seed loaded", "file", settings.SeedFile, "records", counts)
	return backend, nil
}

// SeedBackend loads the seed file at path into backend. Persistent stores are
// seeded under the data directory lock.
func SeedBackend(ctx context.Context, settings config.StoreSettings, path string, backend store.Writer) (seed.Counts, error) {
	if settings.Backend != config.StoreBackendMemory {
		lock, err := store.LockDir(ctx, settings.Path, SeedLockTimeout)
		if err != nil {
			return seed.Counts{}, fmt.Errorf("failed to lock %s: %w", settings.Path, err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				slog.Error("Failed to release seed lock", "path", lock.Path(), "error", err)
			}
		}()
	}
	return seed.LoadInto(ctx, path, backend)
}
