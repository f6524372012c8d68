package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/catalog"
	"github.com/sha1n/mcp-civic-search/internal/config"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/store"
	"github.com/sha1n/mcp-civic-search/internal/store/sqlite"
)

const fixturePath = "../seed/testdata/fixture.toml"

func TestOpenBackend(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		wantPath string
	}{
		{"sqlite", config.StoreBackendSQLite, sqlite.DefaultFilename},
		{"bleve", config.StoreBackendBleve, catalog.IndexDirName},
		{"memory", config.StoreBackendMemory, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			backend, err := OpenBackend(config.StoreSettings{Backend: tt.backend, Path: dir})
			if err != nil {
				t.Fatalf("OpenBackend failed: %v", err)
			}
			defer func() {
				if err := backend.Close(); err != nil {
					t.Errorf("Close failed: %v", err)
				}
			}()

			if tt.wantPath != "" {
				if _, err := os.Stat(filepath.Join(dir, tt.wantPath)); err != nil {
					t.Errorf("Expected %s to exist: %v", tt.wantPath, err)
				}
			}

			items, err := backend.Fetch(context.Background(), domain.KindIssue, nil)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(items) != 0 {
				t.Errorf("Expected empty store, got %d items", len(items))
			}
		})
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	backend, err := OpenBackend(config.StoreSettings{Backend: "postgres"})
	if err == nil {
		t.Fatal("Expected error for unknown backend")
	}
	if backend != nil {
		t.Error("Expected nil backend on error")
	}
}

func TestOpenSeededBackend(t *testing.T) {
	for _, backend := range []string{config.StoreBackendSQLite, config.StoreBackendBleve, config.StoreBackendMemory} {
		t.Run(backend, func(t *testing.T) {
			b, err := OpenSeededBackend(context.Background(), config.StoreSettings{
				Backend:  backend,
				Path:     t.TempDir(),
				SeedFile: fixturePath,
			})
			if err != nil {
				t.Fatalf("OpenSeededBackend failed: %v", err)
			}
			defer func() { _ = b.Close() }()

			issues, err := b.Fetch(context.Background(), domain.KindIssue, []string{"environment"})
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(issues) != 1 || issues[0].ID != "i-park" {
				t.Fatalf("Expected only i-park, got %+v", issues)
			}
			if issues[0].CreatorReputation == nil || *issues[0].CreatorReputation != 82 {
				t.Errorf("Expected creator reputation 82, got %v", issues[0].CreatorReputation)
			}
		})
	}
}

func TestOpenSeededBackend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		settings config.StoreSettings
	}{
		{"unknown backend", config.StoreSettings{Backend: "postgres"}},
		{"missing seed file", config.StoreSettings{Backend: config.StoreBackendMemory, SeedFile: "testdata/missing.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenSeededBackend(context.Background(), tt.settings); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSeedBackend_WaitsForLock(t *testing.T) {
	dir := t.TempDir()
	held, err := store.LockDir(context.Background(), dir, time.Second)
	if err != nil {
		t.Fatalf("LockDir failed: %v", err)
	}
	defer func() { _ = held.Unlock() }()

	settings := config.StoreSettings{Backend: config.StoreBackendSQLite, Path: dir}
	backend, err := OpenBackend(settings)
	if err != nil {
		t.Fatalf("OpenBackend failed: %v", err)
	}
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = SeedBackend(ctx, settings, fixturePath, backend)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected seeding to give up while the lock is held, got %v", err)
	}
}
