package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sha1n/mcp-civic-search/internal/config"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/httpapi"
	"github.com/spf13/pflag"
)

func searchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	RegisterSearchFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return flags
}

// fixedSettings returns params that load the given settings and skip validation.
func fixedSettings(settings *config.Settings) RunParams {
	return RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return settings, nil
		},
		ValidSettings: noopValidate,
	}
}

func TestSearchRequestFromFlags(t *testing.T) {
	flags := searchFlags(t,
		"--lang", "es",
		"--category", "transport,roads",
		"--sort", "recent",
		"--page", "2",
		"--page-size", "7",
		"--min-trust", "40",
		"--connectivity", "low",
		"--exclude-communities",
		"--location", "Bogotá",
		"--kind", "issue,profile",
		"--limit", "3",
		"--json",
	)

	req, err := SearchRequestFromFlags(flags, []string{" bus ", "route"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	opts := req.Options
	if opts.Query != "bus  route" {
		t.Errorf("Unexpected query %q", opts.Query)
	}
	if opts.Language != domain.LangSpanish || opts.SortBy != domain.SortRecent || opts.Connectivity != domain.ConnectivityLow {
		t.Errorf("Enum options not mapped: %+v", opts)
	}
	if opts.Page != 2 || opts.PageSize != 7 || opts.MinTrustScore != 40 || len(opts.Categories) != 2 {
		t.Errorf("Numeric options not mapped: %+v", opts)
	}
	if opts.ExcludeIssues || !opts.ExcludeCommunities {
		t.Errorf("Exclusions not mapped: %+v", opts)
	}
	if req.QuickOp.UserLocation != "Bogotá" || req.QuickOp.Limit != 3 || len(req.QuickOp.Kinds) != 2 {
		t.Errorf("Quick options not mapped: %+v", req.QuickOp)
	}
	if !req.JSON || req.Quick {
		t.Errorf("Output options not mapped: %+v", req)
	}
}

func TestSearchRequestFromFlags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		flags   []string
		wantErr error
	}{
		{"no query", nil, nil, domain.ErrEmptyQuery},
		{"blank query", []string{"  "}, nil, domain.ErrEmptyQuery},
		{"unknown kind", []string{"park"}, []string{"--kind", "event"}, domain.ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SearchRequestFromFlags(searchFlags(t, tt.flags...), tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunSearch(t *testing.T) {
	settings := memorySettings()
	settings.Store.SeedFile = fixturePath

	tests := []struct {
		name  string
		flags []string
		want  []string
	}{
		{"markdown page", nil, []string{"Park cleanup needed", "Friends of Uhuru Park"}},
		{"quick search", []string{"--quick"}, []string{"Park cleanup needed", "Amina Odhiambo"}},
		{"issues only", []string{"--exclude-communities"}, []string{"Park cleanup needed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := searchFlags(t, tt.flags...)
			req, err := SearchRequestFromFlags(flags, []string{"park"})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			var out bytes.Buffer
			if err := RunSearch(context.Background(), fixedSettings(settings), flags, req, &out); err != nil {
				t.Fatalf("RunSearch failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("Expected output to contain %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRunSearch_JSON(t *testing.T) {
	settings := memorySettings()
	settings.Store.SeedFile = fixturePath

	flags := searchFlags(t, "--json", "--page-size", "500")
	req, err := SearchRequestFromFlags(flags, []string{"park"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := RunSearch(context.Background(), fixedSettings(settings), flags, req, &out); err != nil {
		t.Fatalf("RunSearch failed: %v", err)
	}

	var page domain.Page
	if err := json.Unmarshal(out.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, out.String())
	}
	if page.PageSize != settings.Search.MaxPageSize {
		t.Errorf("Expected page size capped at %d, got %d", settings.Search.MaxPageSize, page.PageSize)
	}
	if page.TotalCount != 2 {
		t.Errorf("Expected 2 results, got %d", page.TotalCount)
	}
}

func TestRunSearch_QuickJSON(t *testing.T) {
	settings := memorySettings()
	settings.Store.SeedFile = fixturePath

	flags := searchFlags(t, "--json", "--quick", "--kind", "issue")
	req, err := SearchRequestFromFlags(flags, []string{"park"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out bytes.Buffer
	if err := RunSearch(context.Background(), fixedSettings(settings), flags, req, &out); err != nil {
		t.Fatalf("RunSearch failed: %v", err)
	}

	var hits []httpapi.QuickHit
	if err := json.Unmarshal(out.Bytes(), &hits); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, out.String())
	}
	if len(hits) != 1 || hits[0].ID != "i-park" || hits[0].Type != domain.KindIssue {
		t.Errorf("Unexpected hits: %+v", hits)
	}
}

func TestRunSearch_Errors(t *testing.T) {
	invalidSort := searchFlags(t, "--sort", "random")
	req, err := SearchRequestFromFlags(invalidSort, []string{"park"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out bytes.Buffer
	err = RunSearch(context.Background(), fixedSettings(memorySettings()), invalidSort, req, &out)
	if !errors.Is(err, domain.ErrInvalidOption) {
		t.Errorf("Expected ErrInvalidOption, got %v", err)
	}

	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return memorySettings(), nil
		},
		ValidSettings: func(*config.Settings) error { return errors.New("bad config") },
	}
	err = RunSearch(context.Background(), params, invalidSort, req, &out)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

func TestRunSeed(t *testing.T) {
	for _, backend := range []string{config.StoreBackendSQLite, config.StoreBackendBleve} {
		t.Run(backend, func(t *testing.T) {
			settings := memorySettings()
			settings.Store = config.StoreSettings{Backend: backend, Path: t.TempDir()}

			var out bytes.Buffer
			if err := RunSeed(context.Background(), fixedSettings(settings), nil, fixturePath, &out); err != nil {
				t.Fatalf("RunSeed failed: %v", err)
			}
			if !strings.Contains(out.String(), "Seeded 5 records (2 profiles, 2 issues, 1 communities)") {
				t.Errorf("Unexpected output: %q", out.String())
			}

			// The records survive a reopen
			b, err := OpenBackend(settings.Store)
			if err != nil {
				t.Fatalf("OpenBackend failed: %v", err)
			}
			defer func() { _ = b.Close() }()
			communities, err := b.Fetch(context.Background(), domain.KindCommunity, nil)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(communities) != 1 {
				t.Errorf("Expected 1 community after reopen, got %d", len(communities))
			}
		})
	}
}

func TestRunSeed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		store   config.StoreSettings
		path    string
		wantErr string
	}{
		{"memory backend", config.StoreSettings{Backend: config.StoreBackendMemory}, fixturePath, "persistent store"},
		{"missing file", config.StoreSettings{Backend: config.StoreBackendSQLite}, "testdata/missing.toml", "missing.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := memorySettings()
			settings.Store = tt.store
			if settings.Store.Backend != config.StoreBackendMemory {
				settings.Store.Path = t.TempDir()
			}

			var out bytes.Buffer
			err := RunSeed(context.Background(), fixedSettings(settings), nil, tt.path, &out)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
