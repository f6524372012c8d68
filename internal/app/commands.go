package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/config"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/httpapi"
	"github.com/sha1n/mcp-civic-search/internal/search"
	"github.com/spf13/pflag"
)

// SearchRequest is the input of the one-shot search command.
type SearchRequest struct {
	Options domain.SearchOptions
	Quick   bool
	QuickOp search.QuickOptions
	JSON    bool
}

// SearchRequestFromFlags builds a request from the search flags and the
// positional query words. Enum values are checked by the engine.
func SearchRequestFromFlags(flags *pflag.FlagSet, args []string) (SearchRequest, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return SearchRequest{}, domain.ErrEmptyQuery
	}

	lang, _ := flags.GetString("lang")
	categories, _ := flags.GetStringSlice("category")
	sortMode, _ := flags.GetString("sort")
	page, _ := flags.GetInt("page")
	pageSize, _ := flags.GetInt("page-size")
	minTrust, _ := flags.GetFloat64("min-trust")
	connectivity, _ := flags.GetString("connectivity")
	excludeIssues, _ := flags.GetBool("exclude-issues")
	excludeCommunities, _ := flags.GetBool("exclude-communities")
	quick, _ := flags.GetBool("quick")
	location, _ := flags.GetString("location")
	kinds, _ := flags.GetStringSlice("kind")
	limit, _ := flags.GetInt("limit")
	asJSON, _ := flags.GetBool("json")

	req := SearchRequest{
		Options: domain.SearchOptions{
			Query:              query,
			Language:           domain.Language(lang),
			Categories:         categories,
			MinTrustScore:      minTrust,
			Page:               page,
			PageSize:           pageSize,
			Connectivity:       domain.Connectivity(connectivity),
			ExcludeIssues:      excludeIssues,
			ExcludeCommunities: excludeCommunities,
			SortBy:             domain.SortMode(sortMode),
		},
		Quick:   quick,
		QuickOp: search.QuickOptions{Query: query, UserLocation: location, Limit: limit},
		JSON:    asJSON,
	}

	for _, k := range kinds {
		kind, ok := domain.ParseContentKind(strings.TrimSpace(k))
		if !ok {
			return SearchRequest{}, fmt.Errorf("%w: unknown content kind %q", domain.ErrInvalidOption, k)
		}
		req.QuickOp.Kinds = append(req.QuickOp.Kinds, kind)
	}
	return req, nil
}

// RunSearch runs one search against the configured store and writes the
// results to out.
func RunSearch(ctx context.Context, params RunParams, flags *pflag.FlagSet, req SearchRequest, out io.Writer) error {
	settings, err := loadValidSettings(params, flags)
	if err != nil {
		return err
	}
	configureLogging()

	backend, err := OpenSeededBackend(ctx, settings.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	engine := NewEngine(backend, settings.Search)
	if req.Quick {
		if req.QuickOp.Limit <= 0 {
			req.QuickOp.Limit = settings.Search.QuickLimit
		}
		hits, err := engine.QuickSearch(ctx, req.QuickOp)
		if err != nil {
			return err
		}
		if req.JSON {
			return writeJSON(out, httpapi.NewQuickHits(hits, time.Now()))
		}
		_, err = io.WriteString(out, search.FormatHits(hits, req.QuickOp.Query))
		return err
	}

	if maxSize := settings.Search.MaxPageSize; maxSize > 0 && req.Options.PageSize > maxSize {
		req.Options.PageSize = maxSize
	}
	page, err := engine.Search(ctx, req.Options)
	if err != nil {
		return err
	}
	if req.JSON {
		return writeJSON(out, page)
	}
	_, err = io.WriteString(out, search.FormatPage(page, req.Options.Query))
	return err
}

// RunSeed loads a seed file into the configured persistent store and reports
// how many records were written.
func RunSeed(ctx context.Context, params RunParams, flags *pflag.FlagSet, path string, out io.Writer) error {
	settings, err := loadValidSettings(params, flags)
	if err != nil {
		return err
	}
	if settings.Store.Backend == config.StoreBackendMemory {
		return errors.New("seed requires a persistent store backend, got: memory")
	}
	configureLogging()

	backend, err := OpenBackend(settings.Store)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", settings.Store.Backend, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	counts, err := SeedBackend(ctx, settings.Store, path, backend)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Seeded %d records (%d profiles, %d issues, %d communities) into %s store\n",
		counts.Total(), counts.Profiles, counts.Issues, counts.Communities, settings.Store.Backend)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
