package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/ranking"
)

// DataSource fetches raw records for one content kind. Categories is an
// allow-list; an empty list means no filtering. Implementations own their
// timeout and retry behaviour.
type DataSource interface {
	Fetch(ctx context.Context, kind domain.ContentKind, categories []string) ([]domain.Item, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger overrides the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithQuickSearchFields sets the item fields used by QuickSearch when the
// request does not name any.
func WithQuickSearchFields(fields []string) EngineOption {
	return func(e *Engine) {
		e.quickFields = fields
	}
}

// WithDefaultPageSize sets the page size used when a search does not request
// one.
func WithDefaultPageSize(size int) EngineOption {
	return func(e *Engine) {
		e.defaultPageSize = size
	}
}

// Engine runs searches against a DataSource. It holds no per-search state, so
// one Engine can serve concurrent searches.
type Engine struct {
	source      DataSource
	now         func() time.Time
	logger      *slog.Logger
	quickFields []string

	defaultPageSize int
}

// NewEngine creates a search engine.
func NewEngine(source DataSource, opts ...EngineOption) *Engine {
	e := &Engine{
		source: source,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search fetches issues and communities, scores and filters them, then sorts
// and paginates the survivors. A failing content kind is logged and skipped.
// An empty result set is a valid page; the only error is invalid options.
func (e *Engine) Search(ctx context.Context, opts domain.SearchOptions) (domain.Page, error) {
	if opts.PageSize < 1 && e.defaultPageSize > 0 {
		opts.PageSize = e.defaultPageSize
	}
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return domain.Page{}, err
	}

	pageSize := opts.EffectivePageSize()
	agg := ranking.NewAggregator(e.now)

	var results []domain.SearchResult
	if opts.IncludeIssues() {
		results = append(results, e.collect(ctx, agg, domain.KindIssue, opts.Categories, opts)...)
	}
	if opts.IncludeCommunities() {
		results = append(results, e.collect(ctx, agg, domain.KindCommunity, nil, opts)...)
	}

	SortResults(results, opts.SortBy)
	page := Paginate(results, opts.Page, pageSize)

	e.logger.DebugContext(ctx, "Search completed",
		"query", opts.Query,
		"total", page.TotalCount,
		"page", page.Page,
		"page_size", page.PageSize)

	return page, nil
}

// collect fetches one content kind and scores each record.
func (e *Engine) collect(ctx context.Context, agg *ranking.Aggregator, kind domain.ContentKind, categories []string, opts domain.SearchOptions) []domain.SearchResult {
	items, err := e.source.Fetch(ctx, kind, categories)
	if err != nil {
		e.logger.WarnContext(ctx, "Fetch failed, skipping content kind", "kind", kind, "error", err)
		return nil
	}

	var out []domain.SearchResult
	for _, item := range items {
		if item.Kind == "" {
			item.Kind = kind
		}
		if res, ok := agg.Score(item, opts); ok {
			out = append(out, res)
		}
	}
	return out
}

// SortResults orders results in place. Ties keep their input order.
func SortResults(results []domain.SearchResult, mode domain.SortMode) {
	var less func(i, j int) bool
	switch mode {
	case domain.SortRecent:
		less = func(i, j int) bool {
			return results[i].LastUpdated.After(results[j].LastUpdated)
		}
	case domain.SortTrust:
		less = func(i, j int) bool {
			return results[i].Trust() > results[j].Trust()
		}
	default:
		less = func(i, j int) bool {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
	}
	sort.SliceStable(results, less)
}

// Paginate slices one page out of results. Pages past the end are empty.
func Paginate(results []domain.SearchResult, page, pageSize int) domain.Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}

	total := len(results)
	p := domain.Page{
		Results:    []domain.SearchResult{},
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}

	if total == 0 {
		return p
	}
	p.PageCount = (total-1)/pageSize + 1

	// Compare in page units so a huge page number cannot overflow the offset.
	if page-1 > (total-1)/pageSize {
		return p
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	p.Results = results[start:end]
	return p
}

// QuickOptions configures Engine.QuickSearch.
type QuickOptions struct {
	Query        string   `json:"query"`
	Fields       []string `json:"fields,omitempty"`
	UserLocation string   `json:"user_location,omitempty"`

	// Kinds limits the searched content kinds. Empty searches all of them.
	Kinds []domain.ContentKind `json:"kinds,omitempty"`

	// Limit caps the number of hits. Zero means no cap.
	Limit int `json:"limit,omitempty"`
}

// AllKinds lists the content kinds quick search covers by default.
var AllKinds = []domain.ContentKind{domain.KindIssue, domain.KindCommunity, domain.KindProfile}

// QuickSearch runs the point-based contextual search over every record of the
// requested kinds. Like Search, a failing kind is logged and skipped.
func (e *Engine) QuickSearch(ctx context.Context, opts QuickOptions) ([]ranking.ContextualHit, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	var items []domain.Item
	for _, kind := range kinds {
		if _, ok := domain.ParseContentKind(string(kind)); !ok {
			return nil, fmt.Errorf("%w: unknown content kind %q", domain.ErrInvalidOption, kind)
		}
		fetched, err := e.source.Fetch(ctx, kind, nil)
		if err != nil {
			e.logger.WarnContext(ctx, "Fetch failed, skipping content kind", "kind", kind, "error", err)
			continue
		}
		for _, it := range fetched {
			if it.Kind == "" {
				it.Kind = kind
			}
			items = append(items, it)
		}
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = e.quickFields
	}

	hits := ranking.ContextualSearch(items, ranking.ContextualOptions{
		Query:        query,
		Fields:       fields,
		UserLocation: opts.UserLocation,
		Now:          e.now(),
	})
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}
