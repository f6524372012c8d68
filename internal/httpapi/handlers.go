// Package httpapi exposes the search engine as a small JSON API next to the
// MCP SSE endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/ranking"
	"github.com/sha1n/mcp-civic-search/internal/search"
)

// Routes served by the API.
const (
	SearchPath      = "/api/search"
	QuickSearchPath = "/api/quick-search"
)

// SessionHeader carries the client's quick search session key. Responses to
// superseded requests of the same session are flagged as stale.
const SessionHeader = "X-Search-Session"

// Config holds the API limits.
type Config struct {
	// MaxPageSize caps an explicitly requested page size. Zero disables the cap.
	MaxPageSize int
	// QuickLimit is the quick search hit limit when the request sets none.
	QuickLimit int
}

// Server serves the JSON search endpoints.
type Server struct {
	engine    *search.Engine
	config    Config
	sequencer *search.Sequencer
	logger    *slog.Logger
}

// NewServer creates an API server over engine.
func NewServer(engine *search.Engine, config Config) *Server {
	return &Server{
		engine:    engine,
		config:    config,
		sequencer: search.NewSequencer(),
		logger:    slog.Default(),
	}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+SearchPath, s.handleSearch)
	mux.HandleFunc("GET "+QuickSearchPath, s.handleQuickSearch)
	mux.HandleFunc("DELETE "+QuickSearchPath, s.handleForgetSession)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuickHit is one quick search result.
type QuickHit struct {
	Type        domain.ContentKind `json:"type"`
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Category    string             `json:"category,omitempty"`
	Location    string             `json:"location,omitempty"`
	LastUpdated time.Time          `json:"last_updated"`
	Score       float64            `json:"score"`
	Boosts      ranking.Boosts     `json:"boosts"`
}

// QuickResponse is the body of a quick search response.
type QuickResponse struct {
	RequestID string     `json:"request_id"`
	Seq       uint64     `json:"seq"`
	Stale     bool       `json:"stale"`
	Hits      []QuickHit `json:"hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.config.MaxPageSize > 0 && opts.PageSize > s.config.MaxPageSize {
		opts.PageSize = s.config.MaxPageSize
	}

	page, err := s.engine.Search(r.Context(), opts)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var kinds []domain.ContentKind
	for _, raw := range listParam(q["kind"]) {
		kind, ok := domain.ParseContentKind(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown content kind %q", raw))
			return
		}
		kinds = append(kinds, kind)
	}

	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 {
		limit = s.config.QuickLimit
	}

	session := strings.TrimSpace(r.Header.Get(SessionHeader))
	ticket := search.Ticket{ID: uuid.NewString()}
	if session != "" {
		ticket = s.sequencer.Next(session)
	}

	hits, err := s.engine.QuickSearch(r.Context(), search.QuickOptions{
		Query:        q.Get("q"),
		Fields:       listParam(q["field"]),
		UserLocation: q.Get("location"),
		Kinds:        kinds,
		Limit:        limit,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	resp := QuickResponse{
		RequestID: ticket.ID,
		Seq:       ticket.Seq,
		Stale:     session != "" && !s.sequencer.IsLatest(session, ticket),
		Hits:      NewQuickHits(hits, time.Now()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// NewQuickHits converts ranked hits into their response shape. Missing
// timestamps resolve against now.
func NewQuickHits(hits []ranking.ContextualHit, now time.Time) []QuickHit {
	out := make([]QuickHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, QuickHit{
			Type:        h.Item.Kind,
			ID:          h.Item.ID,
			Title:       h.Item.Title,
			Description: h.Item.Description,
			Category:    h.Item.Category,
			Location:    h.Item.Location,
			LastUpdated: h.Item.LastUpdated(now),
			Score:       h.Score,
			Boosts:      h.Boosts,
		})
	}
	return out
}

func (s *Server) handleForgetSession(w http.ResponseWriter, r *http.Request) {
	session := strings.TrimSpace(r.Header.Get(SessionHeader))
	if session == "" {
		s.writeError(w, http.StatusBadRequest, SessionHeader+" header is required")
		return
	}
	s.sequencer.Forget(session)
	w.WriteHeader(http.StatusNoContent)
}

// searchOptions maps query parameters onto search options. Enum values are
// passed through and checked by the engine.
func searchOptions(r *http.Request) (domain.SearchOptions, error) {
	q := r.URL.Query()
	opts := domain.SearchOptions{
		Query:        q.Get("q"),
		Language:     domain.Language(q.Get("lang")),
		Categories:   listParam(q["category"]),
		Connectivity: domain.Connectivity(q.Get("connectivity")),
		SortBy:       domain.SortMode(q.Get("sort")),
	}

	var err error
	if opts.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return opts, err
	}
	if opts.PageSize, err = intParam(q.Get("page_size"), "page_size"); err != nil {
		return opts, err
	}
	if raw := q.Get("min_trust"); raw != "" {
		if opts.MinTrustScore, err = strconv.ParseFloat(raw, 64); err != nil {
			return opts, fmt.Errorf("invalid min_trust: %q", raw)
		}
	}
	if opts.ExcludeIssues, err = boolParam(q.Get("exclude_issues"), "exclude_issues"); err != nil {
		return opts, err
	}
	if opts.ExcludeCommunities, err = boolParam(q.Get("exclude_communities"), "exclude_communities"); err != nil {
		return opts, err
	}
	return opts, nil
}

// listParam flattens repeated and comma-separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

func boolParam(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return b, nil
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrEmptyQuery) || errors.Is(err, domain.ErrInvalidOption) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), "Search failed", "path", r.URL.Path, "error", err)
	s.writeError(w, http.StatusInternalServerError, "search failed")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
