package search

import (
	"context"
	"slices"
	"sync"

	"github.com/sha1n/mcp-civic-search/internal/domain"
)

// StaticSource is an in-memory DataSource with optional per-kind failures.
// This is exported for use in tests of other packages.
type StaticSource struct {
	mu    sync.Mutex
	items map[domain.ContentKind][]domain.Item
	errs  map[domain.ContentKind]error
	calls []StaticSourceCall
}

// StaticSourceCall records one Fetch invocation.
type StaticSourceCall struct {
	Kind       domain.ContentKind
	Categories []string
}

// NewStaticSource creates a source serving the given items grouped by kind.
func NewStaticSource(items ...domain.Item) *StaticSource {
	s := &StaticSource{
		items: make(map[domain.ContentKind][]domain.Item),
		errs:  make(map[domain.ContentKind]error),
	}
	for _, it := range items {
		s.items[it.Kind] = append(s.items[it.Kind], it)
	}
	return s
}

// FailKind makes every Fetch of kind return err.
func (s *StaticSource) FailKind(kind domain.ContentKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[kind] = err
}

// Fetch returns the items of kind whose category is in categories.
func (s *StaticSource) Fetch(_ context.Context, kind domain.ContentKind, categories []string) ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, StaticSourceCall{Kind: kind, Categories: categories})
	if err := s.errs[kind]; err != nil {
		return nil, err
	}

	var out []domain.Item
	for _, it := range s.items[kind] {
		if len(categories) > 0 && !slices.Contains(categories, it.Category) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Calls returns all recorded Fetch calls.
func (s *StaticSource) Calls() []StaticSourceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StaticSourceCall(nil), s.calls...)
}
