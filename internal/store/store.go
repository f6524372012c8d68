// Package store defines the write side shared by the record backends.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/mcp-civic-search/internal/domain"
)

// Writer persists records so they can later be fetched for ranking.
type Writer interface {
	SaveProfile(ctx context.Context, p *domain.Profile) error
	SaveIssue(ctx context.Context, i *domain.Issue) error
	SaveCommunity(ctx context.Context, c *domain.Community) error
}

// Backend is a record store that can both be written and searched.
type Backend interface {
	Writer
	Fetch(ctx context.Context, kind domain.ContentKind, categories []string) ([]domain.Item, error)
	Close() error
}

// EnsureID assigns a random ID when id is empty.
func EnsureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// EnsureTimestamps fills a missing creation time with now and a missing
// update time with the creation time.
func EnsureTimestamps(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}
