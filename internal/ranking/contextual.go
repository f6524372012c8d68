package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/domain"
)

// Boost multipliers applied by ContextualSearch.
const (
	LocalBoost   = 1.5
	RecentBoost  = 1.3
	PopularBoost = 1.2
	TrustedBoost = 1.1

	// RecentWindow is how recently an item must have been updated to count as recent.
	RecentWindow = 7 * 24 * time.Hour

	// PopularThreshold is the popularity an item must exceed to count as popular.
	PopularThreshold = 10
)

// DefaultContextFields are the item fields concatenated into the searchable
// text when ContextualOptions.Fields is empty.
var DefaultContextFields = []string{domain.FieldTitle, domain.FieldDescription, domain.FieldCategory}

// Boosts records which contextual signals applied to an item.
type Boosts struct {
	Local   bool `json:"local"`
	Recent  bool `json:"recent"`
	Popular bool `json:"popular"`
	Trusted bool `json:"trusted"`
}

// Multiplier is the product of all active boost factors.
func (b Boosts) Multiplier() float64 {
	m := 1.0
	if b.Local {
		m *= LocalBoost
	}
	if b.Recent {
		m *= RecentBoost
	}
	if b.Popular {
		m *= PopularBoost
	}
	if b.Trusted {
		m *= TrustedBoost
	}
	return m
}

// ContextualOptions configures a quick search over already-fetched items.
type ContextualOptions struct {
	Query string

	// Fields names the item fields that make up the searchable text.
	Fields []string

	// UserLocation is the caller's saved location. Empty disables the local boost.
	UserLocation string

	// Now is the reference instant for the recency boost. Zero means time.Now().
	Now time.Time
}

// ContextualHit is a scored item from ContextualSearch.
type ContextualHit struct {
	Item   domain.Item `json:"item"`
	Score  float64     `json:"score"`
	Boosts Boosts      `json:"boosts"`
}

// ContextualSearch scores every item with PointRelevance over its configured
// fields, multiplies in the contextual boosts, drops items that do not match
// at all and returns the rest ordered by descending score.
func ContextualSearch(items []domain.Item, opts ContextualOptions) []ContextualHit {
	if strings.TrimSpace(opts.Query) == "" {
		return nil
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultContextFields
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	userLocation := strings.ToLower(strings.TrimSpace(opts.UserLocation))

	matcher := NewPointMatcher(opts.Query)

	var hits []ContextualHit
	for _, item := range items {
		base := matcher.Score(searchableText(item, fields))
		if base <= 0 {
			continue
		}
		boosts := contextBoosts(item, userLocation, now)
		hits = append(hits, ContextualHit{
			Item:   item,
			Score:  base * boosts.Multiplier(),
			Boosts: boosts,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

func searchableText(item domain.Item, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := item.FieldValue(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func contextBoosts(item domain.Item, userLocation string, now time.Time) Boosts {
	updated := item.LastUpdated(now)
	return Boosts{
		Local:   userLocation != "" && item.Location != "" && strings.Contains(strings.ToLower(item.Location), userLocation),
		Recent:  now.Sub(updated) <= RecentWindow,
		Popular: item.Popularity > PopularThreshold,
		// No trust signal is available for quick search yet; every item counts as trusted.
		Trusted: true,
	}
}
