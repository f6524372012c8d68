package ranking

import (
	"math"
	"time"

	"github.com/sha1n/mcp-civic-search/internal/domain"
)

const (
	// TitleWeight favours title matches over description-only matches.
	TitleWeight = 1.5

	// MinRelevanceScore is the floor below which candidates are dropped.
	MinRelevanceScore = 10.0

	// NeutralReputation is used when the creator's reputation is unknown.
	NeutralReputation = 0.5
)

// Placeholder view counts per content kind. Views are not tracked, so the
// engagement ratio is computed against these constants.
const (
	IssueViews     = 50.0
	CommunityViews = 100.0
)

// ViewsFor returns the placeholder view count of a content kind.
func ViewsFor(kind domain.ContentKind) float64 {
	if kind == domain.KindCommunity {
		return CommunityViews
	}
	return IssueViews
}

// Aggregator turns fetched items into scored search results.
type Aggregator struct {
	now func() time.Time
}

// NewAggregator creates an aggregator. A nil clock defaults to time.Now.
func NewAggregator(now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{now: now}
}

// Relevance scores an item against a query as the larger of the weighted
// title similarity and the description similarity, scaled to ~0-135. The two
// are not summed so overlapping text is not counted twice.
func Relevance(query string, item domain.Item) float64 {
	titleSim := BoundedSimilarity(query, item.Title)
	descSim := BoundedSimilarity(query, item.Description)
	return math.Max(titleSim*TitleWeight, descSim) * 100
}

// ItemTrust computes the trust score of an item at the given instant.
func ItemTrust(item domain.Item, now time.Time) float64 {
	reputation := NeutralReputation
	if item.CreatorReputation != nil {
		reputation = *item.CreatorReputation / 100
	}
	return TrustScore(reputation, item.Popularity, ViewsFor(item.Kind), AgeInDays(item.CreatedAt, now))
}

// Score ranks a single item for opts. The second return value is false when
// the item is filtered out: its trust is below opts.MinTrustScore, its
// language differs from a non-English requested language, or its relevance
// is below MinRelevanceScore.
//
// English requests accept every detected language while other requests only
// accept an exact match.
func (a *Aggregator) Score(item domain.Item, opts domain.SearchOptions) (domain.SearchResult, bool) {
	now := a.now()

	relevance := Relevance(opts.Query, item)
	trust := ItemTrust(item, now)
	lang := DetectLanguage(item.Title + " " + item.Description)

	requested := opts.Language
	if requested == "" {
		requested = domain.LangEnglish
	}

	if trust < opts.MinTrustScore {
		return domain.SearchResult{}, false
	}
	if requested != lang && requested != domain.LangEnglish {
		return domain.SearchResult{}, false
	}
	if relevance < MinRelevanceScore {
		return domain.SearchResult{}, false
	}

	return domain.SearchResult{
		ID:             item.ID,
		Title:          item.Title,
		Description:    item.Description,
		Kind:           item.Kind,
		Category:       item.Category,
		RelevanceScore: relevance,
		Language:       lang,
		LastUpdated:    item.LastUpdated(now),
		Location:       item.Location,
		TrustScore:     &trust,
	}, true
}
