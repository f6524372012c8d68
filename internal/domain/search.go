package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Language is one of the language codes the detector can produce.
type Language string

// Supported languages
const (
	LangEnglish Language = "en"
	LangSpanish Language = "es"
	LangFrench  Language = "fr"
	LangHindi   Language = "hi"
	LangChinese Language = "zh"
	LangArabic  Language = "ar"
	LangSwahili Language = "sw"
)

// SupportedLanguages lists every language code in detection priority order.
var SupportedLanguages = []Language{
	LangEnglish, LangSpanish, LangFrench, LangHindi, LangChinese, LangArabic, LangSwahili,
}

// SortMode selects the ordering of a result page.
type SortMode string

// Sort modes
const (
	SortRelevance SortMode = "relevance"
	SortRecent    SortMode = "recent"
	SortTrust     SortMode = "trust"
)

// Connectivity is the network quality tier of the caller.
type Connectivity string

// Connectivity tiers
const (
	ConnectivityHigh   Connectivity = "high"
	ConnectivityMedium Connectivity = "medium"
	ConnectivityLow    Connectivity = "low"
)

// Search defaults
const (
	DefaultPageSize = 10

	// LowConnectivityPageSize caps the page size for low-bandwidth callers.
	LowConnectivityPageSize = 5
)

// SearchOptions configures one search call. The zero value of every optional
// field means "use the default"; call Normalize before use.
type SearchOptions struct {
	// Query is the free-text query. Required, non-empty after trimming.
	Query string `json:"query"`

	// Language is the requested language. Defaults to English, which accepts
	// results in every language.
	Language Language `json:"language,omitempty"`

	// Categories is an allow-list applied to issues. Empty disables filtering.
	Categories []string `json:"categories,omitempty"`

	// MinTrustScore rejects results whose trust score is lower. Defaults to 0.
	MinTrustScore float64 `json:"min_trust_score,omitempty"`

	// Page is 1-based.
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`

	Connectivity Connectivity `json:"connectivity,omitempty"`

	// ExcludeIssues and ExcludeCommunities turn off a content kind. Both kinds
	// are searched by default.
	ExcludeIssues      bool `json:"exclude_issues,omitempty"`
	ExcludeCommunities bool `json:"exclude_communities,omitempty"`

	SortBy SortMode `json:"sort_by,omitempty"`
}

// IncludeIssues reports whether issues are searched.
func (o SearchOptions) IncludeIssues() bool { return !o.ExcludeIssues }

// IncludeCommunities reports whether communities are searched.
func (o SearchOptions) IncludeCommunities() bool { return !o.ExcludeCommunities }

// Normalize returns a copy of the options with defaults applied.
func (o SearchOptions) Normalize() SearchOptions {
	o.Query = strings.TrimSpace(o.Query)
	if o.Language == "" {
		o.Language = LangEnglish
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.Connectivity == "" {
		o.Connectivity = ConnectivityHigh
	}
	if o.SortBy == "" {
		o.SortBy = SortRelevance
	}
	o.Categories = trimNonEmpty(o.Categories)
	return o
}

// Validate checks normalized options.
func (o SearchOptions) Validate() error {
	if strings.TrimSpace(o.Query) == "" {
		return ErrEmptyQuery
	}
	if !isSupportedLanguage(o.Language) {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidOption, o.Language)
	}
	switch o.SortBy {
	case SortRelevance, SortRecent, SortTrust:
	default:
		return fmt.Errorf("%w: unknown sort mode %q", ErrInvalidOption, o.SortBy)
	}
	switch o.Connectivity {
	case ConnectivityHigh, ConnectivityMedium, ConnectivityLow:
	default:
		return fmt.Errorf("%w: unknown connectivity %q", ErrInvalidOption, o.Connectivity)
	}
	if math.IsNaN(o.MinTrustScore) || math.IsInf(o.MinTrustScore, 0) {
		return fmt.Errorf("%w: min trust score must be a finite number", ErrInvalidOption)
	}
	if o.MinTrustScore < 0 {
		return fmt.Errorf("%w: min trust score must not be negative", ErrInvalidOption)
	}
	return nil
}

// EffectivePageSize returns the page size after the low-connectivity cap.
func (o SearchOptions) EffectivePageSize() int {
	if o.Connectivity == ConnectivityLow && o.PageSize > LowConnectivityPageSize {
		return LowConnectivityPageSize
	}
	return o.PageSize
}

// SearchResult is the ranked projection of an item for one query.
type SearchResult struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Kind           ContentKind `json:"type"`
	Category       string      `json:"category,omitempty"`
	RelevanceScore float64     `json:"relevance_score"`
	Language       Language    `json:"language"`
	LastUpdated    time.Time   `json:"last_updated"`
	Location       string      `json:"location,omitempty"`
	TrustScore     *float64    `json:"trust_score,omitempty"`
}

// Trust returns the trust score, treating a missing value as 0.
func (r SearchResult) Trust() float64 {
	if r.TrustScore == nil {
		return 0
	}
	return *r.TrustScore
}

// Page is one page of ranked results.
type Page struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count"`
	PageCount  int            `json:"page_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

func isSupportedLanguage(l Language) bool {
	for _, s := range SupportedLanguages {
		if s == l {
			return true
		}
	}
	return false
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
