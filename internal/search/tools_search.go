package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/sha1n/mcp-civic-search/internal/ranking"
)

// SearchArgument defines search_content parameters.
type SearchArgument struct {
	Query              string   `json:"query" jsonschema_description:"Free-text search query"`
	Language           string   `json:"language,omitempty" jsonschema_description:"Requested language: en, es, fr, hi, zh, ar or sw (default en accepts all)"`
	Categories         []string `json:"categories,omitempty" jsonschema_description:"Issue category allow-list"`
	MinTrustScore      float64  `json:"min_trust_score,omitempty" jsonschema_description:"Minimum trust score (0-100)"`
	Page               int      `json:"page,omitempty" jsonschema_description:"1-based page number"`
	PageSize           int      `json:"page_size,omitempty" jsonschema_description:"Results per page"`
	Connectivity       string   `json:"connectivity,omitempty" jsonschema_description:"Caller network quality: high, medium or low"`
	ExcludeIssues      bool     `json:"exclude_issues,omitempty" jsonschema_description:"Skip issues"`
	ExcludeCommunities bool     `json:"exclude_communities,omitempty" jsonschema_description:"Skip communities"`
	SortBy             string   `json:"sort_by,omitempty" jsonschema_description:"relevance, recent or trust"`
}

// Options converts the tool arguments into search options.
func (a SearchArgument) Options() domain.SearchOptions {
	return domain.SearchOptions{
		Query:              a.Query,
		Language:           domain.Language(a.Language),
		Categories:         a.Categories,
		MinTrustScore:      a.MinTrustScore,
		Page:               a.Page,
		PageSize:           a.PageSize,
		Connectivity:       domain.Connectivity(a.Connectivity),
		ExcludeIssues:      a.ExcludeIssues,
		ExcludeCommunities: a.ExcludeCommunities,
		SortBy:             domain.SortMode(a.SortBy),
	}
}

// SearchHandler handles the search_content MCP tool.
type SearchHandler struct {
	engine      *Engine
	maxPageSize int
}

// NewSearchHandler creates a new search handler. A positive maxPageSize caps
// the requested page size.
func NewSearchHandler(engine *Engine, maxPageSize int) *SearchHandler {
	return &SearchHandler{
		engine:      engine,
		maxPageSize: maxPageSize,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	opts := args.Options()
	if h.maxPageSize > 0 && opts.PageSize > h.maxPageSize {
		opts.PageSize = h.maxPageSize
	}

	page, err := h.engine.Search(ctx, opts)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOption) || errors.Is(err, domain.ErrEmptyQuery) {
			return errorResult(err.Error()), nil, nil
		}
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: FormatPage(page, strings.TrimSpace(args.Query))},
		},
	}, nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_content",
		Description: "Search community issues and communities ranked by relevance, recency or trust",
	}
}

// FormatPage renders a result page as markdown.
func FormatPage(page domain.Page, queryStr string) string {
	if page.TotalCount == 0 {
		return fmt.Sprintf("No results found for query: %s", queryStr)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s' (page %d of %d):\n\n",
		page.TotalCount, queryStr, page.Page, page.PageCount))

	if len(page.Results) == 0 {
		sb.WriteString(fmt.Sprintf("No results on this page. Pages run from 1 to %d.\n", page.PageCount))
		return sb.String()
	}

	offset := (page.Page - 1) * page.PageSize
	for i, r := range page.Results {
		sb.WriteString(fmt.Sprintf("### %d. [%s] %s\n", offset+i+1, r.Kind, r.Title))
		sb.WriteString(fmt.Sprintf("**Relevance**: %.1f", r.RelevanceScore))
		if r.TrustScore != nil {
			sb.WriteString(fmt.Sprintf(" | **Trust**: %.1f", *r.TrustScore))
		}
		sb.WriteString(fmt.Sprintf(" | **Language**: %s\n", r.Language))
		if r.Category != "" {
			sb.WriteString(fmt.Sprintf("**Category**: %s\n", r.Category))
		}
		if r.Location != "" {
			sb.WriteString(fmt.Sprintf("**Location**: %s\n", r.Location))
		}
		sb.WriteString(fmt.Sprintf("**Updated**: %s\n", r.LastUpdated.Format("2006-01-02")))
		if r.Description != "" {
			sb.WriteString("\n")
			sb.WriteString(r.Description)
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("\n`id: %s`\n\n", r.ID))
	}

	if page.Page < page.PageCount {
		sb.WriteString(fmt.Sprintf("... %d more page(s)\n", page.PageCount-page.Page))
	}

	return sb.String()
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, engine *Engine, maxPageSize int) {
	handler := NewSearchHandler(engine, maxPageSize)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// FormatHits renders quick search hits as markdown.
func FormatHits(hits []ranking.ContextualHit, queryStr string) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %s", queryStr)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", len(hits), queryStr))
	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s (score %.1f", i+1, h.Item.Kind, h.Item.Title, h.Score))
		var tags []string
		if h.Boosts.Local {
			tags = append(tags, "local")
		}
		if h.Boosts.Recent {
			tags = append(tags, "recent")
		}
		if h.Boosts.Popular {
			tags = append(tags, "popular")
		}
		if len(tags) > 0 {
			sb.WriteString(", " + strings.Join(tags, ", "))
		}
		sb.WriteString(fmt.Sprintf(") `id: %s`\n", h.Item.ID))
	}
	return sb.String()
}
