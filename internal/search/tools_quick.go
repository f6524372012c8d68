package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-civic-search/internal/domain"
)

// QuickSearchArgument defines quick_search parameters.
type QuickSearchArgument struct {
	Query        string   `json:"query" jsonschema_description:"Free-text search query"`
	UserLocation string   `json:"user_location,omitempty" jsonschema_description:"Caller's saved location, boosts nearby items"`
	Kinds        []string `json:"kinds,omitempty" jsonschema_description:"Content kinds to search: issue, community, profile"`
	Limit        int      `json:"limit,omitempty" jsonschema_description:"Maximum number of results"`
}

// QuickSearchHandler handles the quick_search MCP tool.
type QuickSearchHandler struct {
	engine       *Engine
	defaultLimit int
}

// NewQuickSearchHandler creates a new quick search handler.
func NewQuickSearchHandler(engine *Engine, defaultLimit int) *QuickSearchHandler {
	return &QuickSearchHandler{
		engine:       engine,
		defaultLimit: defaultLimit,
	}
}

// Handle executes the quick search.
func (h *QuickSearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args QuickSearchArgument) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	kinds := make([]domain.ContentKind, 0, len(args.Kinds))
	for _, k := range args.Kinds {
		kind, ok := domain.ParseContentKind(strings.TrimSpace(k))
		if !ok {
			return errorResult(fmt.Sprintf("Unknown content kind: %s", k)), nil, nil
		}
		kinds = append(kinds, kind)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = h.defaultLimit
	}

	hits, err := h.engine.QuickSearch(ctx, QuickOptions{
		Query:        query,
		UserLocation: args.UserLocation,
		Kinds:        kinds,
		Limit:        limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOption) {
			return errorResult(err.Error()), nil, nil
		}
		return errorResult(fmt.Sprintf("Quick search failed: %s", err)), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: FormatHits(hits, query)},
		},
	}, nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *QuickSearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "quick_search",
		Description: "Instant search across issues, communities and profiles with local, recent and popular boosts",
	}
}

// RegisterQuickSearchTool registers the quick search tool with an MCP server.
func RegisterQuickSearchTool(server *mcp.Server, engine *Engine, defaultLimit int) {
	handler := NewQuickSearchHandler(engine, defaultLimit)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
