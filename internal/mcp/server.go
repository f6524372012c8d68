package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-civic-search/internal/search"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string

	// Engine backs the search tools. Without it the server exposes no tools.
	Engine      *search.Engine
	MaxPageSize int
	QuickLimit  int
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Engine != nil {
		search.RegisterSearchTool(s, cfg.Engine, cfg.MaxPageSize)
		search.RegisterQuickSearchTool(s, cfg.Engine, cfg.QuickLimit)
	}

	return s
}
