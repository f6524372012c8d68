package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-civic-search/internal/config"
	mcputil "github.com/sha1n/mcp-civic-search/internal/mcp"
	"github.com/sha1n/mcp-civic-search/internal/search"
	"github.com/spf13/pflag"
)

// ServerName is the MCP implementation name.
const ServerName = "civic-search"

// Services bundles what the transports expose: the MCP server and the engine
// behind both the MCP tools and the JSON API.
type Services struct {
	MCP    *mcp.Server
	Engine *search.Engine
}

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*Services, *config.Settings) error
	CreateServices    func(*config.Settings, string) (*Services, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServices: CreateServices,
	}
}

// loadValidSettings loads and validates settings.
func loadValidSettings(params RunParams, flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

// configureLogging always logs to stderr; stdout belongs to the stdio transport.
func configureLogging() {
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := loadValidSettings(params, flags)
	if err != nil {
		return err
	}

	configureLogging()

	slog.Info("Starting civic search server", "version", version)
	config.Log(settings)

	services, cleanup, err := params.CreateServices(settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return services.MCP.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(services, settings)
}

// NewEngine creates a search engine over source configured by settings.
func NewEngine(source search.DataSource, settings config.SearchSettings) *search.Engine {
	return search.NewEngine(source,
		search.WithDefaultPageSize(settings.DefaultPageSize),
		search.WithQuickSearchFields(settings.Fields),
		search.WithLogger(slog.Default()),
	)
}

// CreateServices opens and seeds the store, then builds the engine and the MCP
// server with registered tools. The returned cleanup closes the store.
func CreateServices(settings *config.Settings, version string) (*Services, func(), error) {
	backend, err := OpenSeededBackend(context.Background(), settings.Store)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := backend.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}

	engine := NewEngine(backend, settings.Search)
	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:        ServerName,
		Version:     version,
		Engine:      engine,
		MaxPageSize: settings.Search.MaxPageSize,
		QuickLimit:  settings.Search.QuickLimit,
	})

	return &Services{MCP: server, Engine: engine}, cleanup, nil
}
