package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-civic-search/internal/auth"
	"github.com/sha1n/mcp-civic-search/internal/config"
	"github.com/sha1n/mcp-civic-search/internal/httpapi"
)

// StartSSEServer starts the SSE server with authentication
func StartSSEServer(services *Services, settings *config.Settings) error {
	srv, err := NewSSEServer(services, settings)
	if err != nil {
		return err
	}

	slog.Info("Server listening (HTTP)", "addr", srv.Addr, "auth_type", settings.Auth.Type)
	return srv.ListenAndServe()
}

// NewSSEServer creates the HTTP server: the MCP SSE endpoint, the JSON search
// API and a health check, behind CORS, rate limiting and authentication.
func NewSSEServer(services *Services, settings *config.Settings) (*http.Server, error) {
	// Factory function returns the server instance for each request
	sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return services.MCP
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/sse", sseHandler)

	if services.Engine != nil {
		api := httpapi.NewServer(services.Engine, httpapi.Config{
			MaxPageSize: settings.Search.MaxPageSize,
			QuickLimit:  settings.Search.QuickLimit,
		})
		api.Register(mux)
	}

	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth middleware: %w", err)
	}
	rateLimit := httpapi.NewRateLimitMiddleware(httpapi.RateLimitConfig{
		RequestsPerSecond: settings.HTTP.RateLimit,
		Burst:             settings.HTTP.RateBurst,
	})
	corsMiddleware := httpapi.NewCORSMiddleware(settings.HTTP.AllowedOrigins)

	handler := corsMiddleware(rateLimit(authMiddleware(mux)))
	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)

	return &http.Server{
		Addr:    addr,
		Handler: handler,
	}, nil
}
