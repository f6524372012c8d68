package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sha1n/mcp-civic-search/internal/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by the server.
const EnvPrefix = "CIVIC_SEARCH"

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// Store backend constants
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendBleve  = "bleve"
	StoreBackendMemory = "memory"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// StoreSettings configuration for the record store
type StoreSettings struct {
	Backend  string `mapstructure:"backend"`   // StoreBackendSQLite, StoreBackendBleve, or StoreBackendMemory
	Path     string `mapstructure:"path"`      // data directory for persistent backends
	SeedFile string `mapstructure:"seed_file"` // optional TOML fixture loaded at startup
}

// SearchSettings configuration for search limits
type SearchSettings struct {
	DefaultPageSize int      `mapstructure:"default_page_size"`
	MaxPageSize     int      `mapstructure:"max_page_size"`
	QuickLimit      int      `mapstructure:"quick_limit"`
	Fields          []string `mapstructure:"fields"` // quick search fields
}

// HTTPSettings configuration for the JSON API
type HTTPSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst      int      `mapstructure:"rate_burst"`
}

// Settings application settings
type Settings struct {
	Transport string         `mapstructure:"transport"`
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	Auth      AuthSettings   `mapstructure:"auth"`
	Store     StoreSettings  `mapstructure:"store"`
	Search    SearchSettings `mapstructure:"search"`
	HTTP      HTTPSettings   `mapstructure:"http"`
}

// flagBindings maps settings keys to CLI flag names.
var flagBindings = map[string]string{
	"transport":                "transport",
	"host":                     "host",
	"port":                     "port",
	"auth.type":                "auth-type",
	"auth.basic.username":      "auth-basic-username",
	"auth.basic.password":      "auth-basic-password",
	"auth.api_keys":            "auth-api-keys",
	"store.backend":            "store-backend",
	"store.path":               "store-path",
	"store.seed_file":          "seed-file",
	"search.default_page_size": "default-page-size",
	"search.max_page_size":     "max-page-size",
	"search.quick_limit":       "quick-limit",
	"search.fields":            "search-fields",
	"http.allowed_origins":     "allowed-origins",
	"http.rate_limit":          "rate-limit",
	"http.rate_burst":          "rate-burst",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	v.SetDefault("store.backend", StoreBackendSQLite)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("search.default_page_size", 10)
	v.SetDefault("search.max_page_size", 50)
	v.SetDefault("search.quick_limit", 20)
	v.SetDefault("search.fields", []string{domain.FieldTitle, domain.FieldDescription, domain.FieldCategory})

	v.SetDefault("http.rate_limit", 20.0)
	v.SetDefault("http.rate_burst", 40)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	for key := range flagBindings {
		_ = v.BindEnv(key, envName(key))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Comma-separated env values arrive as a single element
	settings.Auth.APIKeys = splitList(settings.Auth.APIKeys)
	settings.Search.Fields = splitList(settings.Search.Fields)
	settings.HTTP.AllowedOrigins = splitList(settings.HTTP.AllowedOrigins)

	settings.Store.Backend = strings.ToLower(strings.TrimSpace(settings.Store.Backend))
	settings.Store.Path = expandHomeDir(settings.Store.Path)
	settings.Store.SeedFile = expandHomeDir(settings.Store.SeedFile)

	return &settings, nil
}

// envName returns the environment variable bound to a settings key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// defaultStorePath returns the default data directory
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".civic-search"
	}
	return filepath.Join(home, ".civic-search")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// splitList splits comma-separated entries, trims spaces and drops empty ones
func splitList(s []string) []string {
	var result []string
	for _, entry := range s {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if err := validateStoreSettings(&s.Store); err != nil {
		return err
	}
	if err := validateSearchSettings(&s.Search); err != nil {
		return err
	}
	return validateHTTPSettings(&s.HTTP)
}

// validateStoreSettings validates the store configuration
func validateStoreSettings(st *StoreSettings) error {
	switch st.Backend {
	case StoreBackendSQLite, StoreBackendBleve:
		if st.Path == "" {
			return fmt.Errorf("store-path cannot be empty for the %s backend", st.Backend)
		}
	case StoreBackendMemory:
		// no path needed
	default:
		return errors.New("store-backend must be 'sqlite', 'bleve' or 'memory', got: " + st.Backend)
	}
	return nil
}

// validateSearchSettings validates the search limits
func validateSearchSettings(se *SearchSettings) error {
	if se.DefaultPageSize <= 0 {
		return errors.New("default-page-size must be positive")
	}
	if se.MaxPageSize <= 0 {
		return errors.New("max-page-size must be positive")
	}
	if se.DefaultPageSize > se.MaxPageSize {
		return fmt.Errorf("default-page-size (%d) cannot exceed max-page-size (%d)", se.DefaultPageSize, se.MaxPageSize)
	}
	if se.QuickLimit <= 0 {
		return errors.New("quick-limit must be positive")
	}
	for _, f := range se.Fields {
		if !isSearchField(f) {
			return errors.New("unknown search field: " + f)
		}
	}
	return nil
}

// validateHTTPSettings validates the HTTP API configuration
func validateHTTPSettings(h *HTTPSettings) error {
	if h.RateLimit < 0 {
		return errors.New("rate-limit cannot be negative")
	}
	if h.RateLimit > 0 && h.RateBurst <= 0 {
		return errors.New("rate-burst must be positive when rate-limit is set")
	}
	return nil
}

// isSearchField reports whether name is a textual item field quick search can read.
func isSearchField(name string) bool {
	switch name {
	case domain.FieldKind, domain.FieldID, domain.FieldTitle, domain.FieldDescription,
		domain.FieldCategory, domain.FieldLocation:
		return true
	default:
		return false
	}
}
