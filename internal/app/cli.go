package app

import "github.com/spf13/pflag"

// RegisterFlags registers the server CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.StringSlice("allowed-origins", nil, "Browser origins allowed to call the JSON API (comma-separated)")
	flags.Float64("rate-limit", 0, "Requests per second across the HTTP server, 0 disables")
	flags.Int("rate-burst", 0, "Rate limiter burst size")
}

// RegisterStoreFlags registers the store and search flags shared by every
// command.
func RegisterStoreFlags(flags *pflag.FlagSet) {
	flags.StringP("store-backend", "s", "", "Record store: sqlite, bleve, or memory")
	flags.StringP("store-path", "d", "", "Data directory for persistent stores")
	flags.String("seed-file", "", "TOML fixture loaded into the store at startup")
	flags.Int("default-page-size", 0, "Results per page when a search sets none")
	flags.Int("max-page-size", 0, "Upper bound on a requested page size")
	flags.Int("quick-limit", 0, "Quick search hit limit when a request sets none")
	flags.StringSlice("search-fields", nil, "Item fields read by quick search (comma-separated)")
}

// RegisterSearchFlags registers the flags of the one-shot search command
func RegisterSearchFlags(flags *pflag.FlagSet) {
	flags.StringP("lang", "l", "", "Requested language: en, es, fr, hi, zh, ar or sw")
	flags.StringSliceP("category", "c", nil, "Issue category allow-list (comma-separated)")
	flags.String("sort", "", "Sort mode: relevance, recent or trust")
	flags.Int("page", 1, "1-based page number")
	flags.Int("page-size", 0, "Results per page")
	flags.Float64("min-trust", 0, "Minimum trust score (0-100)")
	flags.String("connectivity", "", "Caller network quality: high, medium or low")
	flags.Bool("exclude-issues", false, "Skip issues")
	flags.Bool("exclude-communities", false, "Skip communities")
	flags.BoolP("quick", "q", false, "Run a contextual quick search instead")
	flags.String("location", "", "Caller location for quick search boosts")
	flags.StringSlice("kind", nil, "Quick search content kinds: issue, community, profile")
	flags.Int("limit", 0, "Quick search hit limit")
	flags.Bool("json", false, "Print results as JSON")
}
