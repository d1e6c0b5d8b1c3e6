package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	// BackendURL is the full search endpoint of a SearXNG-compatible instance.
	BackendURL string `yaml:"backend_url"`
	// IgnoredWebsites is a comma-separated list of site tokens. A candidate
	// whose scheme://host contains any token is skipped.
	IgnoredWebsites string `yaml:"ignored_websites"`
	// ReturnedPages is the number of successfully scraped pages to return.
	// It is also sent to the backend as the number_of_results hint.
	ReturnedPages int `yaml:"returned_pages"`
	// MaxPages caps how many backend candidates are considered. ReturnedPages
	// is clamped to MaxPages at request time, not here.
	MaxPages int `yaml:"max_pages"`
	// PageWordLimit truncates normalized page content to this many words.
	PageWordLimit int `yaml:"page_word_limit"`
	// Citations enables per-result citation events on the bus.
	Citations bool `yaml:"citations"`
	// ReaderBaseURL is prefixed to target URLs so pages are fetched through a
	// reader proxy. Empty means fetch pages directly. Fetched bodies go
	// through the same normalization pipeline either way.
	ReaderBaseURL string `yaml:"reader_base_url"`
	// RemoveLinks replaces parenthesized http(s) URLs in content with "(links)".
	RemoveLinks bool `yaml:"remove_links"`
	// QueryTimeout bounds the backend search request.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the search backend.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// FetchConfig holds page fetcher settings.
type FetchConfig struct {
	UserAgent string `yaml:"user_agent"`
	// PageTimeout bounds each bulk search-result fetch.
	PageTimeout time.Duration `yaml:"page_timeout"`
	// SinglePageTimeout bounds an explicit single-page fetch.
	SinglePageTimeout time.Duration `yaml:"single_page_timeout"`
	// MaxBodySize caps how many bytes are read from a page body.
	MaxBodySize int64 `yaml:"max_body_size"`
	// RateLimit is the outbound fetch rate in requests per second. 0 = unlimited.
	RateLimit float64 `yaml:"rate_limit"`
	// Renderer selects the fetch implementation: "" / "http" for plain GET,
	// "chromedp" for a headless browser that renders JS before extraction.
	Renderer string `yaml:"renderer"`
	// ChromeCDPURL is the CDP websocket of a remote Chrome. Empty launches a
	// local instance (chromedp renderer only).
	ChromeCDPURL   string `yaml:"chrome_cdp_url"`
	ChromeHeadless bool   `yaml:"chrome_headless"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // stdout, noop
}

// Config is the top-level application configuration.
type Config struct {
	Search SearchConfig `yaml:"search"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		Search: SearchConfig{
			BackendURL:      "http://localhost:8888/search",
			IgnoredWebsites: "",
			ReturnedPages:   3,
			MaxPages:        5,
			PageWordLimit:   5000,
			Citations:       false,
			ReaderBaseURL:   "https://r.jina.ai/",
			RemoveLinks:     true,
			QueryTimeout:    120 * time.Second,
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Fetch: FetchConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3",
			PageTimeout:       20 * time.Second,
			SinglePageTimeout: 120 * time.Second,
			MaxBodySize:       4 * 1024 * 1024,
			RateLimit:         0,
			Renderer:          "http",
			ChromeHeadless:    true,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads the YAML config at path, applies env overrides and validates.
// A missing file is not an error: defaults plus env overrides are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides overlays WEBSKIM_* environment variables onto cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBSKIM_SEARCH_BACKEND_URL"); v != "" {
		cfg.Search.BackendURL = v
	}
	if v := os.Getenv("WEBSKIM_SEARCH_IGNORED_WEBSITES"); v != "" {
		cfg.Search.IgnoredWebsites = v
	}
	if v := os.Getenv("WEBSKIM_SEARCH_RETURNED_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.ReturnedPages = n
		}
	}
	if v := os.Getenv("WEBSKIM_SEARCH_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.MaxPages = n
		}
	}
	if v := os.Getenv("WEBSKIM_SEARCH_PAGE_WORD_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Search.PageWordLimit = n
		}
	}
	if v := os.Getenv("WEBSKIM_SEARCH_CITATIONS"); v == "true" {
		cfg.Search.Citations = true
	}
	if v := os.Getenv("WEBSKIM_SEARCH_READER_BASE_URL"); v != "" {
		cfg.Search.ReaderBaseURL = v
	}
	if v := os.Getenv("WEBSKIM_SEARCH_REMOVE_LINKS"); v == "false" {
		cfg.Search.RemoveLinks = false
	}
	if v := os.Getenv("WEBSKIM_FETCH_USER_AGENT"); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if v := os.Getenv("WEBSKIM_FETCH_PAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Fetch.PageTimeout = d
		}
	}
	if v := os.Getenv("WEBSKIM_FETCH_SINGLE_PAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Fetch.SinglePageTimeout = d
		}
	}
	if v := os.Getenv("WEBSKIM_FETCH_RENDERER"); v != "" {
		cfg.Fetch.Renderer = v
	}
	if v := os.Getenv("WEBSKIM_FETCH_CHROME_CDP_URL"); v != "" {
		cfg.Fetch.ChromeCDPURL = v
	}
	if v := os.Getenv("WEBSKIM_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("WEBSKIM_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("WEBSKIM_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("WEBSKIM_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("WEBSKIM_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// IgnoredSites splits the configured comma-separated ignore list into
// trimmed, non-empty tokens.
func (c SearchConfig) IgnoredSites() []string {
	return splitAndTrim(c.IgnoredWebsites, ",")
}

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError listing every problem found.
//
// ReturnedPages > MaxPages is deliberately legal here: the clamp is applied
// per request, so the two knobs stay independently tunable.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	if cfg.Search.BackendURL == "" {
		ve.Add("search.backend_url is required")
	}
	if cfg.Search.ReturnedPages <= 0 {
		ve.Add("search.returned_pages must be > 0 (got %d)", cfg.Search.ReturnedPages)
	}
	if cfg.Search.MaxPages <= 0 {
		ve.Add("search.max_pages must be > 0 (got %d)", cfg.Search.MaxPages)
	}
	if cfg.Search.PageWordLimit <= 0 {
		ve.Add("search.page_word_limit must be > 0 (got %d)", cfg.Search.PageWordLimit)
	}
	if cfg.Search.QueryTimeout <= 0 {
		ve.Add("search.query_timeout must be > 0")
	}

	switch cfg.Fetch.Renderer {
	case "", "http", "chromedp":
	default:
		ve.Add("fetch.renderer must be \"http\" or \"chromedp\" (got %q)", cfg.Fetch.Renderer)
	}
	if cfg.Fetch.PageTimeout <= 0 {
		ve.Add("fetch.page_timeout must be > 0")
	}
	if cfg.Fetch.SinglePageTimeout <= 0 {
		ve.Add("fetch.single_page_timeout must be > 0")
	}
	if cfg.Fetch.MaxBodySize <= 0 {
		ve.Add("fetch.max_body_size must be > 0")
	}
	if cfg.Fetch.RateLimit < 0 {
		ve.Add("fetch.rate_limit must be >= 0 (got %v)", cfg.Fetch.RateLimit)
	}

	switch strings.ToLower(cfg.Logger.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level must be one of debug, info, warn, error (got %q)", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format must be \"text\" or \"json\" (got %q)", cfg.Logger.Format)
	}

	switch cfg.Tracer.Exporter {
	case "", "stdout", "noop":
	default:
		ve.Add("tracer.exporter must be \"stdout\" or \"noop\" (got %q)", cfg.Tracer.Exporter)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
