package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default upstream endpoints.
const (
	DefaultFeedURL          = "https://calendar.duke.edu/events/index.json"
	DefaultClassifyEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"
)

// Environment variables that override file configuration.
const (
	EnvAPIKey       = "EVENTRANK_GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvFeedURL      = "EVENTRANK_FEED_URL"
	EnvRankURL      = "EVENTRANK_RANK_URL"
	EnvEnvironment  = "EVENTRANK_ENV"
)

// Config holds application configuration.
type Config struct {
	// Environment selects the log encoder: "production" (JSON) or anything else (console).
	Environment string `json:"environment,omitempty"`

	// Bind and Port are the HTTP listen address for `serve`.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// FeedURL is the upstream calendar JSON endpoint (future_days is appended).
	FeedURL string `json:"feed_url,omitempty"`

	// FutureDays is the default look-ahead window when a request omits it.
	FutureDays int `json:"future_days,omitempty"`

	// ClassifyEndpoint is the generative classification endpoint; the API key
	// is sent as the `key` query parameter.
	ClassifyEndpoint string `json:"classify_endpoint,omitempty"`

	// ClassifyAPIKey is usually supplied through EVENTRANK_GEMINI_API_KEY.
	// When empty the heuristic classifier is used for every event.
	ClassifyAPIKey string `json:"classify_api_key,omitempty"`

	ClassifyTemperature float64 `json:"classify_temperature,omitempty"`
	ClassifyMaxTokens   int     `json:"classify_max_tokens,omitempty"`

	// ClassifyBatchSize is the number of concurrent classification calls per wave.
	ClassifyBatchSize int `json:"classify_batch_size,omitempty"`

	// ClassifyBatchDelayMs is the fixed pause between waves.
	ClassifyBatchDelayMs int `json:"classify_batch_delay_ms,omitempty"`

	// RankEndpoint, if set, delegates scoring to an external ranking service.
	// Empty means rank locally from classifications.
	RankEndpoint string `json:"rank_endpoint,omitempty"`

	// HTTPTimeoutSec bounds every outbound HTTP call.
	HTTPTimeoutSec int `json:"http_timeout_sec,omitempty"`

	// MaxResponseBytes caps upstream response bodies.
	MaxResponseBytes int64 `json:"max_response_bytes,omitempty"`

	// CacheLRUSize is the number of classifications kept decoded in memory.
	CacheLRUSize int `json:"cache_lru_size,omitempty"`

	// MajorsFile optionally replaces the embedded majors catalog.
	MajorsFile string `json:"majors_file,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools lists MCP tool names to leave unregistered.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Environment:          "development",
		Bind:                 "127.0.0.1",
		Port:                 3000,
		FeedURL:              DefaultFeedURL,
		FutureDays:           30,
		ClassifyEndpoint:     DefaultClassifyEndpoint,
		ClassifyTemperature:  0.3,
		ClassifyMaxTokens:    1024,
		ClassifyBatchSize:    5,
		ClassifyBatchDelayMs: 1000,
		HTTPTimeoutSec:       15,
		MaxResponseBytes:     16 << 20,
		CacheLRUSize:         2048,
	}
}

// BatchDelay returns ClassifyBatchDelayMs as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.ClassifyBatchDelayMs) * time.Millisecond
}

// HTTPTimeout returns HTTPTimeoutSec as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// Load loads configuration from baseDir/config.json and applies environment
// overrides. Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.eventrank.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return ApplyEnv(cfg, os.Getenv), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// ApplyEnv overlays environment variables on cfg. getenv is injected so
// tests do not depend on the process environment.
func ApplyEnv(cfg *Config, getenv func(string) string) *Config {
	if key := strings.TrimSpace(getenv(EnvAPIKey)); key != "" {
		cfg.ClassifyAPIKey = key
	} else if key := strings.TrimSpace(getenv(EnvGoogleAPIKey)); key != "" && cfg.ClassifyAPIKey == "" {
		cfg.ClassifyAPIKey = key
	}
	if v := strings.TrimSpace(getenv(EnvFeedURL)); v != "" {
		cfg.FeedURL = v
	}
	if v := strings.TrimSpace(getenv(EnvRankURL)); v != "" {
		cfg.RankEndpoint = v
	}
	if v := strings.TrimSpace(getenv(EnvEnvironment)); v != "" {
		cfg.Environment = v
	}
	return cfg
}

// Merge combines base and overlay configs.
// Overlay values take precedence when non-zero.
func Merge(base, overlay *Config) *Config {
	return &Config{
		Environment:          firstString(overlay.Environment, base.Environment),
		Bind:                 firstString(overlay.Bind, base.Bind),
		Port:                 firstInt(overlay.Port, base.Port),
		FeedURL:              firstString(overlay.FeedURL, base.FeedURL),
		FutureDays:           firstInt(overlay.FutureDays, base.FutureDays),
		ClassifyEndpoint:     firstString(overlay.ClassifyEndpoint, base.ClassifyEndpoint),
		ClassifyAPIKey:       firstString(overlay.ClassifyAPIKey, base.ClassifyAPIKey),
		ClassifyTemperature:  firstFloat(overlay.ClassifyTemperature, base.ClassifyTemperature),
		ClassifyMaxTokens:    firstInt(overlay.ClassifyMaxTokens, base.ClassifyMaxTokens),
		ClassifyBatchSize:    firstInt(overlay.ClassifyBatchSize, base.ClassifyBatchSize),
		ClassifyBatchDelayMs: firstInt(overlay.ClassifyBatchDelayMs, base.ClassifyBatchDelayMs),
		RankEndpoint:         firstString(overlay.RankEndpoint, base.RankEndpoint),
		HTTPTimeoutSec:       firstInt(overlay.HTTPTimeoutSec, base.HTTPTimeoutSec),
		MaxResponseBytes:     firstInt64(overlay.MaxResponseBytes, base.MaxResponseBytes),
		CacheLRUSize:         firstInt(overlay.CacheLRUSize, base.CacheLRUSize),
		MajorsFile:           firstString(overlay.MajorsFile, base.MajorsFile),
		DBMaxOpenConns:       firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:       firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		DisabledTools:        firstSlice(overlay.DisabledTools, base.DisabledTools),
	}
}

func firstSlice(a, b []string) []string {
	if a != nil {
		return a
	}
	return b
}

func firstString(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func firstInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstInt64(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}

func firstFloat(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}
