// Package config provides configuration management for the application.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/amaumene/streamhub/internal/constants"
	apperrors "github.com/amaumene/streamhub/internal/errors"
)

const (
	// Default configuration file name
	defaultConfigFile = "config.json"
	// Default database path
	defaultDatabasePath = "./cache.db"
)

// Config holds the application configuration.
// It supports loading from a .env file, environment variables and JSON files.
type Config struct {
	Port string `json:"PORT"`

	// Serve HTTPS with a local-ip.sh certificate for LAN installs.
	LocalTLS bool `json:"LOCAL_TLS"`

	// API Keys
	TMDBAPIKey       string `json:"TMDB_API_KEY"`
	APIKeyAllDebrid  string `json:"API_KEY_ALLDEBRID"`
	APIKeyRealDebrid string `json:"API_KEY_REALDEBRID"`

	// Storage settings
	DatabasePath string        `json:"DATABASE_PATH"`
	CacheSize    int           `json:"CACHE_SIZE"`
	CacheTTL     time.Duration `json:"CACHE_TTL"`

	// Content filtering
	ExcludePatterns  []string `json:"EXCLUDE_PATTERNS"`
	MaxSizeGB        float64  `json:"MAX_SIZE_GB"`
	MinMovieSizeMB   int      `json:"MIN_MOVIE_SIZE_MB"`
	MinEpisodeSizeMB int      `json:"MIN_EPISODE_SIZE_MB"`
	FuzzyThreshold   int      `json:"FUZZY_THRESHOLD"`

	// Aggregation
	EarlyExit4K      int           `json:"EARLY_EXIT_4K"`
	EarlyExit1080p   int           `json:"EARLY_EXIT_1080P"`
	AdapterTimeout   time.Duration `json:"ADAPTER_TIMEOUT"`
	AggregateTimeout time.Duration `json:"AGGREGATE_TIMEOUT"`
	EnabledSources   []string      `json:"ENABLED_SOURCES"`
	UpstreamAddons   []string      `json:"UPSTREAM_ADDONS"`

	// Debrid cache checks
	DebridTimeout    time.Duration `json:"DEBRID_TIMEOUT"`
	DebridBatchSize  int           `json:"DEBRID_BATCH_SIZE"`
	DebridBatchDelay time.Duration `json:"DEBRID_BATCH_DELAY"`

	// Response cache
	ResponseCacheMB  int           `json:"RESPONSE_CACHE_MB"`
	ResponseCacheTTL time.Duration `json:"RESPONSE_CACHE_TTL"`

	excludeRegexps []*regexp.Regexp
}

// Default returns a configuration populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Port:             constants.DefaultPort,
		DatabasePath:     defaultDatabasePath,
		CacheSize:        constants.DefaultCacheSize,
		CacheTTL:         time.Duration(constants.DefaultCacheTTL) * time.Hour,
		MinMovieSizeMB:   constants.DefaultMinMovieSizeMB,
		MinEpisodeSizeMB: constants.DefaultMinEpisodeSizeMB,
		FuzzyThreshold:   constants.DefaultFuzzyThreshold,
		EarlyExit4K:      constants.DefaultEarlyExit4K,
		EarlyExit1080p:   constants.DefaultEarlyExit1080p,
		AdapterTimeout:   constants.DefaultAdapterTimeout,
		AggregateTimeout: constants.DefaultAggregateTimeout,
		EnabledSources:   append([]string{}, constants.DefaultSources...),
		DebridTimeout:    constants.DefaultDebridTimeout,
		DebridBatchSize:  constants.DefaultDebridBatchSize,
		DebridBatchDelay: constants.DefaultDebridBatchDelay,
		ResponseCacheMB:  constants.DefaultResponseCacheMB,
		ResponseCacheTTL: constants.DefaultResponseCacheTTL,
	}
}

// Load reads configuration from .env, environment variables and an optional
// JSON file, in that order. Returns an error if the configuration is invalid.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	cfg.loadFromEnv()

	configFile := getEnvOrDefault("CONFIG_FILE", defaultConfigFile)
	if err := cfg.loadFromFile(configFile); err != nil {
		// Ignore file not found errors
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	setString(&c.Port, "PORT")
	setString(&c.TMDBAPIKey, "TMDB_API_KEY")
	setString(&c.APIKeyAllDebrid, "API_KEY_ALLDEBRID")
	setString(&c.APIKeyRealDebrid, "API_KEY_REALDEBRID")
	setString(&c.DatabasePath, "DATABASE_PATH")

	setInt(&c.CacheSize, "CACHE_SIZE")
	setInt(&c.MinMovieSizeMB, "MIN_MOVIE_SIZE_MB")
	setInt(&c.MinEpisodeSizeMB, "MIN_EPISODE_SIZE_MB")
	setInt(&c.FuzzyThreshold, "FUZZY_THRESHOLD")
	setInt(&c.EarlyExit4K, "EARLY_EXIT_4K")
	setInt(&c.EarlyExit1080p, "EARLY_EXIT_1080P")
	setInt(&c.DebridBatchSize, "DEBRID_BATCH_SIZE")
	setInt(&c.ResponseCacheMB, "RESPONSE_CACHE_MB")

	setDuration(&c.CacheTTL, "CACHE_TTL")
	setDuration(&c.AdapterTimeout, "ADAPTER_TIMEOUT")
	setDuration(&c.AggregateTimeout, "AGGREGATE_TIMEOUT")
	setDuration(&c.DebridTimeout, "DEBRID_TIMEOUT")
	setDuration(&c.DebridBatchDelay, "DEBRID_BATCH_DELAY")
	setDuration(&c.ResponseCacheTTL, "RESPONSE_CACHE_TTL")

	if v := os.Getenv("MAX_SIZE_GB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxSizeGB = f
		}
	}

	if v := os.Getenv("LOCAL_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LocalTLS = b
		}
	}

	setList(&c.ExcludePatterns, "EXCLUDE_PATTERNS", ";")
	setList(&c.EnabledSources, "ENABLED_SOURCES", ",")
	setList(&c.UpstreamAddons, "UPSTREAM_ADDONS", ",")
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

// Validate compiles the exclusion patterns and resets non-positive tuning
// values to their defaults.
func (c *Config) Validate() error {
	d := Default()

	if c.Port == "" {
		c.Port = d.Port
	}
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	clampInt(&c.CacheSize, d.CacheSize)
	clampInt(&c.MinMovieSizeMB, d.MinMovieSizeMB)
	clampInt(&c.MinEpisodeSizeMB, d.MinEpisodeSizeMB)
	clampInt(&c.EarlyExit4K, d.EarlyExit4K)
	clampInt(&c.EarlyExit1080p, d.EarlyExit1080p)
	clampInt(&c.DebridBatchSize, d.DebridBatchSize)
	clampInt(&c.ResponseCacheMB, d.ResponseCacheMB)
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 100 {
		c.FuzzyThreshold = d.FuzzyThreshold
	}
	if c.MaxSizeGB < 0 {
		c.MaxSizeGB = 0
	}

	clampDuration(&c.CacheTTL, d.CacheTTL)
	clampDuration(&c.AdapterTimeout, d.AdapterTimeout)
	clampDuration(&c.AggregateTimeout, d.AggregateTimeout)
	clampDuration(&c.DebridTimeout, d.DebridTimeout)
	clampDuration(&c.ResponseCacheTTL, d.ResponseCacheTTL)
	if c.DebridBatchDelay < 0 {
		c.DebridBatchDelay = d.DebridBatchDelay
	}

	if len(c.EnabledSources) == 0 {
		c.EnabledSources = d.EnabledSources
	}

	compiled := make([]*regexp.Regexp, 0, len(c.ExcludePatterns))
	for _, p := range c.ExcludePatterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid exclude pattern %q", p), err)
		}
		compiled = append(compiled, re)
	}
	c.excludeRegexps = compiled

	return nil
}

// ExcludeRegexps returns the compiled exclusion patterns.
func (c *Config) ExcludeRegexps() []*regexp.Regexp {
	return c.excludeRegexps
}

// MaxSizeBytes returns the size ceiling, 0 when unset.
func (c *Config) MaxSizeBytes() int64 {
	return int64(c.MaxSizeGB * constants.BytesPerGB)
}

// MinSizeBytes returns the plausible-size floor for a media type.
func (c *Config) MinSizeBytes(mediaType string) int64 {
	if mediaType == "series" {
		return int64(c.MinEpisodeSizeMB) * constants.BytesPerMB
	}
	return int64(c.MinMovieSizeMB) * constants.BytesPerMB
}

// SourceEnabled reports whether the named adapter is switched on.
func (c *Config) SourceEnabled(name string) bool {
	for _, s := range c.EnabledSources {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// HasDebrid reports whether any debrid provider key is configured.
func (c *Config) HasDebrid() bool {
	return c.APIKeyAllDebrid != "" || c.APIKeyRealDebrid != ""
}

// CreateFromUserData creates a config from user-provided data and existing config.
// User data takes precedence over base config values.
func CreateFromUserData(userConfig map[string]interface{}, baseConfig *Config) (*Config, error) {
	cfg := Default()

	if baseConfig != nil {
		cfg.copyFrom(baseConfig)
	}

	cfg.applyUserConfig(userConfig)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// copyFrom copies all fields from another config.
func (c *Config) copyFrom(src *Config) {
	*c = *src
	c.ExcludePatterns = append([]string{}, src.ExcludePatterns...)
	c.EnabledSources = append([]string{}, src.EnabledSources...)
	c.UpstreamAddons = append([]string{}, src.UpstreamAddons...)
	c.excludeRegexps = nil
}

// applyUserConfig applies user-provided configuration overrides.
func (c *Config) applyUserConfig(userConfig map[string]interface{}) {
	if val, ok := userConfig["API_KEY_ALLDEBRID"].(string); ok {
		c.APIKeyAllDebrid = val
	}
	if val, ok := userConfig["API_KEY_REALDEBRID"].(string); ok {
		c.APIKeyRealDebrid = val
	}
	if val, ok := userConfig["TMDB_API_KEY"].(string); ok && val != "" {
		c.TMDBAPIKey = val
	}

	if arr, ok := userConfig["EXCLUDE_PATTERNS"].([]interface{}); ok {
		c.ExcludePatterns = convertToStringSlice(arr)
	}
	if arr, ok := userConfig["ENABLED_SOURCES"].([]interface{}); ok {
		c.EnabledSources = convertToStringSlice(arr)
	}

	// JSON numbers decode as float64.
	if val, ok := userConfig["MAX_SIZE_GB"].(float64); ok {
		c.MaxSizeGB = val
	}
}

// convertToStringSlice converts interface slice to string slice.
func convertToStringSlice(arr []interface{}) []string {
	result := make([]string, 0, len(arr))
	for _, v := range arr {
		if str, ok := v.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setList(dst *[]string, key, sep string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func clampInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func clampDuration(v *time.Duration, def time.Duration) {
	if *v <= 0 {
		*v = def
	}
}
