// Package config provides configuration types for Touchline.
package config

import "time"

// Config represents the main Touchline configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Grounding GroundingConfig `toml:"grounding"`
	Routing   RoutingConfig   `toml:"routing"`
	Store     StoreConfig     `toml:"store"`
	Cache     CacheConfig     `toml:"cache"`
}

// ServerConfig contains HTTP transport settings.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	MaxMessageChars int      `toml:"max_message_chars"`
	RatePerSecond   float64  `toml:"rate_per_second"`
	RateBurst       int      `toml:"rate_burst"`
}

// GatewayConfig contains upstream API settings.
// The three keys come from the environment, never from the config file.
type GatewayConfig struct {
	GoogleAPIKey   string `toml:"-"`
	SearchAPIKey   string `toml:"-"`
	SearchEngineID string `toml:"-"`

	GeminiModel        string `toml:"gemini_model"`
	MaxSearchResults   int    `toml:"max_search_results"`
	RequestTimeoutSecs int    `toml:"request_timeout_secs"`
	MaxAttempts        int    `toml:"max_attempts"`
	BackoffBaseMillis  int    `toml:"backoff_base_millis"`
	CacheTTLSecs       int    `toml:"cache_ttl_secs"`
}

// RequestTimeout returns the per-call timeout.
func (g GatewayConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSecs) * time.Second
}

// BackoffBase returns the initial retry backoff delay.
func (g GatewayConfig) BackoffBase() time.Duration {
	return time.Duration(g.BackoffBaseMillis) * time.Millisecond
}

// CacheTTL returns how long memoized upstream results stay visible.
func (g GatewayConfig) CacheTTL() time.Duration {
	return time.Duration(g.CacheTTLSecs) * time.Second
}

// GroundingConfig tunes the needs-grounding heuristic.
// Two historical deployments disagreed on the substantial-answer threshold
// (50 vs 100 chars); 100 is the fixed product decision, overridable here.
type GroundingConfig struct {
	MinSubstantialChars   int      `toml:"min_substantial_chars"`
	IgnorancePhrases      []string `toml:"ignorance_phrases"`
	TimeSensitivePatterns []string `toml:"time_sensitive_patterns"`
}

// RoutingConfig tunes the agent state machine.
type RoutingConfig struct {
	DefaultAgent   string   `toml:"default_agent"`
	ReturnToTriage []string `toml:"return_to_triage"`
}

// StoreConfig contains conversation persistence settings.
type StoreConfig struct {
	Path             string `toml:"path"`
	MaxAgeHours      int    `toml:"max_age_hours"`
	ReapIntervalMins int    `toml:"reap_interval_mins"`
}

// MaxAge returns the reaping age threshold.
func (s StoreConfig) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeHours) * time.Hour
}

// ReapInterval returns how often the reaper runs.
func (s StoreConfig) ReapInterval() time.Duration {
	return time.Duration(s.ReapIntervalMins) * time.Minute
}

// CacheConfig bounds the in-process TTL cache.
type CacheConfig struct {
	MaxEntries        int `toml:"max_entries"`
	SweepIntervalSecs int `toml:"sweep_interval_secs"`
}

// SweepInterval returns how often expired entries are evicted.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}
