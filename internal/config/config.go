// Package config handles Touchline configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			AllowedOrigins:  []string{"http://localhost:3000"},
			MaxMessageChars: 1000,
			RatePerSecond:   10,
			RateBurst:       20,
		},
		Gateway: GatewayConfig{
			GeminiModel:        "gemini-1.5-flash",
			MaxSearchResults:   5,
			RequestTimeoutSecs: 10,
			MaxAttempts:        3,
			BackoffBaseMillis:  1000,
			CacheTTLSecs:       300,
		},
		Grounding: GroundingConfig{
			MinSubstantialChars: 100,
			IgnorancePhrases: []string{
				"i don't have information about",
				"i don't know",
				"i cannot provide",
				"i don't have access to",
				"i don't have current",
				"i don't have up-to-date",
				"i don't have recent",
				"not available in my training data",
			},
			TimeSensitivePatterns: []string{
				`\b(2025|2026)\b`,
				`\b(latest|recent|current|today|now)\b`,
				`\b(fixtures?|schedule|upcoming)\b`,
				`\b(transfer|signing|news)\b`,
			},
		},
		Routing: RoutingConfig{
			DefaultAgent:   "Premier League Agent",
			ReturnToTriage: []string{"transfer", "triage", "different", "other"},
		},
		Store: StoreConfig{
			Path:             "touchline.db",
			MaxAgeHours:      24,
			ReapIntervalMins: 60,
		},
		Cache: CacheConfig{
			MaxEntries:        1000,
			SweepIntervalSecs: 60,
		},
	}
}

// Load loads the configuration from the given path, then applies
// environment overrides. A missing file yields defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv pulls credentials from the environment. Credentials never
// live in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Gateway.GoogleAPIKey = v
	}
	if v := os.Getenv("GOOGLE_CUSTOM_SEARCH_API_KEY"); v != "" {
		c.Gateway.SearchAPIKey = v
	}
	if v := os.Getenv("GOOGLE_CUSTOM_SEARCH_ENGINE_ID"); v != "" {
		c.Gateway.SearchEngineID = v
	}
	if v := os.Getenv("TOUCHLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TOUCHLINE_DB"); v != "" {
		c.Store.Path = v
	}
}

// Validate checks that required credentials are present.
// The process must refuse to serve rather than fail per-request.
func (c *Config) Validate() error {
	var missing []string
	if c.Gateway.GoogleAPIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.Gateway.SearchAPIKey == "" {
		missing = append(missing, "GOOGLE_CUSTOM_SEARCH_API_KEY")
	}
	if c.Gateway.SearchEngineID == "" {
		missing = append(missing, "GOOGLE_CUSTOM_SEARCH_ENGINE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Save writes the configuration to the given path.
func (c *Config) Save(configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}
