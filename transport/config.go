package transport

import "time"

// Config defines HTTP client settings.
type Config struct {
	BaseURL   string `json:"base_url,omitempty" toml:"base_url,omitempty" env:"BASE_URL"`
	TimeoutMs int    `json:"timeout_ms,omitempty" toml:"timeout_ms,omitempty" env:"TIMEOUT_MS"`
	UserAgent string `json:"user_agent,omitempty" toml:"user_agent,omitempty" env:"USER_AGENT"`
}

// DefaultConfig returns the default HTTP client configuration.
func DefaultConfig() Config {
	return Config{
		TimeoutMs: 10000,
		UserAgent: "ngrm/0.1",
	}
}

// Merge overlays non-zero values from source onto c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.TimeoutMs > 0 {
		c.TimeoutMs = source.TimeoutMs
	}
	if source.UserAgent != "" {
		c.UserAgent = source.UserAgent
	}
}

// Timeout returns TimeoutMs as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
