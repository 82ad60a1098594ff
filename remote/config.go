package remote

import (
	"time"

	"github.com/rmrevin/ngrm/store"
)

// Config defines remote store settings.
type Config struct {
	Store store.Config `json:"store" toml:"store" envPrefix:"STORE_"`

	// DelayMs is the default delay applied before each request.
	DelayMs int `json:"delay_ms,omitempty" toml:"delay_ms,omitempty" env:"DELAY_MS"`
}

// DefaultConfig returns the default remote store configuration.
func DefaultConfig() Config {
	cfg := Config{Store: store.DefaultConfig()}
	cfg.Store.Name = "remote"
	return cfg
}

// Merge overlays non-zero values from source onto c.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	if source.DelayMs > 0 {
		c.DelayMs = source.DelayMs
	}
}

// Delay returns DelayMs as a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}
