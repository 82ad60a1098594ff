package store

import (
	"fmt"

	"github.com/rmrevin/ngrm/observability"
)

// Config defines store construction settings.
type Config struct {
	// Name identifies the store in emitted events.
	Name string `json:"name,omitempty" toml:"name,omitempty" env:"NAME"`

	// Observer is a comma-separated list of registered observer names, such
	// as "slog" or "slog,otel".
	Observer string `json:"observer,omitempty" toml:"observer,omitempty" env:"OBSERVER"`

	// MaxDispatchDepth bounds chains of effect-emitted actions. Zero means
	// unbounded.
	MaxDispatchDepth int `json:"max_dispatch_depth,omitempty" toml:"max_dispatch_depth,omitempty" env:"MAX_DISPATCH_DEPTH"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Name:     "store",
		Observer: "slog",
	}
}

// Merge overlays non-zero values from source onto c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.MaxDispatchDepth > 0 {
		c.MaxDispatchDepth = source.MaxDispatchDepth
	}
}

// ConfigOptions resolves cfg into store options.
func ConfigOptions[T any](cfg *Config) ([]Option[T], error) {
	opts := []Option[T]{
		WithName[T](cfg.Name),
		WithMaxDispatchDepth[T](cfg.MaxDispatchDepth),
	}
	if cfg.Observer != "" {
		obs, err := observability.Resolve(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("store observer: %w", err)
		}
		opts = append(opts, WithObserver[T](obs))
	}
	return opts, nil
}
