package persist

import (
	"github.com/rmrevin/ngrm/cache"
	"github.com/rmrevin/ngrm/store"
)

// Config defines persistence settings.
type Config struct {
	Store    store.Config `json:"store" toml:"store" envPrefix:"STORE_"`
	Autoload *bool        `json:"autoload,omitempty" toml:"autoload,omitempty" env:"AUTOLOAD"`
	Autosave *bool        `json:"autosave,omitempty" toml:"autosave,omitempty" env:"AUTOSAVE"`
	Cache    cache.Config `json:"cache" toml:"cache" envPrefix:"CACHE_"`
}

// DefaultConfig returns the default persistence configuration: autoload and
// autosave on, in-memory cache.
func DefaultConfig() Config {
	on := true
	autosave := true
	cfg := Config{
		Store:    store.DefaultConfig(),
		Autoload: &on,
		Autosave: &autosave,
		Cache:    cache.DefaultConfig(),
	}
	cfg.Store.Name = "persist"
	return cfg
}

// Merge overlays values set in source onto c.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	if source.Autoload != nil {
		v := *source.Autoload
		c.Autoload = &v
	}
	if source.Autosave != nil {
		v := *source.Autosave
		c.Autosave = &v
	}
	c.Cache.Merge(&source.Cache)
}

// AutoloadEnabled reports the effective autoload setting.
func (c *Config) AutoloadEnabled() bool { return c.Autoload == nil || *c.Autoload }

// AutosaveEnabled reports the effective autosave setting.
func (c *Config) AutosaveEnabled() bool { return c.Autosave == nil || *c.Autosave }
