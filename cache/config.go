package cache

import (
	"context"
	"fmt"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds cache store initialization parameters.
type Config struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `json:"backend,omitempty" toml:"backend,omitempty" env:"BACKEND"`
	// Path is the file store root directory or the SQLite database file.
	Path string `json:"path,omitempty" toml:"path,omitempty" env:"PATH"`
	// Key names the entry holding the persisted state.
	Key string `json:"key,omitempty" toml:"key,omitempty" env:"KEY"`
	// Codec is "json" or "toml".
	Codec string `json:"codec,omitempty" toml:"codec,omitempty" env:"CODEC"`
	// WriteBack buffers writes in memory until the item is flushed.
	WriteBack bool `json:"write_back,omitempty" toml:"write_back,omitempty" env:"WRITE_BACK"`
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Key:     "state",
		Codec:   "json",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.Key != "" {
		c.Key = source.Key
	}
	if source.Codec != "" {
		c.Codec = source.Codec
	}
	if source.WriteBack {
		c.WriteBack = true
	}
}

// NewStore creates a Store from configuration. Stores that hold resources
// implement io.Closer.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		s = NewFileStore(cfg.Path)
	case BackendSQLite:
		s, err = OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}

	if cfg.WriteBack {
		s = NewBuffer(s)
	}
	return s, nil
}

// NewConfiguredItem creates the configured store and binds cfg.Key to the configured
// codec.
func NewConfiguredItem[T any](ctx context.Context, cfg *Config) (*Item[T], Store, error) {
	codec, err := CodecByName[T](cfg.Codec)
	if err != nil {
		return nil, nil, err
	}
	s, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	key := cfg.Key
	if key == "" {
		key = "state"
	}
	return NewItem(s, key, codec), s, nil
}
