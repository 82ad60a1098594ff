// Package config aggregates the configuration of every ngrm subsystem and
// loads it from a file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/rmrevin/ngrm/persist"
	"github.com/rmrevin/ngrm/remote"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/transport"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NGRM_"

// Config holds initialization parameters for all subsystems.
type Config struct {
	Store     store.Config     `json:"store" toml:"store" envPrefix:"STORE_"`
	Remote    remote.Config    `json:"remote" toml:"remote" envPrefix:"REMOTE_"`
	Persist   persist.Config   `json:"persist" toml:"persist" envPrefix:"PERSIST_"`
	Transport transport.Config `json:"transport" toml:"transport" envPrefix:"TRANSPORT_"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Store:     store.DefaultConfig(),
		Remote:    remote.DefaultConfig(),
		Persist:   persist.DefaultConfig(),
		Transport: transport.DefaultConfig(),
	}
}

// Merge applies values set in source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Remote.Merge(&source.Remote)
	c.Persist.Merge(&source.Persist)
	c.Transport.Merge(&source.Transport)
}

// Load merges the file at path and then the environment onto the defaults.
// An empty path skips the file. The format follows the extension: .toml is
// TOML, anything else is JSON.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		loaded, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(loaded)
	}

	var fromEnv Config
	if err := ParseEnv(&fromEnv); err != nil {
		return nil, err
	}
	cfg.Merge(&fromEnv)

	return &cfg, nil
}

// ReadFile parses a config file without applying defaults.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &loaded, nil
}

// ParseEnv fills target from NGRM_ prefixed environment variables.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
