package cache_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/rmrevin/ngrm/cache"
)

func TestConfig_Merge(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Merge(&cache.Config{Backend: cache.BackendFile, Path: "/tmp/x", WriteBack: true})

	if cfg.Backend != cache.BackendFile || cfg.Path != "/tmp/x" || !cfg.WriteBack {
		t.Errorf("merged = %+v", cfg)
	}
	if cfg.Key != "state" || cfg.Codec != "json" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     cache.Config
		wantErr bool
	}{
		{name: "default memory", cfg: cache.DefaultConfig()},
		{name: "file", cfg: cache.Config{Backend: cache.BackendFile, Path: dir}},
		{name: "file without path", cfg: cache.Config{Backend: cache.BackendFile}, wantErr: true},
		{name: "sqlite", cfg: cache.Config{Backend: cache.BackendSQLite, Path: filepath.Join(dir, "c.db")}},
		{name: "sqlite in memory", cfg: cache.Config{Backend: cache.BackendSQLite, Path: ":memory:"}},
		{name: "write back", cfg: cache.Config{Backend: cache.BackendMemory, WriteBack: true}},
		{name: "unknown", cfg: cache.Config{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := cache.NewStore(context.Background(), &tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewStore() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if c, ok := s.(io.Closer); ok {
				defer c.Close()
			}

			if err := s.Save(context.Background(), cache.Entry{Key: "k", Value: []byte("v")}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := s.Load(context.Background(), "k"); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		})
	}
}

func TestNewConfiguredItem(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Codec = "toml"

	item, _, err := cache.NewConfiguredItem[counterState](context.Background(), &cfg)
	if err != nil {
		t.Fatalf("NewConfiguredItem() error = %v", err)
	}
	if item.Key() != "state" {
		t.Errorf("Key() = %q, want state", item.Key())
	}

	cfg.Codec = "xml"
	if _, _, err := cache.NewConfiguredItem[counterState](context.Background(), &cfg); err == nil {
		t.Error("NewConfiguredItem() error = nil for unknown codec")
	}
}
