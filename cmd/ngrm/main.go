package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rmrevin/ngrm/cache"
	"github.com/rmrevin/ngrm/config"
	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/persist"
	"github.com/rmrevin/ngrm/remote"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/transport"
)

// history is the persisted state: the last result per fetched path.
type history struct {
	Runs    int               `json:"runs"`
	Results map[string]result `json:"results,omitempty"`
}

type result struct {
	Stage  remote.Stage    `json:"stage"`
	Status int             `json:"status,omitempty"`
	Error  string          `json:"error,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
	At     time.Time       `json:"at"`
}

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config file (.json or .toml)")
		baseURL     = flag.String("base-url", "", "API base URL (overrides config)")
		cachePath   = flag.String("cache", "", "Path to the persisted state (overrides config)")
		backend     = flag.String("backend", "", "Cache backend: memory, file or sqlite (overrides config)")
		concurrency = flag.Int("concurrency", 4, "Maximum concurrent requests")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
		paths       []string
	)
	flag.Func("path", "Request path to fetch; repeatable", func(v string) error {
		paths = append(paths, v)
		return nil
	})
	flag.Parse()

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ngrm -base-url <url> -path <path> [-path <path> ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.Transport.BaseURL = *baseURL
	}
	if *cachePath != "" {
		cfg.Persist.Cache.Path = *cachePath
	}
	if *backend != "" {
		cfg.Persist.Cache.Backend = *backend
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, paths, *concurrency); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, concurrency int) error {
	client, err := transport.NewClient(&cfg.Transport)
	if err != nil {
		return err
	}

	item, backend, err := cache.NewConfiguredItem[history](ctx, &cfg.Persist.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}

	storeOpts, err := store.ConfigOptions[history](&cfg.Persist.Store)
	if err != nil {
		return err
	}
	state := persist.New(history{}, persist.CacheItem[history](item),
		persist.WithConfig[history](&cfg.Persist),
		persist.WithStoreOptions(storeOpts...))
	defer state.Dispose()

	select {
	case <-state.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	if prev := state.Snapshot(); prev.Runs > 0 {
		logger.Info("loaded history", "runs", prev.Runs, "results", len(prev.Results))
	}
	state.Update(store.Mutate(func(h *history) { h.Runs++ }))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, path := range paths {
		g.Go(func() error {
			return fetch(gctx, cfg, client, state, logger, path)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report(state.Snapshot(), paths)

	if !state.AutosaveEnabled() {
		if _, err := state.SaveState(ctx, state.Snapshot()); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return nil
}

// fetch runs one request through its own remote store and records the
// final state. Transport failures are recorded, not returned.
func fetch(ctx context.Context, cfg *config.Config, client *transport.Client, state *persist.Store[history], logger *slog.Logger, path string) error {
	opts, err := store.ConfigOptions[remote.State[json.RawMessage]](&cfg.Remote.Store)
	if err != nil {
		return err
	}
	rs := remote.New(transport.GetJSON[json.RawMessage](client, path), opts...)
	defer rs.Dispose()

	sub := rs.Stage().Subscribe(func(stage remote.Stage) {
		logger.Debug("stage", "path", path, "stage", stage)
	})
	defer sub.Unsubscribe()

	if _, err := rs.Fetch(ctx, url.Values{}, cfg.Remote.Delay()); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	snap := rs.Snapshot()
	r := result{Stage: snap.Stage, Body: snap.Data, At: time.Now().UTC()}
	if snap.Meta != nil {
		r.Status = snap.Meta.Status
	}
	if snap.Error != nil {
		r.Error = snap.Error.Error()
		var te *transport.Error
		if errors.As(snap.Error, &te) {
			r.Status = te.Status
		}
	}

	state.Update(store.Mutate(func(h *history) {
		if h.Results == nil {
			h.Results = make(map[string]result)
		}
		h.Results[path] = r
	}))
	return nil
}

func report(h history, paths []string) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	fmt.Printf("Run: %d\n", h.Runs)
	for _, path := range sorted {
		r, ok := h.Results[path]
		if !ok {
			continue
		}
		switch {
		case r.Error != "":
			fmt.Printf("  %s  %s  status=%d  error=%s\n", path, r.Stage, r.Status, r.Error)
		case len(r.Body) > 200:
			fmt.Printf("  %s  %s  status=%d  %s...\n", path, r.Stage, r.Status, r.Body[:200])
		default:
			fmt.Printf("  %s  %s  status=%d  %s\n", path, r.Stage, r.Status, r.Body)
		}
	}
}
