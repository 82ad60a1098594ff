package persist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rmrevin/ngrm/cache"
	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/persist"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/stream"
)

type counter struct {
	Count int `json:"count"`
}

type fakeItem struct {
	mu      sync.Mutex
	value   counter
	has     bool
	getErr  error
	setErr  error
	gate    chan struct{}
	sets    []counter
	removed int
	flushed int
}

func (f *fakeItem) Get(ctx context.Context) (counter, bool, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return counter{}, false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.has, f.getErr
}

func (f *fakeItem) Set(_ context.Context, v counter) (counter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return counter{}, f.setErr
	}
	f.sets = append(f.sets, v)
	f.value, f.has = v, true
	return v, nil
}

func (f *fakeItem) Remove(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed++
	f.value, f.has = counter{}, false
	return nil
}

func (f *fakeItem) saved() []counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]counter(nil), f.sets...)
}

type flushingItem struct {
	*fakeItem
}

func (f flushingItem) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *recorder) OnEvent(_ context.Context, e observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(typ observability.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func newStore(t *testing.T, item persist.CacheItem[counter], opts ...persist.Option[counter]) (*persist.Store[counter], *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]persist.Option[counter]{
		persist.WithStoreOptions(store.WithObserver[counter](rec)),
	}, opts...)
	s := persist.New(counter{}, item, opts...)
	t.Cleanup(s.Dispose)
	return s, rec
}

func waitReady(t *testing.T, s *persist.Store[counter]) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("store not ready")
	}
}

func TestStore_AutoloadThenAutosave(t *testing.T) {
	item := &fakeItem{value: counter{Count: 5}, has: true, gate: make(chan struct{})}
	s, rec := newStore(t, item)

	var loaded []counter
	sub := s.Loaded().Subscribe(func(v counter) { loaded = append(loaded, v) })
	defer sub.Unsubscribe()

	close(item.gate)
	waitReady(t, s)

	if got := s.Snapshot(); got.Count != 5 {
		t.Fatalf("Snapshot() = %+v, want {Count:5}", got)
	}
	if len(loaded) != 1 || loaded[0].Count != 5 {
		t.Errorf("Loaded() emitted %v, want [{5}]", loaded)
	}
	if !s.AutosaveEnabled() {
		t.Fatal("AutosaveEnabled() = false after load")
	}
	if got := item.saved(); len(got) != 0 {
		t.Errorf("loaded value was saved back: %v", got)
	}

	s.Update(store.Merge[counter](map[string]any{"count": 6}))

	got := item.saved()
	if len(got) != 1 || got[0].Count != 6 {
		t.Errorf("saved %v, want [{6}]", got)
	}
	if rec.count(persist.EventLoad) != 1 || rec.count(persist.EventSave) != 1 {
		t.Errorf("events load=%d save=%d, want 1 and 1",
			rec.count(persist.EventLoad), rec.count(persist.EventSave))
	}
}

func TestStore_AutoloadKeepsDefaultOnEmptyValue(t *testing.T) {
	tests := []struct {
		name string
		item *fakeItem
	}{
		{name: "missing", item: &fakeItem{}},
		{name: "zero value", item: &fakeItem{has: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := persist.New(counter{Count: 1}, persist.CacheItem[counter](tt.item),
				persist.WithStoreOptions(store.WithObserver[counter](observability.NoOpObserver{})))
			defer s.Dispose()
			waitReady(t, s)

			if got := s.Snapshot(); got.Count != 1 {
				t.Errorf("Snapshot() = %+v, want {Count:1}", got)
			}
		})
	}
}

func TestStore_LoadErrorStillEnablesAutosave(t *testing.T) {
	item := &fakeItem{getErr: errors.New("disk gone")}
	s, rec := newStore(t, item)
	waitReady(t, s)

	if rec.count(persist.EventError) != 1 {
		t.Errorf("error events = %d, want 1", rec.count(persist.EventError))
	}
	if !s.AutosaveEnabled() {
		t.Error("AutosaveEnabled() = false, want true")
	}
}

func TestStore_AutosaveWithoutAutoload(t *testing.T) {
	item := &fakeItem{value: counter{Count: 9}, has: true}
	s, _ := newStore(t, item, persist.WithAutoload[counter](false))
	waitReady(t, s)

	if got := s.Snapshot(); got.Count != 0 {
		t.Errorf("Snapshot() = %+v, want default", got)
	}
	if !s.AutosaveEnabled() {
		t.Fatal("AutosaveEnabled() = false, want true")
	}

	s.Set(counter{Count: 2})
	s.Set(counter{Count: 2})

	if got := item.saved(); len(got) != 1 || got[0].Count != 2 {
		t.Errorf("saved %v, want [{2}]", got)
	}
}

func TestStore_DisableAutosave(t *testing.T) {
	item := &fakeItem{}
	s, _ := newStore(t, item, persist.WithAutoload[counter](false))

	s.EnableAutosave()
	s.Set(counter{Count: 1})

	s.DisableAutosave()
	if s.AutosaveEnabled() {
		t.Fatal("AutosaveEnabled() = true after DisableAutosave")
	}
	s.Set(counter{Count: 2})

	s.EnableAutosave()
	s.Set(counter{Count: 3})

	got := item.saved()
	if len(got) != 2 || got[0].Count != 1 || got[1].Count != 3 {
		t.Errorf("saved %v, want [{1} {3}]", got)
	}
}

func TestStore_NoAutosave(t *testing.T) {
	item := &fakeItem{}
	s, _ := newStore(t, item,
		persist.WithAutoload[counter](false),
		persist.WithAutosave[counter](false))

	s.Set(counter{Count: 4})
	if s.AutosaveEnabled() {
		t.Error("AutosaveEnabled() = true, want false")
	}
	if got := item.saved(); len(got) != 0 {
		t.Errorf("saved %v, want none", got)
	}

	if _, err := s.SaveState(context.Background(), s.Snapshot()); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}
	if got := item.saved(); len(got) != 1 || got[0].Count != 4 {
		t.Errorf("saved %v, want [{4}]", got)
	}
}

func TestStore_SaveErrorIsReported(t *testing.T) {
	item := &fakeItem{setErr: errors.New("read-only")}
	s, rec := newStore(t, item, persist.WithAutoload[counter](false))

	s.Set(counter{Count: 1})

	if rec.count(persist.EventError) != 1 {
		t.Errorf("error events = %d, want 1", rec.count(persist.EventError))
	}
	if got := s.Snapshot(); got.Count != 1 {
		t.Errorf("Snapshot() = %+v, want {Count:1}", got)
	}
}

func TestStore_LoadStateManually(t *testing.T) {
	item := &fakeItem{}
	s, _ := newStore(t, item, persist.WithAutoload[counter](false), persist.WithAutosave[counter](false))

	item.Set(context.Background(), counter{Count: 7})

	v, ok, err := s.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !ok || v.Count != 7 {
		t.Errorf("LoadState() = %+v, %v, want {7}, true", v, ok)
	}
	if got := s.Snapshot(); got.Count != 7 {
		t.Errorf("Snapshot() = %+v, want {Count:7}", got)
	}

	if err := s.Remove(context.Background()); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if item.removed != 1 {
		t.Errorf("removed = %d, want 1", item.removed)
	}
	if got := s.Snapshot(); got.Count != 7 {
		t.Errorf("Remove() changed state to %+v", got)
	}
}

func TestStore_DisposeCompletesAndFlushes(t *testing.T) {
	item := flushingItem{&fakeItem{}}
	s := persist.New(counter{}, persist.CacheItem[counter](item),
		persist.WithAutoload[counter](false),
		persist.WithStoreOptions(store.WithObserver[counter](observability.NoOpObserver{})))

	done := make(chan struct{})
	s.Loaded().SubscribeObserver(stream.Observer[counter]{
		Complete: func() { close(done) },
	})

	s.Dispose()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Loaded() did not complete on Dispose")
	}
	if s.AutosaveEnabled() {
		t.Error("AutosaveEnabled() = true after Dispose")
	}
	if item.flushed != 1 {
		t.Errorf("flushed = %d, want 1", item.flushed)
	}

	s.EnableAutosave()
	if s.AutosaveEnabled() {
		t.Error("EnableAutosave() took effect after Dispose")
	}
}

func TestStore_DisposeDuringLoad(t *testing.T) {
	item := &fakeItem{value: counter{Count: 3}, has: true, gate: make(chan struct{})}
	s, rec := newStore(t, item)

	s.Dispose()
	waitReady(t, s)

	if s.AutosaveEnabled() {
		t.Error("AutosaveEnabled() = true after Dispose")
	}
	if n := rec.count(persist.EventError); n != 0 {
		t.Errorf("error events = %d, want 0 for a load cancelled by Dispose", n)
	}
	if got := s.Snapshot(); got.Count != 0 {
		t.Errorf("Snapshot() = %+v, want default", got)
	}
}

func TestStore_WithCacheItem(t *testing.T) {
	dir := t.TempDir()
	newItem := func() *cache.Item[counter] {
		return cache.NewItem[counter](cache.NewFileStore(dir), "counter", cache.JSONCodec[counter]{})
	}

	first := persist.New(counter{}, persist.CacheItem[counter](newItem()),
		persist.WithStoreOptions(store.WithObserver[counter](observability.NoOpObserver{})))
	waitReady(t, first)
	first.Set(counter{Count: 12})
	first.Dispose()

	second := persist.New(counter{}, persist.CacheItem[counter](newItem()),
		persist.WithStoreOptions(store.WithObserver[counter](observability.NoOpObserver{})))
	defer second.Dispose()
	waitReady(t, second)

	if got := second.Snapshot(); got.Count != 12 {
		t.Errorf("Snapshot() = %+v, want {Count:12}", got)
	}
}

func TestConfig_Merge(t *testing.T) {
	off := false
	cfg := persist.DefaultConfig()
	cfg.Merge(&persist.Config{Autosave: &off, Cache: cache.Config{Backend: cache.BackendFile}})

	if !cfg.AutoloadEnabled() {
		t.Error("AutoloadEnabled() = false, want true")
	}
	if cfg.AutosaveEnabled() {
		t.Error("AutosaveEnabled() = true, want false")
	}
	if cfg.Cache.Backend != cache.BackendFile {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, cache.BackendFile)
	}
	if cfg.Store.Name != "persist" {
		t.Errorf("Store.Name = %q, want persist", cfg.Store.Name)
	}
}
