package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/stream"
)

type counter struct {
	Count int      `json:"count"`
	Tags  []string `json:"tags,omitempty"`
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

func newCounterStore(t *testing.T, opts ...store.Option[counter]) (*store.Store[counter], *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]store.Option[counter]{store.WithObserver[counter](rec)}, opts...)
	s := store.New(counter{}, opts...)
	t.Cleanup(s.Dispose)
	return s, rec
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s, _ := newCounterStore(t)
	s.Set(counter{Count: 1, Tags: []string{"a"}})

	a := s.Snapshot()
	a.Tags[0] = "mutated"
	a.Count = 99

	b := s.Snapshot()
	if b.Count != 1 || b.Tags[0] != "a" {
		t.Errorf("Snapshot() = %+v, want {Count:1 Tags:[a]}", b)
	}
	if &a.Tags[0] == &b.Tags[0] {
		t.Error("snapshots share backing storage")
	}
}

func TestStore_InitialValueIsCopied(t *testing.T) {
	initial := counter{Tags: []string{"x"}}
	s := store.New(initial, store.WithObserver[counter](observability.NoOpObserver{}))
	defer s.Dispose()

	initial.Tags[0] = "changed"
	s.Set(counter{Count: 5})
	s.Reset()

	if got := s.Snapshot(); got.Tags[0] != "x" || got.Count != 0 {
		t.Errorf("Reset() state = %+v, want {Count:0 Tags:[x]}", got)
	}
}

func TestStore_Update(t *testing.T) {
	tests := []struct {
		name  string
		patch store.Patch[counter]
		want  counter
	}{
		{
			name:  "merge by json name",
			patch: store.Merge[counter](map[string]any{"count": 6}),
			want:  counter{Count: 6, Tags: []string{"keep"}},
		},
		{
			name:  "merge by field name",
			patch: store.Merge[counter](map[string]any{"Tags": []string{"new"}}),
			want:  counter{Count: 1, Tags: []string{"new"}},
		},
		{
			name:  "merge nil resets field",
			patch: store.Merge[counter](map[string]any{"tags": nil}),
			want:  counter{Count: 1},
		},
		{
			name:  "mutate",
			patch: store.Mutate(func(d *counter) { d.Count++; d.Tags = append(d.Tags, "more") }),
			want:  counter{Count: 2, Tags: []string{"keep", "more"}},
		},
		{
			name:  "replace",
			patch: store.Replace(counter{Count: 10}),
			want:  counter{Count: 10},
		},
		{
			name:  "nil patch",
			patch: nil,
			want:  counter{Count: 1, Tags: []string{"keep"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newCounterStore(t)
			s.Set(counter{Count: 1, Tags: []string{"keep"}})

			s.Update(tt.patch)

			got := s.Snapshot()
			if got.Count != tt.want.Count || len(got.Tags) != len(tt.want.Tags) {
				t.Fatalf("state = %+v, want %+v", got, tt.want)
			}
			for i := range got.Tags {
				if got.Tags[i] != tt.want.Tags[i] {
					t.Errorf("Tags[%d] = %q, want %q", i, got.Tags[i], tt.want.Tags[i])
				}
			}
		})
	}
}

func TestStore_MutateDoesNotLeakIntoHeldSnapshot(t *testing.T) {
	s, _ := newCounterStore(t)
	s.Set(counter{Tags: []string{"a"}})

	var seen []counter
	sub := s.Changes().Subscribe(func(c counter) { seen = append(seen, c) })
	defer sub.Unsubscribe()

	s.Update(store.Mutate(func(d *counter) { d.Tags[0] = "b" }))

	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if seen[0].Tags[0] != "a" {
		t.Errorf("first notification mutated to %q", seen[0].Tags[0])
	}
	if seen[1].Tags[0] != "b" {
		t.Errorf("second notification = %q, want b", seen[1].Tags[0])
	}
}

func TestSelect_EmitsOncePerDistinctProjection(t *testing.T) {
	s, _ := newCounterStore(t)

	var got []int
	sub := store.Select(s, func(c counter) int { return c.Count }).Subscribe(func(n int) {
		got = append(got, n)
	})
	defer sub.Unsubscribe()

	s.Update(store.Merge[counter](map[string]any{"count": 1}))
	s.Update(store.Merge[counter](map[string]any{"count": 1}))
	s.Update(store.Merge[counter](map[string]any{"tags": []string{"unrelated"}}))
	s.Update(store.Merge[counter](map[string]any{"count": 2}))

	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Select() emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSelectBy_CustomComparator(t *testing.T) {
	s, _ := newCounterStore(t)

	// Only emit when the count crosses a multiple of ten.
	bucket := func(prev, next counter) bool { return prev.Count/10 == next.Count/10 }

	var got []int
	sub := store.SelectBy(s, func(c counter) int { return c.Count }, bucket).Subscribe(func(n int) {
		got = append(got, n)
	})
	defer sub.Unsubscribe()

	for _, n := range []int{3, 7, 12, 15, 31} {
		s.Set(counter{Count: n})
	}

	want := []int{0, 12, 31}
	if len(got) != len(want) {
		t.Fatalf("SelectBy() emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWaitForBy_CustomComparator(t *testing.T) {
	s, _ := newCounterStore(t)

	bucket := func(prev, next counter) bool { return prev.Count/10 == next.Count/10 }

	var got []int
	sub := store.WaitForBy(s, func(c counter) int { return c.Count }, bucket).Subscribe(func(n int) {
		got = append(got, n)
	})
	defer sub.Unsubscribe()

	for _, n := range []int{3, 7, 12, 15, 31} {
		s.Set(counter{Count: n})
	}

	want := []int{12, 31}
	if len(got) != len(want) {
		t.Fatalf("WaitForBy() emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStore_BoolSetAndReset(t *testing.T) {
	s := store.New(false, store.WithObserver[bool](observability.NoOpObserver{}))
	defer s.Dispose()

	var got []bool
	sub := s.Select().Subscribe(func(v bool) { got = append(got, v) })
	defer sub.Unsubscribe()

	s.Set(true)
	s.Reset()

	want := []bool{false, true, false}
	if len(got) != len(want) {
		t.Fatalf("Select() emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWaitFor_SkipsEmptyValues(t *testing.T) {
	s, _ := newCounterStore(t)

	var got [][]string
	sub := store.WaitFor(s, func(c counter) []string { return c.Tags }).Subscribe(func(tags []string) {
		got = append(got, tags)
	})
	defer sub.Unsubscribe()

	s.Update(store.Merge[counter](map[string]any{"tags": []string{}}))
	s.Update(store.Merge[counter](map[string]any{"count": 3}))
	if len(got) != 0 {
		t.Fatalf("WaitFor() emitted %v before a non-empty value", got)
	}

	s.Update(store.Merge[counter](map[string]any{"tags": []string{"ready"}}))
	s.Update(store.Merge[counter](map[string]any{"tags": []string{}}))

	if len(got) != 2 {
		t.Fatalf("WaitFor() emitted %d values, want 2", len(got))
	}
	if got[0][0] != "ready" {
		t.Errorf("first value = %v, want [ready]", got[0])
	}
	if len(got[1]) != 0 {
		t.Errorf("second value = %v, want empty once started", got[1])
	}
}

func TestStore_WaitForMethod(t *testing.T) {
	s := store.New("", store.WithObserver[string](observability.NoOpObserver{}))
	defer s.Dispose()

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Set("loaded")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := stream.Await(ctx, s.WaitFor())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got != "loaded" {
		t.Errorf("WaitFor() = %q, want loaded", got)
	}
}

func TestStore_Transaction(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(counter) stream.Stream[counter]
		want    int
		wantErr bool
	}{
		{
			name: "immediate value",
			fn: func(c counter) stream.Stream[counter] {
				c.Count += 10
				return stream.Of(c)
			},
			want: 11,
		},
		{
			name: "deferred value",
			fn: func(c counter) stream.Stream[counter] {
				return stream.FromFunc(func(context.Context) (counter, error) {
					time.Sleep(5 * time.Millisecond)
					return counter{Count: c.Count * 7}, nil
				})
			},
			want: 7,
		},
		{
			name: "first value of a stream",
			fn: func(c counter) stream.Stream[counter] {
				return stream.Of(counter{Count: 2}, counter{Count: 3})
			},
			want: 2,
		},
		{
			name: "error is not committed",
			fn: func(counter) stream.Stream[counter] {
				return stream.Fail[counter](errors.New("boom"))
			},
			want:    1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newCounterStore(t)
			s.Set(counter{Count: 1})

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			got, err := stream.Await(ctx, s.Transaction(tt.fn))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Transaction() error = nil, want error")
				}
			} else {
				if err != nil {
					t.Fatalf("Transaction() error = %v", err)
				}
				if got.Count != tt.want {
					t.Errorf("Transaction() emitted Count = %d, want %d", got.Count, tt.want)
				}
			}

			if state := s.Snapshot(); state.Count != tt.want {
				t.Errorf("state Count = %d, want %d", state.Count, tt.want)
			}
		})
	}
}

func TestStore_TransactionEmitsOnce(t *testing.T) {
	s, _ := newCounterStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := stream.Collect(ctx, s.Transaction(func(c counter) stream.Stream[counter] {
		return stream.Of(counter{Count: 1}, counter{Count: 2})
	}))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 1 || got[0].Count != 1 {
		t.Errorf("Transaction() emitted %+v, want one snapshot with Count 1", got)
	}
}

func TestStore_Commit(t *testing.T) {
	s, _ := newCounterStore(t)

	got, err := s.Commit(context.Background(), func(_ context.Context, c counter) (counter, error) {
		c.Count = 42
		return c, nil
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got.Count != 42 || s.Snapshot().Count != 42 {
		t.Errorf("Commit() = %+v, state %+v, want Count 42", got, s.Snapshot())
	}
}

func TestStore_CommitCancelled(t *testing.T) {
	s, _ := newCounterStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	_, err := s.Commit(ctx, func(ctx context.Context, c counter) (counter, error) {
		close(started)
		<-ctx.Done()
		return c, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Commit() error = %v, want context.Canceled", err)
	}
	if s.Snapshot().Count != 0 {
		t.Errorf("cancelled commit changed state to %+v", s.Snapshot())
	}
}

func TestStore_Dispose(t *testing.T) {
	s, rec := newCounterStore(t)

	completed := 0
	sub := s.Select().SubscribeObserver(stream.Observer[counter]{
		Complete: func() { completed++ },
	})

	s.Dispose()
	s.Dispose()

	if completed != 1 {
		t.Errorf("completions = %d, want 1", completed)
	}
	if !sub.Closed() {
		t.Error("subscription still open after Dispose()")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done() not closed after Dispose()")
	}
	if !s.Disposed() {
		t.Error("Disposed() = false")
	}
	if n := rec.count(store.EventDispose); n != 1 {
		t.Errorf("dispose events = %d, want 1", n)
	}

	s.Set(counter{Count: 5})
	s.Reset()
	s.Dispatch(store.NewAction("noop", nil))

	if s.Snapshot().Count != 0 {
		t.Errorf("state changed after Dispose(): %+v", s.Snapshot())
	}
	if n := rec.count(store.EventWarning); n != 3 {
		t.Errorf("warnings = %d, want 3", n)
	}
}

func TestStore_CommitAfterDispose(t *testing.T) {
	s, _ := newCounterStore(t)
	s.Dispose()

	_, err := s.Commit(context.Background(), func(_ context.Context, c counter) (counter, error) {
		return c, nil
	})
	if !errors.Is(err, store.ErrDisposed) {
		t.Fatalf("Commit() error = %v, want ErrDisposed", err)
	}
}

func TestStore_ParentContextDisposes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := newCounterStore(t, store.WithContext[counter](ctx))

	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("store not disposed after parent context cancel")
	}
}

func TestStore_OnDispose(t *testing.T) {
	s, _ := newCounterStore(t)

	var order []string
	s.OnDispose(func() { order = append(order, "first") })
	s.OnDispose(func() { order = append(order, "second") })
	s.Dispose()
	s.OnDispose(func() { order = append(order, "late") })

	want := []string{"second", "first", "late"}
	if len(order) != len(want) {
		t.Fatalf("hooks ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hook %d = %s, want %s", i, order[i], want[i])
		}
	}
}
