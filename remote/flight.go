package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmrevin/ngrm/transport"
)

// flights tracks in-flight requests, the single Fetch slot, and aborted
// request ids. An aborted id maps to true when a later Fetch superseded it.
type flights struct {
	life    context.Context
	lifeErr error

	mu      sync.Mutex
	current *flight
	aborted map[string]bool
}

type flight struct {
	id     string
	ctx    context.Context
	cancel context.CancelCauseFunc
	stop   func() bool
	owner  *flights
}

func newFlights(life context.Context, lifeErr error) *flights {
	return &flights{
		life:    life,
		lifeErr: lifeErr,
		aborted: make(map[string]bool),
	}
}

// begin starts a request bound to ctx and to the owner lifetime. An
// exclusive request aborts the previous exclusive one. Any begin supersedes
// requests that were aborted explicitly and have not returned yet.
func (fs *flights) begin(ctx context.Context, exclusive bool) *flight {
	rctx, cancel := context.WithCancelCause(ctx)
	f := &flight{
		id:     uuid.Must(uuid.NewV7()).String(),
		ctx:    rctx,
		cancel: cancel,
		owner:  fs,
	}
	f.stop = context.AfterFunc(fs.life, func() { cancel(fs.lifeErr) })

	fs.mu.Lock()
	// A new request owns InProgress from its Start on, so explicitly aborted
	// requests still out may no longer finish.
	for id, superseded := range fs.aborted {
		if !superseded {
			fs.aborted[id] = true
		}
	}
	var prev *flight
	if exclusive {
		prev = fs.current
		fs.current = f
		if prev != nil {
			fs.aborted[prev.id] = true
		}
	}
	fs.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrAborted)
	}
	return f
}

// abort cancels the current exclusive request.
func (fs *flights) abort() bool {
	fs.mu.Lock()
	prev := fs.current
	fs.current = nil
	if prev != nil {
		fs.aborted[prev.id] = false
	}
	fs.mu.Unlock()

	if prev == nil {
		return false
	}
	prev.cancel(ErrAborted)
	return true
}

// skip reports whether an action of request id must be ignored. Finish of
// an explicitly aborted request still applies so the store leaves the
// in-progress state.
func (fs *flights) skip(id string, finish bool) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	superseded, ok := fs.aborted[id]
	if !ok {
		return false
	}
	return superseded || !finish
}

func (fs *flights) wasSuperseded(id string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.aborted[id]
}

// end releases the request. It must run after the last dispatch for the
// request.
func (f *flight) end() {
	f.stop()
	f.cancel(context.Canceled)

	fs := f.owner
	fs.mu.Lock()
	if fs.current == f {
		fs.current = nil
	}
	delete(fs.aborted, f.id)
	fs.mu.Unlock()
}

// superseded returns the abort or lifetime error when the request was
// cancelled by its owner rather than by the caller.
func (f *flight) superseded() error {
	if f.ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(f.ctx)
	if errors.Is(cause, ErrAborted) || errors.Is(cause, f.owner.lifeErr) {
		return cause
	}
	return nil
}

// call waits for delay and then invokes fn.
func call[R any](ctx context.Context, delay time.Duration, fn func(context.Context) (*transport.Response[R], error)) (*transport.Response[R], error) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	res, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &transport.Response[R]{}
	}
	return res, nil
}
