package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/transport"
)

// Source wraps a transport with Fetch single-flight control and a lifetime,
// without keeping state.
type Source[P, R any] struct {
	transport transport.Func[P, R]
	observer  observability.Observer
	flights   *flights

	cancel context.CancelCauseFunc
	once   sync.Once
}

// SourceOption configures a Source.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	observer observability.Observer
}

// WithObserver sets the Source event observer.
func WithObserver(obs observability.Observer) SourceOption {
	return func(o *sourceOptions) { o.observer = obs }
}

// NewSource creates a Source over fn.
func NewSource[P, R any](fn transport.Func[P, R], opts ...SourceOption) *Source[P, R] {
	o := sourceOptions{observer: observability.NewSlogObserver(slog.Default())}
	for _, opt := range opts {
		opt(&o)
	}

	life, cancel := context.WithCancelCause(context.Background())
	return &Source[P, R]{
		transport: fn,
		observer:  o.observer,
		flights:   newFlights(life, ErrClosed),
		cancel:    cancel,
	}
}

// Fetch aborts the previous Fetch and sends params.
func (s *Source[P, R]) Fetch(ctx context.Context, params P, delay time.Duration) (R, error) {
	return s.execute(ctx, true, delay, func(ctx context.Context) (*transport.Response[R], error) {
		return s.transport(ctx, params)
	})
}

// Send sends params without affecting other in-flight requests.
func (s *Source[P, R]) Send(ctx context.Context, params P, delay time.Duration) (R, error) {
	return s.execute(ctx, false, delay, func(ctx context.Context) (*transport.Response[R], error) {
		return s.transport(ctx, params)
	})
}

// MakeFail fails after delay without calling the transport.
func (s *Source[P, R]) MakeFail(ctx context.Context, delay time.Duration, message string) (R, error) {
	if message == "" {
		message = DefaultFailMessage
	}
	return s.execute(ctx, false, delay, func(context.Context) (*transport.Response[R], error) {
		return nil, errors.New(message)
	})
}

// Abort cancels the in-flight Fetch, if any.
func (s *Source[P, R]) Abort() bool {
	return s.flights.abort()
}

// Close aborts every in-flight request. Later requests fail with ErrClosed.
func (s *Source[P, R]) Close() {
	s.once.Do(func() { s.cancel(ErrClosed) })
}

func (s *Source[P, R]) execute(ctx context.Context, exclusive bool, delay time.Duration, fn func(context.Context) (*transport.Response[R], error)) (R, error) {
	var zero R
	if s.flights.life.Err() != nil {
		return zero, ErrClosed
	}

	f := s.flights.begin(ctx, exclusive)
	defer f.end()

	res, err := call(f.ctx, delay, fn)
	if cause := f.superseded(); cause != nil {
		observability.Emit(ctx, s.observer, EventRequestAbort, observability.LevelVerbose, "remote", map[string]any{
			"request_id": f.id,
			"cause":      cause.Error(),
		})
		return zero, cause
	}
	if err != nil {
		return zero, err
	}
	return res.Body, nil
}
