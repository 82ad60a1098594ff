package remote

import (
	"context"
	"errors"
	"time"

	"github.com/rmrevin/ngrm/observability"
	"github.com/rmrevin/ngrm/store"
	"github.com/rmrevin/ngrm/stream"
	"github.com/rmrevin/ngrm/transport"
)

// Store is a request-lifecycle store over a transport taking P and
// returning R.
type Store[P, R any] struct {
	*store.Store[State[R]]

	transport transport.Func[P, R]
	flights   *flights
}

// New creates a store in the New stage. opts configure the embedded state
// store.
func New[P, R any](fn transport.Func[P, R], opts ...store.Option[State[R]]) *Store[P, R] {
	s := &Store[P, R]{transport: fn}

	opts = append([]store.Option[State[R]]{store.WithName[State[R]]("remote")}, opts...)
	opts = append(opts, store.WithReducers(reducers[R](func(id string, finish bool) bool {
		return s.flights.skip(id, finish)
	})))

	s.Store = store.New(NewState[R](), opts...)
	s.flights = newFlights(s.Store.Context(), store.ErrDisposed)
	return s
}

// Fetch aborts the previous Fetch and sends params. The superseded request
// leaves the state alone and its caller receives ErrAborted.
func (s *Store[P, R]) Fetch(ctx context.Context, params P, delay time.Duration) (R, error) {
	return s.execute(ctx, true, delay, func(ctx context.Context) (*transport.Response[R], error) {
		return s.transport(ctx, params)
	})
}

// Send sends params without affecting other in-flight requests.
func (s *Store[P, R]) Send(ctx context.Context, params P, delay time.Duration) (R, error) {
	return s.execute(ctx, false, delay, func(ctx context.Context) (*transport.Response[R], error) {
		return s.transport(ctx, params)
	})
}

// MakeFail drives the store through the failure path without calling the
// transport. An empty message uses DefaultFailMessage.
func (s *Store[P, R]) MakeFail(ctx context.Context, delay time.Duration, message string) (R, error) {
	if message == "" {
		message = DefaultFailMessage
	}
	return s.execute(ctx, false, delay, func(context.Context) (*transport.Response[R], error) {
		return nil, errors.New(message)
	})
}

// Abort cancels the in-flight Fetch, if any. The aborted request finishes
// without a result: the stage it reached is kept and InProgress is cleared.
func (s *Store[P, R]) Abort() bool {
	return s.flights.abort()
}

func (s *Store[P, R]) execute(ctx context.Context, exclusive bool, delay time.Duration, fn func(context.Context) (*transport.Response[R], error)) (R, error) {
	var zero R
	if s.Disposed() {
		return zero, store.ErrDisposed
	}

	f := s.flights.begin(ctx, exclusive)
	defer f.end()

	s.Dispatch(Start{RequestID: f.id})
	s.emit(ctx, EventRequestStart, observability.LevelVerbose, f.id, nil)

	res, err := call(f.ctx, delay, fn)

	if cause := f.superseded(); cause != nil {
		if errors.Is(cause, ErrAborted) && !s.flights.wasSuperseded(f.id) {
			s.Dispatch(Finish{RequestID: f.id})
		}
		s.emit(ctx, EventRequestAbort, observability.LevelVerbose, f.id, map[string]any{"cause": cause.Error()})
		return zero, cause
	}

	if err != nil {
		s.Dispatch(Error{RequestID: f.id, Err: err, Meta: transport.MetaOf(err)})
		s.Dispatch(Finish{RequestID: f.id})
		s.emit(ctx, EventRequestError, observability.LevelWarning, f.id, map[string]any{"error": err.Error()})
		return zero, err
	}

	meta := res.Meta()
	s.Dispatch(Success[R]{RequestID: f.id, Data: res.Body, Meta: meta})
	s.Dispatch(Finish{RequestID: f.id})
	s.emit(ctx, EventRequestSuccess, observability.LevelVerbose, f.id, map[string]any{"status": meta.Status})
	return res.Body, nil
}

func (s *Store[P, R]) emit(ctx context.Context, typ observability.EventType, level observability.Level, id string, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 2)
	}
	data["store"] = s.Name()
	data["request_id"] = id
	observability.Emit(ctx, s.Observer(), typ, level, "remote", data)
}

// Stage emits the request stage on change.
func (s *Store[P, R]) Stage() stream.Stream[Stage] {
	return store.Select(s.Store, func(st State[R]) Stage { return st.Stage })
}

// InProgress emits whether a request is in flight.
func (s *Store[P, R]) InProgress() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.InProgress })
}

// IsUntouched emits whether no request has been sent yet.
func (s *Store[P, R]) IsUntouched() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.Stage == StageNew })
}

// IsTouched emits whether a request has been sent.
func (s *Store[P, R]) IsTouched() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.Stage != StageNew })
}

// IsCompleted emits whether the last request settled, whatever the outcome.
func (s *Store[P, R]) IsCompleted() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.Stage.Completed() })
}

// IsSuccessful emits whether the last request succeeded.
func (s *Store[P, R]) IsSuccessful() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.Stage == StageSuccess })
}

// IsFailed emits whether the last request failed.
func (s *Store[P, R]) IsFailed() stream.Stream[bool] {
	return store.Select(s.Store, func(st State[R]) bool { return st.Stage == StageFailed })
}

// Data emits the last response body.
func (s *Store[P, R]) Data() stream.Stream[R] {
	return store.Select(s.Store, func(st State[R]) R { return st.Data })
}

// Err emits the last request error.
func (s *Store[P, R]) Err() stream.Stream[error] {
	return store.Select(s.Store, func(st State[R]) error { return st.Error })
}

// Meta emits the last response metadata.
func (s *Store[P, R]) Meta() stream.Stream[*transport.Meta] {
	return store.Select(s.Store, func(st State[R]) *transport.Meta { return st.Meta })
}

// HTTPStatus emits the last response status, zero when unknown.
func (s *Store[P, R]) HTTPStatus() stream.Stream[int] {
	return store.Select(s.Store, func(st State[R]) int {
		if st.Meta == nil {
			return 0
		}
		return st.Meta.Status
	})
}

// HTTPHeaders emits the last response headers.
func (s *Store[P, R]) HTTPHeaders() stream.Stream[map[string][]string] {
	return store.Select(s.Store, func(st State[R]) map[string][]string {
		if st.Meta == nil {
			return nil
		}
		return st.Meta.Headers
	})
}
