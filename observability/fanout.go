package observability

import "context"

// NoOpObserver drops every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// MultiObserver delivers each event to every member, in registration order.
type MultiObserver []Observer

// NewMultiObserver skips nil members. A single member is returned as is.
func NewMultiObserver(members ...Observer) Observer {
	multi := make(MultiObserver, 0, len(members))
	for _, obs := range members {
		if obs != nil {
			multi = append(multi, obs)
		}
	}
	switch len(multi) {
	case 0:
		return NoOpObserver{}
	case 1:
		return multi[0]
	}
	return multi
}

func (m MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m {
		obs.OnEvent(ctx, event)
	}
}

// MinLevel forwards events at or above threshold to next.
func MinLevel(threshold Level, next Observer) Observer {
	return ObserverFunc(func(ctx context.Context, event Event) {
		if event.Level >= threshold {
			next.OnEvent(ctx, event)
		}
	})
}
