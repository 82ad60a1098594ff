package store

import "github.com/rmrevin/ngrm/observability"

// Store event types.
const (
	EventCreate      observability.EventType = "store.create"
	EventUpdate      observability.EventType = "store.update"
	EventReset       observability.EventType = "store.reset"
	EventDispatch    observability.EventType = "store.dispatch"
	EventEffectError observability.EventType = "store.effect.error"
	EventWarning     observability.EventType = "store.warning"
	EventDispose     observability.EventType = "store.dispose"
)
