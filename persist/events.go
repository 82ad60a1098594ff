package persist

import "github.com/rmrevin/ngrm/observability"

// Persistence event types.
const (
	EventLoad  observability.EventType = "persist.load"
	EventSave  observability.EventType = "persist.save"
	EventError observability.EventType = "persist.error"
)
