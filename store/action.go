package store

// Action is a message routed by its type tag to reducers and effects.
type Action interface {
	ActionType() string
}

// Message is a general-purpose Action carrying an arbitrary payload.
type Message struct {
	Type    string
	Payload any
}

// NewAction builds a Message.
func NewAction(typ string, payload any) Message {
	return Message{Type: typ, Payload: payload}
}

func (m Message) ActionType() string { return m.Type }
