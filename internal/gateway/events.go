package gateway

import "time"

// Event is a gateway lifecycle event: a pipeline state transition or an
// operator action. Call correlates the transitions of one Handle call.
type Event struct {
	Name      string
	SessionID string
	Call      string
	At        time.Time
	Fields    map[string]any
}

// Event names outside the pipeline states.
const (
	EventRetryConnection = "retry_connection"
	EventSessionReset    = "session_reset"
)

// EventPublisher receives gateway events. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
