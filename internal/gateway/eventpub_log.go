package gateway

import "github.com/rs/zerolog"

// LogPublisher writes every event as a debug log line.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Log.Debug().Str("event", e.Name)
	if e.Call != "" {
		ev = ev.Str("call", e.Call)
	}
	if e.SessionID != "" {
		ev = ev.Str("session", e.SessionID)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("gateway event")
}
