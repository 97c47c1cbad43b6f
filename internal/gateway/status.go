package gateway

import (
	"context"
	"time"

	"aigateway/internal/endpoint"
	"aigateway/internal/query"
)

// StatusSnapshot feeds the connection-status indicator.
type StatusSnapshot struct {
	ActiveEndpoint  string
	Connected       bool
	ModelPresent    bool
	RequiredModel   string
	InstalledModels []string
	ModelCheckedAt  time.Time
	LastError       string
	LastReason      query.Reason
	LastErrorAt     time.Time
	Endpoints       []endpoint.View
	// Recent holds the latest events, oldest first.
	Recent []Event
}

// Status reports cached state only; it never touches the network.
func (g *Gateway) Status() StatusSnapshot {
	s := StatusSnapshot{
		RequiredModel: g.cfg.RequiredModel,
		Endpoints:     g.cfg.Endpoints.Cache().Snapshot(),
		Recent:        g.recent.Events(),
	}
	if ep, ok := g.cfg.Endpoints.Cache().Active(); ok {
		s.ActiveEndpoint = ep.Address
		s.Connected = true
		if st, ok := g.cfg.Models.Last(ep.Address); ok {
			s.ModelPresent = st.RequiredModelPresent()
			s.InstalledModels = st.Installed
			s.ModelCheckedAt = st.CheckedAt
		}
	}
	g.mu.Lock()
	s.LastError = g.lastErr
	s.LastReason = g.lastWhy
	s.LastErrorAt = g.lastAt
	g.mu.Unlock()
	return s
}

// Ready reports whether the last known state allows inference.
func (g *Gateway) Ready() bool {
	s := g.Status()
	return s.Connected && s.ModelPresent
}

// RetryConnection drops the endpoint and model caches. In-flight calls
// finish on what they resolved; later calls re-resolve from scratch.
func (g *Gateway) RetryConnection() {
	g.cfg.Endpoints.Cache().Invalidate()
	g.cfg.Models.InvalidateAll()
	g.pub.Publish(Event{Name: EventRetryConnection, At: time.Now()})
	g.log.Info().Msg("connection retry requested")
}

// Reconnect is RetryConnection followed by an immediate resolve and model
// check, so the caller gets a fresh snapshot.
func (g *Gateway) Reconnect(ctx context.Context) StatusSnapshot {
	g.RetryConnection()
	if ep, ok := g.resolve(ctx); ok {
		mctx, cancel := context.WithTimeout(ctx, g.cfg.ModelCheckTimeout)
		st := g.cfg.Models.Check(mctx, ep.Address)
		cancel()
		if st.Unreachable {
			g.dropEndpoint(ep.Address)
		}
	}
	return g.Status()
}

// Reset forgets the session's conversation state and drops the caches, as
// a "clear chat" action does. Endpoint failure history is kept; only
// RetryConnection forgets it.
func (g *Gateway) Reset(sessionID string) {
	g.mu.Lock()
	delete(g.contexts, sessionID)
	g.mu.Unlock()
	g.cfg.Endpoints.Cache().Drop()
	g.cfg.Models.InvalidateAll()
	g.pub.Publish(Event{Name: EventSessionReset, SessionID: sessionID, At: time.Now()})
}

// Config returns the effective configuration after defaults.
func (g *Gateway) Config() Config { return g.cfg }
