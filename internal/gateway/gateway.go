package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aigateway/internal/endpoint"
	"aigateway/internal/inference"
	"aigateway/internal/query"
)

var (
	errNoEndpoint     = errors.New("no inference endpoint reachable")
	errEmptyGenerated = errors.New("inference returned an empty response")
)

// Gateway routes queries to the inference server or the fallback responder.
// It is safe for concurrent use; concurrent calls share only the endpoint
// cache, the model cache, the per-session context map and the last error.
type Gateway struct {
	cfg    Config
	log    zerolog.Logger
	recent *MemoryPublisher
	pub    EventPublisher

	mu       sync.Mutex
	contexts map[string][]int
	lastErr  string
	lastWhy  query.Reason
	lastAt   time.Time
}

// call tracks one Handle invocation through the pipeline.
type call struct {
	g       *Gateway
	id      string
	session string
	state   State
	entered time.Time
	path    []State
}

func (c *call) to(s State) {
	now := time.Now()
	prev := c.state
	if len(c.path) > 0 {
		stageDuration.WithLabelValues(prev.String()).Observe(now.Sub(c.entered).Seconds())
	}
	c.state = s
	c.entered = now
	c.path = append(c.path, s)
	c.g.pub.Publish(Event{
		Name:      s.String(),
		SessionID: c.session,
		Call:      c.id,
		At:        now,
		Fields:    map[string]any{"from": prev.String()},
	})
}

// Handle runs q through the pipeline. The only error is query.ErrEmptyQuery;
// every other failure comes back as a degraded Result.
func (g *Gateway) Handle(ctx context.Context, q query.Query) (res query.Result, err error) {
	if err := q.Validate(); err != nil {
		return query.Result{}, err
	}
	c := &call{g: g, id: uuid.NewString(), session: q.SessionID, entered: time.Now()}
	start := c.entered
	c.to(StateIdle)

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Ceiling())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Str("call", c.id).Interface("panic", r).Msg("pipeline panic")
			res = g.degrade(c, q, g.cfg.Classifier.Classify(q), query.ReasonInferenceFailure, fmt.Errorf("panic: %v", r))
		}
		c.to(StateCompleted)
		resultsTotal.WithLabelValues(string(res.Kind), string(res.Reason)).Inc()
		handleDuration.WithLabelValues(string(res.Kind)).Observe(time.Since(start).Seconds())
		g.log.Info().
			Str("call", c.id).
			Str("session", q.SessionID).
			Str("intent", string(res.Intent.Kind)).
			Str("kind", string(res.Kind)).
			Str("reason", string(res.Reason)).
			Dur("dur", time.Since(start)).
			Msg("query handled")
	}()

	return g.run(ctx, c, q), nil
}

func (g *Gateway) run(ctx context.Context, c *call, q query.Query) query.Result {
	c.to(StateResolvingEndpoint)
	ep, ok := g.resolve(ctx)
	if !ok {
		return g.degrade(c, q, g.cfg.Classifier.Classify(q), query.ReasonServerUnreachable, errNoEndpoint)
	}

	c.to(StateCheckingModel)
	mctx, cancel := context.WithTimeout(ctx, g.cfg.ModelCheckTimeout)
	st := g.cfg.Models.Check(mctx, ep.Address)
	cancel()
	switch {
	case st.Unreachable:
		g.dropEndpoint(ep.Address)
		return g.degrade(c, q, g.cfg.Classifier.Classify(q), query.ReasonServerUnreachable, errors.New(st.Err))
	case st.Err != "":
		return g.degrade(c, q, g.cfg.Classifier.Classify(q), query.ReasonInferenceFailure, errors.New(st.Err))
	case !st.RequiredModelPresent():
		return g.degrade(c, q, g.cfg.Classifier.Classify(q), query.ReasonModelMissing,
			fmt.Errorf("model %q not installed on %s", g.cfg.RequiredModel, ep.Address))
	}

	c.to(StateClassifying)
	in := g.cfg.Classifier.Classify(q)

	c.to(StateDispatching)
	if in.Kind == query.IntentAnalytics {
		return g.chart(ctx, in.Chart)
	}
	c.to(StateInferring)
	return g.infer(ctx, c, q, in, ep)
}

func (g *Gateway) resolve(ctx context.Context) (endpoint.Endpoint, bool) {
	rctx, cancel := context.WithTimeout(ctx, g.cfg.ProbeTimeout)
	defer cancel()
	ep, cached, ok := g.cfg.Endpoints.Resolve(rctx)
	switch {
	case !ok:
		endpointCacheTotal.WithLabelValues("none").Inc()
	case cached:
		endpointCacheTotal.WithLabelValues("cache").Inc()
	default:
		endpointCacheTotal.WithLabelValues("probe").Inc()
		g.log.Info().Str("endpoint", ep.Address).Msg("inference endpoint discovered")
	}
	return ep, ok
}

// chart resolves an analytics intent locally. A failing aggregator leaves
// the answer without data; nothing is estimated.
func (g *Gateway) chart(ctx context.Context, kind query.ChartKind) query.Result {
	if g.cfg.Aggregator == nil {
		g.clearLastError()
		return query.ChartAnswer(kind, chartSummary(kind, nil, false), nil)
	}
	data, err := g.cfg.Aggregator.Aggregate(ctx, kind)
	if err != nil {
		g.log.Warn().Err(err).Str("chart", string(kind)).Msg("aggregation failed")
		return query.ChartAnswer(kind, chartSummary(kind, nil, true), nil)
	}
	g.clearLastError()
	data.Kind = kind
	return query.ChartAnswer(kind, chartSummary(kind, &data, false), &data)
}

func (g *Gateway) infer(ctx context.Context, c *call, q query.Query, in query.Intent, ep endpoint.Endpoint) query.Result {
	prompt, err := g.buildPrompt(ctx, q, in)
	if err != nil {
		return g.degrade(c, q, in, query.ReasonInferenceFailure, err)
	}
	ictx, cancel := context.WithTimeout(ctx, g.cfg.InferenceTimeout)
	defer cancel()
	resp, err := g.cfg.Inference.Generate(ictx, ep.Address, inference.GenerateRequest{
		Model:   g.cfg.RequiredModel,
		Prompt:  prompt,
		System:  g.cfg.SystemPrompt,
		Context: g.sessionContext(q.SessionID),
	})
	if err != nil {
		switch {
		case inference.IsModelNotFound(err):
			g.cfg.Models.Invalidate(ep.Address)
			return g.degrade(c, q, in, query.ReasonModelMissing, err)
		case inference.IsUnreachable(err):
			g.dropEndpoint(ep.Address)
		}
		return g.degrade(c, q, in, query.ReasonInferenceFailure, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return g.degrade(c, q, in, query.ReasonInferenceFailure, errEmptyGenerated)
	}
	g.storeContext(q.SessionID, resp.Context)
	g.cfg.Endpoints.Cache().Confirm(ep.Address)
	g.clearLastError()
	return query.TextAnswer(text, in)
}

// dropEndpoint records a failure for address and forces re-discovery. The
// failure count survives, so repeated failures demote address.
func (g *Gateway) dropEndpoint(address string) {
	cache := g.cfg.Endpoints.Cache()
	cache.MarkFailed(address)
	cache.Drop()
	g.cfg.Models.Invalidate(address)
}

func (g *Gateway) degrade(c *call, q query.Query, in query.Intent, reason query.Reason, cause error) query.Result {
	c.to(StateFallingBack)
	g.mu.Lock()
	g.lastErr = cause.Error()
	g.lastWhy = reason
	g.lastAt = time.Now()
	g.mu.Unlock()
	g.log.Warn().Str("call", c.id).Str("reason", string(reason)).Err(cause).Msg("degraded answer")
	return query.DegradedAnswer(g.cfg.Fallback.Respond(q, in, reason), reason, in)
}

func (g *Gateway) clearLastError() {
	g.mu.Lock()
	g.lastErr = ""
	g.lastWhy = query.ReasonNone
	g.mu.Unlock()
}

func (g *Gateway) sessionContext(session string) []int {
	if session == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	tokens := g.contexts[session]
	if len(tokens) == 0 {
		return nil
	}
	out := make([]int, len(tokens))
	copy(out, tokens)
	return out
}

func (g *Gateway) storeContext(session string, tokens []int) {
	if session == "" || len(tokens) == 0 {
		return
	}
	g.mu.Lock()
	g.contexts[session] = tokens
	g.mu.Unlock()
}
