package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProbeTimeout bounds a single candidate's liveness check.
const DefaultProbeTimeout = 1500 * time.Millisecond

// Checker performs one liveness check against a base address.
// Implementations must return promptly once ctx is done.
type Checker interface {
	Check(ctx context.Context, address string) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, address string) error

func (f CheckerFunc) Check(ctx context.Context, address string) error { return f(ctx, address) }

// HTTPChecker treats GET <address>/ as alive only when it answers 2xx with
// the inference server's banner, so an unrelated web service on a candidate
// address is not mistaken for one.
type HTTPChecker struct {
	client *http.Client
	banner string
}

// DefaultBanner is what Ollama serves on its root path.
const DefaultBanner = "Ollama is running"

// NewHTTPChecker builds a checker with its own transport. The client has no
// overall timeout; every request carries a context deadline instead.
func NewHTTPChecker(connectTimeout time.Duration) *HTTPChecker {
	if connectTimeout <= 0 {
		connectTimeout = DefaultProbeTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: connectTimeout,
	}
	return &HTTPChecker{client: &http.Client{Transport: tr}, banner: DefaultBanner}
}

func (c *HTTPChecker) Check(ctx context.Context, address string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("liveness status %d", resp.StatusCode)
	}
	if !strings.Contains(strings.ToLower(string(body)), strings.ToLower(c.banner)) {
		return ErrNotInferenceServer
	}
	return nil
}

// ProbeOptions tunes a Probe. Zero values select defaults.
type ProbeOptions struct {
	Timeout time.Duration
	Logger  zerolog.Logger
	// Observe is called once per completed candidate probe.
	Observe func(Endpoint)
	Now     func() time.Time
}

// Probe sweeps candidates concurrently so discovery costs the slowest single
// probe, not the sum.
type Probe struct {
	checker Checker
	timeout time.Duration
	log     zerolog.Logger
	observe func(Endpoint)
	now     func() time.Time
}

func NewProbe(checker Checker, opts ProbeOptions) *Probe {
	p := &Probe{
		checker: checker,
		timeout: opts.Timeout,
		log:     opts.Logger,
		observe: opts.Observe,
		now:     opts.Now,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultProbeTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Timeout is the per-candidate deadline.
func (p *Probe) Timeout() time.Duration { return p.timeout }

// Discover probes every candidate and returns copies with status, check time
// and latency updated. A failing candidate never affects the others.
func (p *Probe) Discover(ctx context.Context, candidates []Endpoint) ([]Endpoint, error) {
	out, _, err := p.sweep(ctx, candidates, false, len(candidates))
	return out, err
}

// DiscoverFirst stops the sweep at the first reachable candidate. Probes cut
// short keep their previous state.
func (p *Probe) DiscoverFirst(ctx context.Context, candidates []Endpoint) (Endpoint, []Endpoint, bool) {
	return p.DiscoverPreferred(ctx, candidates, len(candidates))
}

// DiscoverPreferred is DiscoverFirst where only the first preferred
// candidates may end the sweep early. A reachable candidate past that prefix
// is used only when no preferred one answers.
func (p *Probe) DiscoverPreferred(ctx context.Context, candidates []Endpoint, preferred int) (Endpoint, []Endpoint, bool) {
	out, first, err := p.sweep(ctx, candidates, true, preferred)
	if err != nil || first < 0 {
		return Endpoint{}, out, false
	}
	return out[first], out, true
}

type probeResult struct {
	index   int
	at      time.Time
	latency time.Duration
	err     error
	aborted bool
}

func (p *Probe) sweep(ctx context.Context, candidates []Endpoint, firstOnly bool, preferred int) ([]Endpoint, int, error) {
	if len(candidates) == 0 {
		return nil, -1, ErrNoCandidates
	}
	out := make([]Endpoint, len(candidates))
	copy(out, candidates)

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan probeResult, len(out))
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			results <- p.probeOne(sweepCtx, i, addr)
		}(i, out[i].Address)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	first, fallback := -1, -1
	for r := range results {
		if r.aborted {
			continue
		}
		ep := &out[r.index]
		ep.LastCheckedAt = r.at
		if r.err == nil {
			ms := r.latency.Milliseconds()
			ep.LastLatencyMs = &ms
			ep.Status = StatusReachable
			switch {
			case r.index >= preferred:
				if fallback < 0 {
					fallback = r.index
				}
			case first < 0:
				first = r.index
				if firstOnly {
					cancel()
				}
			}
		} else {
			ep.Status = StatusUnreachable
			p.log.Debug().Str("endpoint", ep.Address).Err(r.err).Msg("probe failed")
		}
		if p.observe != nil {
			p.observe(*ep)
		}
	}
	if first < 0 {
		first = fallback
	}
	return out, first, nil
}

func (p *Probe) probeOne(ctx context.Context, i int, addr string) (res probeResult) {
	res.index = i
	defer func() {
		if rec := recover(); rec != nil {
			res.err = fmt.Errorf("probe panic: %v", rec)
			res.at = p.now()
		}
	}()
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()
	err := p.checker.Check(cctx, addr)
	res.latency = time.Since(start)
	res.at = p.now()
	res.err = err
	// Canceled (not timed out) means the sweep was short-circuited or the
	// caller gave up; neither says anything about this candidate.
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		res.aborted = true
	}
	return res
}
