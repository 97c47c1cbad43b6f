package endpoint

import (
	"sync"
	"time"
)

// Defaults applied when CacheOptions fields are unset.
const (
	DefaultFreshness        = 60 * time.Second
	DefaultFailureThreshold = 2
)

// CacheOptions tunes a Cache.
type CacheOptions struct {
	Freshness        time.Duration
	FailureThreshold int
	Now              func() time.Time
}

type cacheEntry struct {
	ep       Endpoint
	failures int
	demoted  bool
}

// View is a read-only projection of one cached endpoint.
type View struct {
	Endpoint Endpoint `json:"endpoint"`
	// Trust decays linearly from 1 to 0 over the freshness window.
	Trust    float64 `json:"trust"`
	Failures int     `json:"failures"`
	Demoted  bool    `json:"demoted"`
	Active   bool    `json:"active"`
}

// Cache remembers the last known-good endpoint and recent failures so that
// not every request pays for discovery. Reads share the lock; writes
// serialize. Nothing is trusted past the freshness window.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]*cacheEntry
	order     []string
	active    string
	gen       uint64
	freshness time.Duration
	threshold int
	now       func() time.Time
}

func NewCache(candidates []string, opts CacheOptions) *Cache {
	c := &Cache{
		entries:   make(map[string]*cacheEntry),
		freshness: opts.Freshness,
		threshold: opts.FailureThreshold,
		now:       opts.Now,
	}
	if c.freshness <= 0 {
		c.freshness = DefaultFreshness
	}
	if c.threshold <= 0 {
		c.threshold = DefaultFailureThreshold
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.setCandidatesLocked(candidates)
	return c
}

// Freshness is the window within which a reachable probe is trusted.
func (c *Cache) Freshness() time.Duration { return c.freshness }

// Active returns the last known-good endpoint if it is still fresh.
func (c *Cache) Active() (Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == "" {
		return Endpoint{}, false
	}
	e, ok := c.entries[c.active]
	if !ok || !e.ep.FreshAt(c.now(), c.freshness) {
		return Endpoint{}, false
	}
	return e.ep, true
}

// Generation changes on every Invalidate, Drop and SetCandidates. Pass it
// to Activate to detect invalidations that raced with a discovery.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Invalidate forces the next resolution to re-discover from scratch and
// forgets every failure, so demoted candidates get a fair retry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ""
	c.gen++
	for _, e := range c.entries {
		e.failures = 0
		e.demoted = false
	}
}

// Drop forces the next resolution to re-discover but keeps failure history,
// so a demoted endpoint stays behind healthier candidates.
func (c *Cache) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = ""
	c.gen++
}

// RecordResult stores one observation. Observations older than what is
// already stored are dropped. A success clears the failure count; repeated
// failures demote the endpoint so discovery tries other candidates first.
// It reports whether the observation was applied.
func (c *Cache) RecordResult(ep Endpoint, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordLocked(ep, success, success)
}

// Observe stores a liveness probe result. A reachable probe refreshes the
// endpoint but keeps its failure count; only Confirm and RecordResult clear
// it.
func (c *Cache) Observe(ep Endpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordLocked(ep, ep.Status == StatusReachable, false)
}

func (c *Cache) recordLocked(ep Endpoint, success, reset bool) bool {
	e, ok := c.entries[ep.Address]
	if !ok {
		return false
	}
	if ep.LastCheckedAt.IsZero() {
		ep.LastCheckedAt = c.now()
	}
	if ep.LastCheckedAt.Before(e.ep.LastCheckedAt) {
		return false
	}
	if ep.LastLatencyMs == nil {
		ep.LastLatencyMs = e.ep.LastLatencyMs
	}
	if success {
		ep.Status = StatusReachable
		if reset {
			e.failures = 0
			e.demoted = false
		}
	} else {
		ep.Status = StatusUnreachable
		e.failures++
		if e.failures >= c.threshold {
			e.demoted = true
		}
		if c.active == ep.Address && e.demoted {
			c.active = ""
		}
	}
	e.ep = ep
	return true
}

// MarkFailed records a failure observed outside discovery, e.g. a transport
// error from a previously good endpoint.
func (c *Cache) MarkFailed(address string) {
	c.RecordResult(Endpoint{Address: address, LastCheckedAt: c.now()}, false)
}

// Confirm records that address completed real work and clears its failure
// history.
func (c *Cache) Confirm(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[address]; ok {
		e.failures = 0
		e.demoted = false
	}
}

// Activate installs ep as the active endpoint, but only if the cache has not
// been invalidated since gen was read. Failure history is left alone.
func (c *Cache) Activate(ep Endpoint, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || ep.Status != StatusReachable {
		return false
	}
	if !c.recordLocked(ep, true, false) {
		return false
	}
	c.active = ep.Address
	return true
}

// Candidates returns every endpoint in discovery order: healthy candidates
// in configured order, demoted ones last. Stale reachable entries are
// reported as unknown.
func (c *Cache) Candidates() []Endpoint {
	out, _ := c.Ranked()
	return out
}

// Ranked is Candidates plus the number of leading, non-demoted entries.
func (c *Cache) Ranked() ([]Endpoint, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	head := make([]Endpoint, 0, len(c.order))
	var tail []Endpoint
	for _, addr := range c.order {
		e := c.entries[addr]
		ep := e.ep
		if ep.Status == StatusReachable && !ep.FreshAt(now, c.freshness) {
			ep.Status = StatusUnknown
		}
		if e.demoted {
			tail = append(tail, ep)
			continue
		}
		head = append(head, ep)
	}
	preferred := len(head)
	return append(head, tail...), preferred
}

// SetCandidates replaces the candidate list. Surviving addresses keep their
// history; the active endpoint is dropped if it is no longer listed.
func (c *Cache) SetCandidates(addresses []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCandidatesLocked(addresses)
	c.gen++
}

func (c *Cache) setCandidatesLocked(addresses []string) {
	next := make(map[string]*cacheEntry, len(addresses))
	order := make([]string, 0, len(addresses))
	for _, raw := range addresses {
		addr := NormalizeAddress(raw)
		if addr == "" {
			continue
		}
		if _, dup := next[addr]; dup {
			continue
		}
		if old, ok := c.entries[addr]; ok {
			next[addr] = old
		} else {
			next[addr] = &cacheEntry{ep: New(addr)}
		}
		order = append(order, addr)
	}
	c.entries = next
	c.order = order
	if _, ok := next[c.active]; !ok {
		c.active = ""
	}
}

// Snapshot returns a view of every endpoint in configured order.
func (c *Cache) Snapshot() []View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	out := make([]View, 0, len(c.order))
	for _, addr := range c.order {
		e := c.entries[addr]
		v := View{
			Endpoint: e.ep,
			Failures: e.failures,
			Demoted:  e.demoted,
			Active:   addr == c.active,
		}
		if e.ep.Status == StatusReachable {
			v.Trust = c.trust(now, e.ep.LastCheckedAt)
			if v.Trust == 0 {
				v.Endpoint.Status = StatusUnknown
			}
		}
		out = append(out, v)
	}
	return out
}

func (c *Cache) trust(now, at time.Time) float64 {
	age := now.Sub(at)
	if age < 0 {
		age = 0
	}
	t := 1 - float64(age)/float64(c.freshness)
	if t < 0 {
		return 0
	}
	return t
}
