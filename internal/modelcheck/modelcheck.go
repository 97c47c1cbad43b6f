// Package modelcheck answers "does this endpoint have the required model
// installed", caching successful answers per endpoint for a short TTL.
package modelcheck

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"aigateway/internal/inference"
)

// DefaultTTL is how long a successful listing is reused.
const DefaultTTL = 30 * time.Second

// Lister is the slice of the inference client the checker needs.
type Lister interface {
	ListModels(ctx context.Context, baseURL string) ([]inference.ModelInfo, error)
}

// Status is the outcome of one availability check.
type Status struct {
	Endpoint    string
	Installed   []string
	Required    string
	CheckedAt   time.Time
	Err         string
	Unreachable bool
}

// RequiredModelPresent is derived from the installed set; it cannot
// disagree with it.
func (s Status) RequiredModelPresent() bool {
	if s.Required == "" {
		return false
	}
	want := CanonicalName(s.Required)
	for _, name := range s.Installed {
		if CanonicalName(name) == want {
			return true
		}
	}
	return false
}

// CanonicalName folds case and the implicit ":latest" tag so "Llama3.2" and
// "llama3.2:latest" compare equal.
func CanonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimSuffix(n, ":latest")
}

// Options configures a Checker.
type Options struct {
	Required string
	TTL      time.Duration
	Logger   zerolog.Logger
	Now      func() time.Time
}

type entry struct {
	mu     sync.Mutex
	status Status
	valid  bool
}

// Checker runs and caches model listings per endpoint address.
type Checker struct {
	lister   Lister
	required string
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a Checker for the required model.
func New(lister Lister, opts Options) *Checker {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Checker{
		lister:   lister,
		required: opts.Required,
		ttl:      ttl,
		log:      opts.Logger,
		now:      now,
		entries:  make(map[string]*entry),
	}
}

// Required returns the configured model name.
func (c *Checker) Required() string { return c.required }

func (c *Checker) entryFor(address string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[address]
	if !ok {
		e = &entry{}
		c.entries[address] = e
	}
	return e
}

// Check never fails: listing errors come back as a Status with Err set and
// RequiredModelPresent false. Only one listing per endpoint is in flight;
// concurrent callers wait on the entry and reuse its result.
func (c *Checker) Check(ctx context.Context, address string) Status {
	e := c.entryFor(address)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := c.now()
	if e.valid && now.Sub(e.status.CheckedAt) < c.ttl {
		return e.status
	}

	st := Status{Endpoint: address, Required: c.required, CheckedAt: now}
	models, err := c.lister.ListModels(ctx, address)
	if err != nil {
		st.Err = err.Error()
		// A 404 on /api/tags means whatever answers is not an inference server.
		st.Unreachable = inference.IsUnreachable(err) || inference.IsTimeout(err) ||
			inference.IsStatus(err, http.StatusNotFound)
		e.valid = false
		c.log.Debug().Err(err).Str("endpoint", address).Bool("unreachable", st.Unreachable).Msg("model listing failed")
		return st
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	st.Installed = names
	e.status = st
	e.valid = true
	c.log.Debug().Str("endpoint", address).Int("models", len(names)).Bool("required_present", st.RequiredModelPresent()).Msg("model listing")
	return st
}

// Last returns the cached status for address without contacting it.
func (c *Checker) Last(address string) (Status, bool) {
	c.mu.Lock()
	e, ok := c.entries[address]
	c.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.valid
}

// Invalidate drops the cached listing for address.
func (c *Checker) Invalidate(address string) {
	c.mu.Lock()
	e, ok := c.entries[address]
	c.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}

// InvalidateAll drops every cached listing.
func (c *Checker) InvalidateAll() {
	c.mu.Lock()
	all := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, e)
	}
	c.mu.Unlock()
	for _, e := range all {
		e.mu.Lock()
		e.valid = false
		e.mu.Unlock()
	}
}
