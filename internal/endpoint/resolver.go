package endpoint

import "context"

// Resolver combines the cache and the probe: a fresh cached endpoint is
// returned without touching the network, otherwise candidates are swept.
type Resolver struct {
	cache *Cache
	probe *Probe
}

func NewResolver(cache *Cache, probe *Probe) *Resolver {
	return &Resolver{cache: cache, probe: probe}
}

func (r *Resolver) Cache() *Cache { return r.cache }

func (r *Resolver) Probe() *Probe { return r.probe }

// Resolve returns a usable endpoint. cached reports whether it came from the
// cache without probing.
func (r *Resolver) Resolve(ctx context.Context) (ep Endpoint, cached bool, ok bool) {
	if ep, ok := r.cache.Active(); ok {
		return ep, true, true
	}
	ep, ok = r.discover(ctx)
	return ep, false, ok
}

// Refresh sweeps candidates even if the cache holds a fresh endpoint.
func (r *Resolver) Refresh(ctx context.Context) (Endpoint, bool) {
	return r.discover(ctx)
}

func (r *Resolver) discover(ctx context.Context) (Endpoint, bool) {
	gen := r.cache.Generation()
	candidates, preferred := r.cache.Ranked()
	if len(candidates) == 0 {
		return Endpoint{}, false
	}
	first, probed, ok := r.probe.DiscoverPreferred(ctx, candidates, preferred)
	for i, ep := range probed {
		if ep.LastCheckedAt.Equal(candidates[i].LastCheckedAt) {
			continue
		}
		r.cache.Observe(ep)
	}
	if !ok {
		return Endpoint{}, false
	}
	// A lost race with Invalidate still yields a working endpoint for this
	// caller; the next caller re-discovers.
	r.cache.Activate(first, gen)
	return first, true
}
