package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Refresher keeps the cache warm by re-probing in the background before the
// active endpoint decays, so interactive requests rarely pay for discovery.
type Refresher struct {
	resolver *Resolver
	every    time.Duration
	log      zerolog.Logger
	cron     *cron.Cron
}

func NewRefresher(resolver *Resolver, every time.Duration, log zerolog.Logger) *Refresher {
	if every <= 0 {
		every = resolver.Cache().Freshness() / 2
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Refresher{resolver: resolver, every: every, log: log, cron: c}
}

// Start schedules the refresh job and runs one sweep immediately.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.every), func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule refresher: %w", err)
	}
	r.cron.Start()
	go r.Tick(ctx)
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Tick re-probes unless the active endpoint was confirmed within the
// refresh period.
func (r *Refresher) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cache := r.resolver.Cache()
	if ep, ok := cache.Active(); ok && time.Since(ep.LastCheckedAt) < r.every {
		return
	}
	sweepCtx, cancel := context.WithTimeout(ctx, r.resolver.Probe().Timeout()*2)
	defer cancel()
	ep, ok := r.resolver.Refresh(sweepCtx)
	if !ok {
		r.log.Debug().Msg("refresh: no reachable endpoint")
		return
	}
	r.log.Debug().Str("endpoint", ep.Address).Msg("refresh: endpoint confirmed")
}
