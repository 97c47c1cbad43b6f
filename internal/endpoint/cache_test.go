package endpoint

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func reachableAt(addr string, at time.Time) Endpoint {
	ms := int64(3)
	return Endpoint{Address: NormalizeAddress(addr), LastCheckedAt: at, LastLatencyMs: &ms, Status: StatusReachable}
}

func TestCacheActiveWithinFreshness(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1", "10.0.2.2"}, CacheOptions{Freshness: time.Minute, Now: clk.Now})
	if _, ok := c.Active(); ok {
		t.Fatalf("empty cache returned an active endpoint")
	}
	if !c.Activate(reachableAt("10.0.2.2", clk.Now()), c.Generation()) {
		t.Fatalf("activate failed")
	}
	ep, ok := c.Active()
	if !ok || ep.Address != NormalizeAddress("10.0.2.2") {
		t.Fatalf("active=%+v ok=%v", ep, ok)
	}
	clk.Advance(59 * time.Second)
	if _, ok := c.Active(); !ok {
		t.Fatalf("expired too early")
	}
	clk.Advance(2 * time.Second)
	if _, ok := c.Active(); ok {
		t.Fatalf("stale endpoint still trusted")
	}
}

func TestCacheTrustDecays(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1"}, CacheOptions{Freshness: time.Minute, Now: clk.Now})
	c.Activate(reachableAt("127.0.0.1", clk.Now()), c.Generation())
	t0 := c.Snapshot()[0].Trust
	clk.Advance(30 * time.Second)
	t1 := c.Snapshot()[0].Trust
	clk.Advance(31 * time.Second)
	v := c.Snapshot()[0]
	if !(t0 > t1 && t1 > v.Trust) || v.Trust != 0 {
		t.Fatalf("trust not decaying: %v %v %v", t0, t1, v.Trust)
	}
	if v.Endpoint.Status != StatusUnknown {
		t.Fatalf("stale snapshot status=%v", v.Endpoint.Status)
	}
}

func TestCacheInvalidateWinsOverInFlightDiscovery(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1"}, CacheOptions{Now: clk.Now})
	gen := c.Generation()
	c.Invalidate()
	if c.Activate(reachableAt("127.0.0.1", clk.Now()), gen) {
		t.Fatalf("stale generation activated")
	}
	if _, ok := c.Active(); ok {
		t.Fatalf("active after lost CAS")
	}
	if !c.Activate(reachableAt("127.0.0.1", clk.Now()), c.Generation()) {
		t.Fatalf("current generation rejected")
	}
}

func TestCacheRecordResultDropsOlderObservations(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1"}, CacheOptions{Now: clk.Now})
	now := clk.Now()
	if !c.RecordResult(reachableAt("127.0.0.1", now), true) {
		t.Fatalf("first record rejected")
	}
	old := Endpoint{Address: NormalizeAddress("127.0.0.1"), LastCheckedAt: now.Add(-time.Second)}
	if c.RecordResult(old, false) {
		t.Fatalf("older observation applied")
	}
	if got := c.Snapshot()[0].Endpoint.Status; got != StatusReachable {
		t.Fatalf("status=%v", got)
	}
	if c.RecordResult(reachableAt("192.168.9.9", now), true) {
		t.Fatalf("unknown address applied")
	}
}

func TestCacheDemotesAfterRepeatedFailures(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1", "localhost", "10.0.2.2"}, CacheOptions{FailureThreshold: 2, Now: clk.Now})
	c.Activate(reachableAt("127.0.0.1", clk.Now()), c.Generation())

	clk.Advance(time.Second)
	c.MarkFailed(NormalizeAddress("127.0.0.1"))
	if _, ok := c.Active(); ok {
		t.Fatalf("failed endpoint still active")
	}
	if c.Candidates()[0].Address != NormalizeAddress("127.0.0.1") {
		t.Fatalf("demoted after a single failure")
	}
	clk.Advance(time.Second)
	c.MarkFailed(NormalizeAddress("127.0.0.1"))
	cands := c.Candidates()
	if cands[len(cands)-1].Address != NormalizeAddress("127.0.0.1") {
		t.Fatalf("demoted endpoint not last: %+v", cands)
	}
	if cands[0].Address != NormalizeAddress("localhost") {
		t.Fatalf("order of healthy candidates changed: %+v", cands)
	}
	snap := c.Snapshot()
	if !snap[0].Demoted || snap[0].Failures != 2 || snap[0].Endpoint.LastLatencyMs == nil {
		t.Fatalf("snapshot=%+v", snap[0])
	}

	c.Invalidate()
	if c.Candidates()[0].Address != NormalizeAddress("127.0.0.1") {
		t.Fatalf("invalidate did not clear demotion")
	}
}

func TestCacheDropKeepsFailureHistory(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"10.0.0.1", "10.0.0.2"}, CacheOptions{FailureThreshold: 2, Now: clk.Now})
	first := NormalizeAddress("10.0.0.1")

	for i := 0; i < 2; i++ {
		clk.Advance(time.Second)
		gen := c.Generation()
		// A passing liveness probe must not wipe the failures seen at use time.
		if !c.Observe(reachableAt(first, clk.Now())) {
			t.Fatalf("observation %d not applied", i)
		}
		c.Activate(reachableAt(first, clk.Now()), gen)
		clk.Advance(time.Second)
		c.MarkFailed(first)
		c.Drop()
		if c.Generation() == gen {
			t.Fatalf("drop did not bump generation")
		}
		if _, ok := c.Active(); ok {
			t.Fatalf("dropped endpoint still active")
		}
	}

	cands, preferred := c.Ranked()
	if preferred != 1 || cands[0].Address != NormalizeAddress("10.0.0.2") || cands[1].Address != first {
		t.Fatalf("ranked=%+v preferred=%d", cands, preferred)
	}
	if snap := c.Snapshot()[0]; !snap.Demoted || snap.Failures != 2 {
		t.Fatalf("snapshot=%+v", snap)
	}

	c.Confirm(first)
	if _, preferred := c.Ranked(); preferred != 2 {
		t.Fatalf("confirm did not restore the endpoint, preferred=%d", preferred)
	}
}

func TestCacheSetCandidatesKeepsHistory(t *testing.T) {
	clk := newFakeClock()
	c := NewCache([]string{"127.0.0.1", "10.0.2.2"}, CacheOptions{Now: clk.Now})
	c.Activate(reachableAt("10.0.2.2", clk.Now()), c.Generation())
	c.SetCandidates([]string{"10.0.2.2", "10.0.2.2:11434", "192.168.1.50"})
	cands := c.Candidates()
	if len(cands) != 2 {
		t.Fatalf("duplicates not collapsed: %+v", cands)
	}
	if cands[0].Status != StatusReachable {
		t.Fatalf("history lost: %+v", cands[0])
	}
	if _, ok := c.Active(); !ok {
		t.Fatalf("surviving active endpoint dropped")
	}
	c.SetCandidates([]string{"192.168.1.50"})
	if _, ok := c.Active(); ok {
		t.Fatalf("removed endpoint still active")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(DefaultCandidates(), CacheOptions{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr := DefaultCandidates()[i%len(DefaultCandidates())]
			for j := 0; j < 200; j++ {
				switch j % 4 {
				case 0:
					c.Activate(reachableAt(addr, time.Now()), c.Generation())
				case 1:
					c.Active()
				case 2:
					c.MarkFailed(NormalizeAddress(addr))
				default:
					c.Snapshot()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestResolverUsesCacheBeforeProbing(t *testing.T) {
	var calls atomic.Int32
	chk := CheckerFunc(func(ctx context.Context, address string) error {
		calls.Add(1)
		if address == NormalizeAddress("localhost") {
			return nil
		}
		return context.DeadlineExceeded
	})
	c := NewCache([]string{"127.0.0.1", "localhost"}, CacheOptions{})
	r := NewResolver(c, NewProbe(chk, ProbeOptions{Timeout: time.Second}))

	ep, cached, ok := r.Resolve(context.Background())
	if !ok || cached || ep.Address != NormalizeAddress("localhost") {
		t.Fatalf("first resolve: %+v cached=%v ok=%v", ep, cached, ok)
	}
	n := calls.Load()
	if n == 0 {
		t.Fatalf("no probes on cold cache")
	}
	ep2, cached, ok := r.Resolve(context.Background())
	if !ok || !cached || ep2.Address != ep.Address {
		t.Fatalf("second resolve: %+v cached=%v ok=%v", ep2, cached, ok)
	}
	if calls.Load() != n {
		t.Fatalf("cache hit probed the network: %d -> %d", n, calls.Load())
	}
}

func TestResolverNoneReachable(t *testing.T) {
	c := NewCache([]string{"127.0.0.1", "localhost"}, CacheOptions{FailureThreshold: 1})
	r := NewResolver(c, NewProbe(upOnly(), ProbeOptions{}))
	if _, _, ok := r.Resolve(context.Background()); ok {
		t.Fatalf("resolved with nothing reachable")
	}
	for _, v := range c.Snapshot() {
		if v.Endpoint.Status != StatusUnreachable || !v.Demoted {
			t.Fatalf("failure not recorded: %+v", v)
		}
	}
}
