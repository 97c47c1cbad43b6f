package endpoint

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func candidates(addrs ...string) []Endpoint {
	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, New(a))
	}
	return out
}

// upOnly returns a checker that succeeds only for the given normalized addresses.
func upOnly(up ...string) CheckerFunc {
	set := map[string]bool{}
	for _, a := range up {
		set[NormalizeAddress(a)] = true
	}
	return func(ctx context.Context, address string) error {
		if set[address] {
			return nil
		}
		return errors.New("connection refused")
	}
}

func TestDiscoverMarksReachableAndUnreachable(t *testing.T) {
	p := NewProbe(upOnly("10.0.2.2"), ProbeOptions{Timeout: time.Second})
	out, err := p.Discover(context.Background(), candidates("127.0.0.1", "10.0.2.2", "192.168.1.1"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len=%d", len(out))
	}
	if out[1].Status != StatusReachable {
		t.Fatalf("expected emulator alias reachable, got %v", out[1].Status)
	}
	if out[1].LastLatencyMs == nil {
		t.Fatalf("latency not recorded")
	}
	for _, i := range []int{0, 2} {
		if out[i].Status != StatusUnreachable {
			t.Fatalf("candidate %d status=%v", i, out[i].Status)
		}
		if out[i].LastCheckedAt.IsZero() {
			t.Fatalf("candidate %d not stamped", i)
		}
	}
}

func TestDiscoverAllUnreachable(t *testing.T) {
	p := NewProbe(upOnly(), ProbeOptions{})
	out, err := p.Discover(context.Background(), candidates(DefaultCandidates()...))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	for _, ep := range out {
		if ep.Status == StatusReachable {
			t.Fatalf("unexpected reachable %s", ep.Address)
		}
	}
}

func TestDiscoverDoesNotMutateInput(t *testing.T) {
	in := candidates("127.0.0.1")
	p := NewProbe(upOnly("127.0.0.1"), ProbeOptions{})
	if _, err := p.Discover(context.Background(), in); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if in[0].Status != StatusUnknown {
		t.Fatalf("input mutated: %v", in[0].Status)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	p := NewProbe(upOnly(), ProbeOptions{})
	if _, err := p.Discover(context.Background(), nil); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestDiscoverRunsConcurrently(t *testing.T) {
	slow := CheckerFunc(func(ctx context.Context, address string) error {
		select {
		case <-time.After(150 * time.Millisecond):
			return errors.New("nope")
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	p := NewProbe(slow, ProbeOptions{Timeout: time.Second})
	start := time.Now()
	if _, err := p.Discover(context.Background(), candidates(DefaultCandidates()...)); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Fatalf("sweep took %v; probes are not concurrent", d)
	}
}

func TestDiscoverTimeoutIsUnreachable(t *testing.T) {
	hang := CheckerFunc(func(ctx context.Context, address string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	p := NewProbe(hang, ProbeOptions{Timeout: 30 * time.Millisecond})
	out, err := p.Discover(context.Background(), candidates("127.0.0.1"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if out[0].Status != StatusUnreachable {
		t.Fatalf("timed-out probe status=%v", out[0].Status)
	}
}

func TestDiscoverFirstShortCircuits(t *testing.T) {
	var slowDone atomic.Int32
	chk := CheckerFunc(func(ctx context.Context, address string) error {
		if address == NormalizeAddress("127.0.0.1") {
			return nil
		}
		<-ctx.Done()
		slowDone.Add(1)
		return ctx.Err()
	})
	p := NewProbe(chk, ProbeOptions{Timeout: 5 * time.Second})
	start := time.Now()
	first, out, ok := p.DiscoverFirst(context.Background(), candidates("127.0.0.1", "192.168.1.1", "192.168.0.1"))
	if !ok {
		t.Fatalf("expected a reachable endpoint")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("short circuit did not cancel slow probes")
	}
	if first.Address != NormalizeAddress("127.0.0.1") {
		t.Fatalf("first=%s", first.Address)
	}
	for _, ep := range out[1:] {
		if ep.Status != StatusUnknown || !ep.LastCheckedAt.IsZero() {
			t.Fatalf("cut-short probe changed state: %+v", ep)
		}
	}
	if slowDone.Load() != 2 {
		t.Fatalf("slow probes not released: %d", slowDone.Load())
	}
}

func TestDiscoverPreferredWaitsForPreferredCandidate(t *testing.T) {
	chk := CheckerFunc(func(ctx context.Context, address string) error {
		if address == NormalizeAddress("10.0.0.2") {
			time.Sleep(30 * time.Millisecond)
		}
		return nil
	})
	p := NewProbe(chk, ProbeOptions{Timeout: time.Second})

	// 10.0.0.1 answers first but sits past the preferred prefix.
	first, _, ok := p.DiscoverPreferred(context.Background(), candidates("10.0.0.2", "10.0.0.1"), 1)
	if !ok || first.Address != NormalizeAddress("10.0.0.2") {
		t.Fatalf("first=%+v ok=%v", first, ok)
	}

	down := CheckerFunc(func(ctx context.Context, address string) error {
		if address == NormalizeAddress("10.0.0.1") {
			return nil
		}
		return errors.New("connection refused")
	})
	p = NewProbe(down, ProbeOptions{Timeout: time.Second})
	first, _, ok = p.DiscoverPreferred(context.Background(), candidates("10.0.0.2", "10.0.0.1"), 1)
	if !ok || first.Address != NormalizeAddress("10.0.0.1") {
		t.Fatalf("demoted candidate not used as last resort: %+v ok=%v", first, ok)
	}
}

func TestProbePanicIsolated(t *testing.T) {
	chk := CheckerFunc(func(ctx context.Context, address string) error {
		if address == NormalizeAddress("127.0.0.1") {
			panic("boom")
		}
		return nil
	})
	p := NewProbe(chk, ProbeOptions{})
	out, err := p.Discover(context.Background(), candidates("127.0.0.1", "localhost"))
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if out[0].Status != StatusUnreachable || out[1].Status != StatusReachable {
		t.Fatalf("statuses: %v %v", out[0].Status, out[1].Status)
	}
}

func TestProbeObserve(t *testing.T) {
	var n atomic.Int32
	p := NewProbe(upOnly("localhost"), ProbeOptions{Observe: func(Endpoint) { n.Add(1) }})
	if _, err := p.Discover(context.Background(), candidates("127.0.0.1", "localhost")); err != nil {
		t.Fatalf("discover: %v", err)
	}
	if n.Load() != 2 {
		t.Fatalf("observe calls=%d", n.Load())
	}
}

func TestHTTPChecker(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path=%s", r.URL.Path)
		}
		w.Write([]byte("Ollama is running"))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<html>welcome</html>"))
	}))
	defer other.Close()

	c := NewHTTPChecker(time.Second)
	if err := c.Check(context.Background(), ok.URL); err != nil {
		t.Fatalf("ok server: %v", err)
	}
	if err := c.Check(context.Background(), bad.URL); err == nil {
		t.Fatalf("expected error from 500")
	}
	if err := c.Check(context.Background(), other.URL); !errors.Is(err, ErrNotInferenceServer) {
		t.Fatalf("unrelated web server accepted: %v", err)
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1":               "http://127.0.0.1:11434",
		"localhost:8080":          "http://localhost:8080",
		"http://10.0.2.2:11434/":  "http://10.0.2.2:11434",
		"https://ollama.lan":      "https://ollama.lan:11434",
		"  http://host:1/api/  ": "http://host:1/api",
		"":                        "",
	}
	for in, want := range cases {
		if got := NormalizeAddress(in); got != want {
			t.Fatalf("NormalizeAddress(%q)=%q want %q", in, got, want)
		}
	}
}
