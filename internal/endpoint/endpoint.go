// Package endpoint discovers which candidate address of the local inference
// server is reachable and remembers the answer for a bounded time.
//
//   - endpoint.go: Endpoint value type, status enum, candidate defaults.
//   - probe.go: concurrent liveness sweep over candidates.
//   - cache.go: last known-good endpoint, freshness decay, demotion.
//   - resolver.go: cache-first resolution used by the gateway.
//   - refresher.go: cron-driven background re-probe.
package endpoint

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DefaultPort is the port the inference server listens on by default.
const DefaultPort = "11434"

// ErrNoCandidates is returned when discovery is asked to probe nothing.
var ErrNoCandidates = errors.New("no candidate endpoints")

// ErrNotInferenceServer is a liveness answer without the server banner.
var ErrNotInferenceServer = errors.New("address answers but is not an inference server")

// Status is the reachability of an endpoint as of its last probe.
type Status int

const (
	StatusUnknown Status = iota
	StatusReachable
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Endpoint is one candidate network location for the inference server.
type Endpoint struct {
	Address       string
	LastCheckedAt time.Time
	// LastLatencyMs stays nil until a probe succeeds.
	LastLatencyMs *int64
	Status        Status
}

// New returns an unprobed endpoint for a normalized address.
func New(address string) Endpoint {
	return Endpoint{Address: NormalizeAddress(address), Status: StatusUnknown}
}

// FreshAt reports whether the endpoint was seen reachable within window of now.
func (e Endpoint) FreshAt(now time.Time, window time.Duration) bool {
	return e.Status == StatusReachable && !e.LastCheckedAt.IsZero() && now.Sub(e.LastCheckedAt) < window
}

// DefaultCandidates covers loopback, the Android emulator host alias and the
// most common LAN gateway addresses.
func DefaultCandidates() []string {
	return []string{
		"http://127.0.0.1:" + DefaultPort,
		"http://localhost:" + DefaultPort,
		"http://10.0.2.2:" + DefaultPort,
		"http://192.168.1.1:" + DefaultPort,
		"http://192.168.0.1:" + DefaultPort,
	}
}

// NormalizeAddress turns "host", "host:port" or a URL into a base URL
// without a trailing slash, adding the http scheme and default port.
func NormalizeAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimRight(s, "/")
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), DefaultPort)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
