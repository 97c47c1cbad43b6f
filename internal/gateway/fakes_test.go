package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aigateway/internal/endpoint"
	"aigateway/internal/inference"
	"aigateway/internal/query"
)

const testAddr = "http://127.0.0.1:11434"

// fakeOllama plays the inference server: liveness, model listing and
// generation, with call counters for every network operation.
type fakeOllama struct {
	mu        sync.Mutex
	reachable bool
	models    []string
	listErr   error
	genErr    error
	genText   string
	genCtx    []int
	genDelay  time.Duration
	requests  []inference.GenerateRequest

	probes    atomic.Int32
	lists     atomic.Int32
	generates atomic.Int32
}

func newFakeOllama() *fakeOllama {
	return &fakeOllama{reachable: true, models: []string{"llama3.2:latest"}, genText: "respuesta del modelo"}
}

func (f *fakeOllama) set(fn func(f *fakeOllama)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeOllama) Check(ctx context.Context, address string) error {
	f.probes.Add(1)
	f.mu.Lock()
	up := f.reachable
	f.mu.Unlock()
	if !up {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeOllama) ListModels(ctx context.Context, baseURL string) ([]inference.ModelInfo, error) {
	f.lists.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]inference.ModelInfo, 0, len(f.models))
	for _, m := range f.models {
		out = append(out, inference.ModelInfo{Name: m})
	}
	return out, nil
}

func (f *fakeOllama) Generate(ctx context.Context, baseURL string, req inference.GenerateRequest) (inference.GenerateResponse, error) {
	f.generates.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	delay, err, text, tokens := f.genDelay, f.genErr, f.genText, f.genCtx
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return inference.GenerateResponse{}, inference.ErrTimeout("generate", ctx.Err())
		}
	}
	if err != nil {
		return inference.GenerateResponse{}, err
	}
	return inference.GenerateResponse{Model: req.Model, Text: text, Context: tokens, Done: true}, nil
}

func (f *fakeOllama) lastRequest() inference.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return inference.GenerateRequest{}
	}
	return f.requests[len(f.requests)-1]
}

// splitOllama is fakeOllama across several addresses: generation at broken
// fails with a transport error, and every generate target is recorded.
type splitOllama struct {
	*fakeOllama
	broken string

	mu      sync.Mutex
	targets []string
}

func (s *splitOllama) Generate(ctx context.Context, baseURL string, req inference.GenerateRequest) (inference.GenerateResponse, error) {
	s.mu.Lock()
	s.targets = append(s.targets, baseURL)
	s.mu.Unlock()
	if baseURL == s.broken {
		return inference.GenerateResponse{}, inference.ErrUnreachable(baseURL, errors.New("connection reset by peer"))
	}
	return s.fakeOllama.Generate(ctx, baseURL, req)
}

func (s *splitOllama) generateTargets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.targets...)
}

type fakeFiles map[string]query.FileContext

func (f fakeFiles) GetFileContext(ctx context.Context, id string) (query.FileContext, error) {
	fc, ok := f[id]
	if !ok {
		return query.FileContext{}, errors.New("file context not found")
	}
	return fc, nil
}

func newTestGateway(t *testing.T, f *fakeOllama, mutate func(*Config)) (*Gateway, *MemoryPublisher) {
	t.Helper()
	cache := endpoint.NewCache([]string{testAddr}, endpoint.CacheOptions{})
	probe := endpoint.NewProbe(f, endpoint.ProbeOptions{Timeout: 200 * time.Millisecond})
	pub := NewMemoryPublisher(0)
	cfg := Config{
		Endpoints:        endpoint.NewResolver(cache, probe),
		Inference:        f,
		Publisher:        pub,
		InferenceTimeout: 2 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := New(cfg)
	require.NoError(t, err)
	return g, pub
}

func mustQuery(t *testing.T, text string) query.Query {
	t.Helper()
	q, err := query.New(text, "session-1", "")
	require.NoError(t, err)
	return q
}
