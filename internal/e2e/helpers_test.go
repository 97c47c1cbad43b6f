package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"aigateway/internal/chat"
	"aigateway/internal/endpoint"
	"aigateway/internal/gateway"
	"aigateway/internal/httpapi"
	"aigateway/internal/inference"
	"aigateway/internal/modelcheck"
	"aigateway/internal/storage"
)

// ollamaStub is an in-process inference server. While down it drops every
// connection, the way a stopped server looks to clients.
type ollamaStub struct {
	down      atomic.Bool
	noModel   atomic.Bool
	generates atomic.Int32
	lastBody  atomic.Value
}

func (o *ollamaStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if o.down.Load() {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/":
		_, _ = w.Write([]byte("Ollama is running"))
	case "/api/tags":
		if o.noModel.Load() {
			_, _ = w.Write([]byte(`{"models":[{"name":"mistral:7b"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"mistral:7b"}]}`))
	case "/api/generate":
		o.generates.Add(1)
		b, _ := io.ReadAll(r.Body)
		o.lastBody.Store(string(b))
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"Claro, te ayudo con eso.","done":true,"context":[7,8,9]}`))
	default:
		http.NotFound(w, r)
	}
}

func (o *ollamaStub) body() string {
	s, _ := o.lastBody.Load().(string)
	return s
}

type stack struct {
	api     *httptest.Server
	ollama  *ollamaStub
	gateway *gateway.Gateway
	store   *storage.SQLiteStorage
	events  *gateway.MemoryPublisher
}

// newStack wires the real components against the stub and serves the HTTP
// API from an httptest server.
func newStack(t *testing.T) *stack {
	t.Helper()
	o := &ollamaStub{}
	s := newStackFor(t, o)
	s.ollama = o
	return s
}

// newStackFor is newStack with an arbitrary server behind the candidate
// address.
func newStackFor(t *testing.T, h http.Handler) *stack {
	t.Helper()
	ollama := httptest.NewServer(h)
	t.Cleanup(ollama.Close)

	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cache := endpoint.NewCache([]string{ollama.URL}, endpoint.CacheOptions{})
	probe := endpoint.NewProbe(endpoint.NewHTTPChecker(time.Second), endpoint.ProbeOptions{
		Timeout: time.Second,
		Observe: gateway.ObserveProbe,
	})
	client := inference.NewOllamaClient(inference.OllamaOptions{RequestTimeout: 5 * time.Second})
	events := gateway.NewMemoryPublisher(512)
	gw, err := gateway.New(gateway.Config{
		Endpoints:    endpoint.NewResolver(cache, probe),
		Inference:    client,
		Models:       modelcheck.New(client, modelcheck.Options{Required: "llama3.2", TTL: time.Minute}),
		FileContexts: store,
		Publisher:    events,
	})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	backend := &httpapi.Backend{
		Chat:    chat.NewService(store, gw, zerolog.Nop()),
		Files:   store,
		Gateway: gw,
	}
	api := httptest.NewServer(httpapi.NewMux(backend))
	t.Cleanup(api.Close)
	return &stack{api: api, gateway: gw, store: store, events: events}
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}
