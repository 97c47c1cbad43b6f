package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"aigateway/internal/chat"
	"aigateway/internal/config"
	"aigateway/internal/endpoint"
	"aigateway/internal/gateway"
	"aigateway/internal/httpapi"
	"aigateway/internal/inference"
	"aigateway/internal/modelcheck"
	"aigateway/internal/storage"
)

// runtime is the wired object graph behind every command.
type runtime struct {
	cfg       config.Config
	durations config.Durations
	log       zerolog.Logger

	cache    *endpoint.Cache
	resolver *endpoint.Resolver
	gateway  *gateway.Gateway
	store    *storage.SQLiteStorage
	chat     *chat.Service
	backend  *httpapi.Backend
}

// newRuntime wires the gateway. withStore opens the SQLite database and the
// chat service on top of it; status checks skip both.
func newRuntime(ctx context.Context, cfg config.Config, log zerolog.Logger, withStore bool) (*runtime, error) {
	d, err := cfg.Durations()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, durations: d, log: log}

	rt.cache = endpoint.NewCache(cfg.Candidates, endpoint.CacheOptions{
		Freshness:        d.Freshness,
		FailureThreshold: cfg.FailureThreshold,
	})
	probe := endpoint.NewProbe(endpoint.NewHTTPChecker(d.Probe), endpoint.ProbeOptions{
		Timeout: d.Probe,
		Logger:  log.With().Str("component", "probe").Logger(),
		Observe: gateway.ObserveProbe,
	})
	rt.resolver = endpoint.NewResolver(rt.cache, probe)

	client := inference.NewOllamaClient(inference.OllamaOptions{
		ConnectTimeout: d.Probe,
		RequestTimeout: d.Inference,
		Logger:         log.With().Str("component", "inference").Logger(),
	})
	models := modelcheck.New(client, modelcheck.Options{
		Required: cfg.RequiredModel,
		TTL:      d.ModelTTL,
		Logger:   log.With().Str("component", "modelcheck").Logger(),
	})

	gcfg := gateway.Config{
		Endpoints:           rt.resolver,
		Inference:           client,
		Models:              models,
		RequiredModel:       cfg.RequiredModel,
		SystemPrompt:        cfg.SystemPrompt,
		ProbeTimeout:        d.Probe,
		ModelCheckTimeout:   d.ModelCheck,
		InferenceTimeout:    d.Inference,
		MaxFileContextChars: cfg.MaxFileContextChars,
		Logger:              log,
		Publisher:           gateway.LogPublisher{Log: log.With().Str("component", "events").Logger()},
	}
	if withStore {
		rt.store, err = storage.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		gcfg.FileContexts = rt.store
	}
	rt.gateway, err = gateway.New(gcfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if rt.store != nil {
		rt.chat = chat.NewService(rt.store, rt.gateway, log.With().Str("component", "chat").Logger())
		rt.backend = &httpapi.Backend{Chat: rt.chat, Files: rt.store, Gateway: rt.gateway}
	}
	return rt, nil
}

// applyConfig takes the hot-reloadable parts of a reloaded config.
func (rt *runtime) applyConfig(cfg config.Config) {
	cfg = cfg.WithDefaults()
	rt.cache.SetCandidates(cfg.Candidates)
	rt.log.Info().Strs("candidates", cfg.Candidates).Msg("candidates updated")
}

func (rt *runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("close store")
		}
	}
}
