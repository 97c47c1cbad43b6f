package gateway

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"aigateway/internal/classify"
	"aigateway/internal/endpoint"
	"aigateway/internal/fallback"
	"aigateway/internal/inference"
	"aigateway/internal/modelcheck"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultRequiredModel       = "llama3.2"
	DefaultModelCheckTimeout   = 3 * time.Second
	DefaultInferenceTimeout    = 60 * time.Second
	DefaultMaxFileContextChars = 6000
	DefaultRecentEvents        = 64
	DefaultSystemPrompt        = "Eres el asistente de una plataforma educativa de cursos en línea. " +
		"Responde en español, de forma breve, clara y amable."
)

// Config wires a Gateway. Endpoints and Inference are required; the rest
// default to the package implementations.
type Config struct {
	Endpoints    *endpoint.Resolver
	Inference    inference.Client
	Models       ModelChecker
	Classifier   *classify.Classifier
	Fallback     *fallback.Responder
	Aggregator   Aggregator
	FileContexts FileContexts

	RequiredModel       string
	SystemPrompt        string
	ProbeTimeout        time.Duration
	ModelCheckTimeout   time.Duration
	InferenceTimeout    time.Duration
	MaxFileContextChars int
	// RecentEvents bounds the transitions kept for Status.
	RecentEvents int

	Logger    zerolog.Logger
	Publisher EventPublisher
}

// New validates cfg, applies defaults and returns a ready Gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Endpoints == nil {
		return nil, errors.New("gateway: endpoint resolver is required")
	}
	if cfg.Inference == nil {
		return nil, errors.New("gateway: inference client is required")
	}
	if cfg.RequiredModel == "" {
		cfg.RequiredModel = DefaultRequiredModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = cfg.Endpoints.Probe().Timeout()
	}
	if cfg.ModelCheckTimeout <= 0 {
		cfg.ModelCheckTimeout = DefaultModelCheckTimeout
	}
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = DefaultInferenceTimeout
	}
	if cfg.MaxFileContextChars <= 0 {
		cfg.MaxFileContextChars = DefaultMaxFileContextChars
	}
	if cfg.Models == nil {
		cfg.Models = modelcheck.New(cfg.Inference, modelcheck.Options{Required: cfg.RequiredModel, Logger: cfg.Logger})
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.New()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = fallback.New(cfg.RequiredModel)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.RecentEvents <= 0 {
		cfg.RecentEvents = DefaultRecentEvents
	}
	recent := NewMemoryPublisher(cfg.RecentEvents)
	return &Gateway{
		cfg:      cfg,
		log:      cfg.Logger.With().Str("component", "gateway").Logger(),
		recent:   recent,
		pub:      MultiPublisher{recent, cfg.Publisher},
		contexts: make(map[string][]int),
	}, nil
}

// Ceiling bounds one Handle call end to end.
func (c Config) Ceiling() time.Duration {
	return c.ProbeTimeout + c.ModelCheckTimeout + c.InferenceTimeout
}
