package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"aigateway/internal/common/fsutil"
	"aigateway/internal/endpoint"
	"aigateway/internal/gateway"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified"; WithDefaults fills them in.
type Config struct {
	Addr          string   `json:"addr" yaml:"addr" toml:"addr"`
	Candidates    []string `json:"candidates" yaml:"candidates" toml:"candidates"`
	RequiredModel string   `json:"required_model" yaml:"required_model" toml:"required_model"`
	SystemPrompt  string   `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	DBPath        string   `json:"db_path" yaml:"db_path" toml:"db_path"`
	LogLevel      string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	// HTTPLog is the default per-request log level: off, error, info or debug.
	HTTPLog string `json:"http_log" yaml:"http_log" toml:"http_log"`

	// Durations use time.ParseDuration syntax ("1500ms", "30s").
	ProbeTimeout      string `json:"probe_timeout" yaml:"probe_timeout" toml:"probe_timeout"`
	ModelCheckTimeout string `json:"model_check_timeout" yaml:"model_check_timeout" toml:"model_check_timeout"`
	InferenceTimeout  string `json:"inference_timeout" yaml:"inference_timeout" toml:"inference_timeout"`
	RequestTimeout    string `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	ModelTTL          string `json:"model_ttl" yaml:"model_ttl" toml:"model_ttl"`
	Freshness         string `json:"freshness" yaml:"freshness" toml:"freshness"`
	RefreshInterval   string `json:"refresh_interval" yaml:"refresh_interval" toml:"refresh_interval"`

	FailureThreshold    int   `json:"failure_threshold" yaml:"failure_threshold" toml:"failure_threshold"`
	MaxFileContextChars int   `json:"max_file_context_chars" yaml:"max_file_context_chars" toml:"max_file_context_chars"`
	MaxBodyBytes        int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORS CORS `json:"cors" yaml:"cors" toml:"cors"`
}

// CORS is the opt-in cross-origin policy for browser chat clients.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

const (
	DefaultAddr     = ":8080"
	DefaultDBPath   = "~/.aigateway/chat.db"
	DefaultLogLevel = "info"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	full, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns a copy with every unspecified field filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if len(c.Candidates) == 0 {
		c.Candidates = endpoint.DefaultCandidates()
	}
	if c.RequiredModel == "" {
		c.RequiredModel = gateway.DefaultRequiredModel
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = gateway.DefaultSystemPrompt
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = endpoint.DefaultFailureThreshold
	}
	if c.MaxFileContextChars <= 0 {
		c.MaxFileContextChars = gateway.DefaultMaxFileContextChars
	}
	if c.CORS.Enabled {
		if len(c.CORS.Methods) == 0 {
			c.CORS.Methods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		}
		if len(c.CORS.Headers) == 0 {
			c.CORS.Headers = []string{"Content-Type", "X-Log-Level", "X-Request-Id"}
		}
	}
	return c
}

// Durations are the parsed duration fields. Zero means "use the
// component default", except Request where zero disables the cap.
type Durations struct {
	Probe      time.Duration
	ModelCheck time.Duration
	Inference  time.Duration
	Request    time.Duration
	ModelTTL   time.Duration
	Freshness  time.Duration
	Refresh    time.Duration
}

// ParseDuration parses s, returning def for an empty string. Negative
// durations are rejected.
func ParseDuration(field, s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", field, s)
	}
	return d, nil
}

// Durations parses every duration field.
func (c Config) Durations() (Durations, error) {
	var (
		d   Durations
		err error
	)
	fields := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"probe_timeout", c.ProbeTimeout, endpoint.DefaultProbeTimeout, &d.Probe},
		{"model_check_timeout", c.ModelCheckTimeout, gateway.DefaultModelCheckTimeout, &d.ModelCheck},
		{"inference_timeout", c.InferenceTimeout, gateway.DefaultInferenceTimeout, &d.Inference},
		{"request_timeout", c.RequestTimeout, 0, &d.Request},
		{"model_ttl", c.ModelTTL, 0, &d.ModelTTL},
		{"freshness", c.Freshness, endpoint.DefaultFreshness, &d.Freshness},
		{"refresh_interval", c.RefreshInterval, 0, &d.Refresh},
	}
	for _, f := range fields {
		if *f.dst, err = ParseDuration(f.name, f.raw, f.def); err != nil {
			return Durations{}, err
		}
	}
	return d, nil
}

// Validate reports configuration errors that defaults cannot fix.
func (c Config) Validate() error {
	if _, err := c.Durations(); err != nil {
		return err
	}
	for _, a := range c.Candidates {
		if endpoint.NormalizeAddress(a) == "" {
			return fmt.Errorf("candidates: empty address")
		}
	}
	return nil
}
