package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRequestTimeout bounds a generate call when the caller's context has
// no earlier deadline.
const DefaultRequestTimeout = 60 * time.Second

// OllamaOptions tunes an OllamaClient.
type OllamaOptions struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// OllamaClient implements Client over Ollama's /api/tags and /api/generate.
type OllamaClient struct {
	httpClient *http.Client
	reqTimeout time.Duration
	log        zerolog.Logger
}

// NewOllamaClient builds a client whose http.Client has no global timeout;
// every call carries a context deadline instead.
func NewOllamaClient(opts OllamaOptions) *OllamaClient {
	connect := opts.ConnectTimeout
	if connect <= 0 {
		connect = 2 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	rt := opts.RequestTimeout
	if rt <= 0 {
		rt = DefaultRequestTimeout
	}
	return &OllamaClient{
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		reqTimeout: rt,
		log:        opts.Logger,
	}
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

type generatePayload struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Context []int          `json:"context,omitempty"`
	Options map[string]any `json:"options,omitempty"`
	Stream  bool           `json:"stream"`
}

type generateReply struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Context         []int  `json:"context"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	TotalDuration   int64  `json:"total_duration"`
	Error           string `json:"error"`
}

// ListModels returns the installed models reported by GET /api/tags.
func (c *OllamaClient) ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, "list models", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Msg: readErrorBody(resp.Body)}
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}
	return tags.Models, nil
}

// Generate runs one non-streaming completion.
func (c *OllamaClient) Generate(ctx context.Context, baseURL string, in GenerateRequest) (GenerateResponse, error) {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	body, err := json.Marshal(generatePayload{
		Model:   in.Model,
		Prompt:  in.Prompt,
		System:  in.System,
		Context: in.Context,
		Options: in.Options,
		Stream:  false,
	})
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GenerateResponse{}, c.transportError(ctx, "generate", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return GenerateResponse{}, modelNotFoundError{model: in.Model, msg: readErrorBody(resp.Body)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := readErrorBody(resp.Body)
		if looksLikeModelNotFound(msg) {
			return GenerateResponse{}, modelNotFoundError{model: in.Model, msg: msg}
		}
		return GenerateResponse{}, &StatusError{Code: resp.StatusCode, Msg: msg}
	}

	var reply generateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		if ctx.Err() != nil {
			return GenerateResponse{}, c.transportError(ctx, "generate", baseURL, err)
		}
		return GenerateResponse{}, fmt.Errorf("decoding response: %w", err)
	}
	if reply.Error != "" {
		if looksLikeModelNotFound(reply.Error) {
			return GenerateResponse{}, modelNotFoundError{model: in.Model, msg: reply.Error}
		}
		return GenerateResponse{}, &StatusError{Code: resp.StatusCode, Msg: reply.Error}
	}
	c.log.Debug().
		Str("endpoint", baseURL).
		Str("model", reply.Model).
		Int("eval_count", reply.EvalCount).
		Dur("dur", time.Since(start)).
		Msg("generate done")
	return GenerateResponse{
		Model:           reply.Model,
		Text:            reply.Response,
		Context:         reply.Context,
		Done:            reply.Done,
		PromptEvalCount: reply.PromptEvalCount,
		EvalCount:       reply.EvalCount,
		TotalDuration:   time.Duration(reply.TotalDuration),
	}, nil
}

// transportError classifies a failed round trip. Deadline expiry is a
// timeout, caller cancellation passes through, everything else means the
// server could not be reached.
func (c *OllamaClient) transportError(ctx context.Context, op, addr string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return timeoutError{op: op, err: err}
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return unreachableError{addr: addr, err: err}
	}
}

// readErrorBody extracts Ollama's {"error": "..."} message, falling back to
// the raw (truncated) body.
func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
