// Package inference talks to an Ollama-compatible inference server: it lists
// installed models and runs non-streaming generate calls. The base address
// is passed per call because the active endpoint changes at runtime.
package inference

import (
	"context"
	"time"
)

// Client is the consumed inference-server contract.
type Client interface {
	ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error)
	Generate(ctx context.Context, baseURL string, req GenerateRequest) (GenerateResponse, error)
}

// ModelInfo is one entry of the installed-model listing.
type ModelInfo struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// GenerateRequest is one prompt for the required model. Context carries the
// opaque token state returned by a previous generate call.
type GenerateRequest struct {
	Model   string
	Prompt  string
	System  string
	Context []int
	Options map[string]any
}

// GenerateResponse is the buffered result of a generate call.
type GenerateResponse struct {
	Model           string
	Text            string
	Context         []int
	Done            bool
	PromptEvalCount int
	EvalCount       int
	TotalDuration   time.Duration
}
