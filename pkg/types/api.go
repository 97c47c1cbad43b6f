// Package types holds the JSON payloads of the HTTP and websocket API.
package types

import "time"

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	// Client-chosen conversation identifier.
	// example: 3f0c2a3e-session
	SessionID string `json:"session_id" example:"3f0c2a3e-session"`
	// Required question text.
	// example: Crear gráfico de suscripciones
	Text string `json:"text" example:"Crear gráfico de suscripciones"`
	// Optional id returned by POST /v1/files; the answer then analyzes that file.
	// example: 8d7e6f1a-file
	FileContextID string `json:"file_context_id,omitempty" example:"8d7e6f1a-file"`
}

// Message is one chat log entry.
type Message struct {
	// example: 0b4e5d7c-9a51-4f6a-8a2b-5ad5c7c9e111
	ID        string `json:"id" example:"0b4e5d7c-9a51-4f6a-8a2b-5ad5c7c9e111"`
	SessionID string `json:"session_id"`
	// Insertion order within the store.
	// example: 42
	Seq int64 `json:"seq" example:"42"`
	// Either user or system.
	// example: system
	Author string `json:"author" example:"system"`
	Text   string `json:"text"`
	// Result kind for system messages: text, chart or degraded.
	// example: degraded
	Kind string `json:"kind,omitempty" example:"degraded"`
	// Chart kind for chart answers.
	// example: SUBSCRIPTIONS
	Chart string `json:"chart,omitempty" example:"SUBSCRIPTIONS"`
	// Degraded reason: server_unreachable, model_missing or inference_failure.
	// example: server_unreachable
	Reason    string    `json:"reason,omitempty" example:"server_unreachable"`
	Timestamp time.Time `json:"timestamp"`
}

// ChartPoint is one labeled value of a chart series.
type ChartPoint struct {
	// example: Programación
	Label string `json:"label" example:"Programación"`
	// example: 12
	Value float64 `json:"value" example:"12"`
}

// QueryResponse is returned by POST /v1/query and by the websocket chat.
type QueryResponse struct {
	// example: chart
	Kind string `json:"kind" example:"chart"`
	Text string `json:"text"`
	// example: SUBSCRIPTIONS
	Chart string `json:"chart,omitempty" example:"SUBSCRIPTIONS"`
	// example: model_missing
	Reason string `json:"reason,omitempty" example:"model_missing"`
	// Classified intent: conversational, analytics or file_analysis.
	// example: analytics
	Intent string `json:"intent" example:"analytics"`
	// Aggregated series when the aggregation collaborator produced one.
	Data     []ChartPoint `json:"data,omitempty"`
	Question Message      `json:"question"`
	Answer   Message      `json:"answer"`
}

// MessagesResponse is returned by GET /v1/sessions/{id}/messages.
type MessagesResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ClearResponse is returned by DELETE /v1/sessions/{id}/messages.
type ClearResponse struct {
	SessionID string `json:"session_id"`
	// example: 6
	Deleted int64 `json:"deleted" example:"6"`
}

// FileContextRequest registers text extracted from a user file.
type FileContextRequest struct {
	// example: notas.pdf
	FileName string `json:"file_name" example:"notas.pdf"`
	// example: application/pdf
	FileType      string            `json:"file_type,omitempty" example:"application/pdf"`
	ExtractedText string            `json:"extracted_text"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// FileContextResponse identifies a stored file context.
type FileContextResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// EndpointStatus describes one candidate inference endpoint.
type EndpointStatus struct {
	// example: http://127.0.0.1:11434
	Address string `json:"address" example:"http://127.0.0.1:11434"`
	// unknown, reachable or unreachable.
	// example: reachable
	Status        string     `json:"status" example:"reachable"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
	// example: 3
	LastLatencyMs *int64 `json:"last_latency_ms,omitempty" example:"3"`
	// Confidence in the last observation, decaying from 1 to 0.
	// example: 0.8
	Trust    float64 `json:"trust" example:"0.8"`
	Failures int     `json:"failures"`
	Demoted  bool    `json:"demoted"`
	Active   bool    `json:"active"`
}

// StatusEvent is one recent gateway event: a pipeline transition or an
// operator action.
type StatusEvent struct {
	// example: checking_model
	Name string `json:"name" example:"checking_model"`
	// Previous pipeline state, for transitions.
	// example: resolving_endpoint
	From      string    `json:"from,omitempty" example:"resolving_endpoint"`
	Call      string    `json:"call,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// StatusResponse is returned by GET /v1/status and POST /v1/connection/retry.
type StatusResponse struct {
	Connected bool `json:"connected"`
	// example: http://127.0.0.1:11434
	ActiveEndpoint string `json:"active_endpoint,omitempty" example:"http://127.0.0.1:11434"`
	ModelPresent   bool   `json:"model_present"`
	// example: llama3.2
	RequiredModel   string     `json:"required_model" example:"llama3.2"`
	InstalledModels []string   `json:"installed_models,omitempty"`
	ModelCheckedAt  *time.Time `json:"model_checked_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	// example: server_unreachable
	LastReason  string           `json:"last_reason,omitempty" example:"server_unreachable"`
	LastErrorAt *time.Time       `json:"last_error_at,omitempty"`
	Endpoints   []EndpointStatus `json:"endpoints"`
	// Latest events, oldest first.
	RecentEvents []StatusEvent `json:"recent_events"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ChatFrame is one websocket message in either direction. Clients send
// type "ask" (or "clear"); the server answers "answer", "cleared" or "error".
type ChatFrame struct {
	// example: ask
	Type          string         `json:"type" example:"ask"`
	SessionID     string         `json:"session_id,omitempty"`
	Text          string         `json:"text,omitempty"`
	FileContextID string         `json:"file_context_id,omitempty"`
	Answer        *QueryResponse `json:"answer,omitempty"`
	Error         *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
