package storage

import (
	"errors"
	"time"

	"aigateway/internal/query"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Author tells who wrote a chat message.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)

// Message is one entry of a session's append-only chat log. Seq is assigned
// on insert and orders the log.
type Message struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Seq       int64            `json:"seq"`
	Author    Author           `json:"author"`
	Text      string           `json:"text"`
	Kind      query.ResultKind `json:"kind,omitempty"`
	Chart     query.ChartKind  `json:"chart,omitempty"`
	Reason    query.Reason     `json:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// FileContext is extracted file content the gateway can analyze.
type FileContext = query.FileContext
