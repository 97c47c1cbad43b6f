package query

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyQuery is returned when a query has no usable text. It is the only
// error the gateway surfaces to callers.
var ErrEmptyQuery = errors.New("query text is required")

// Query is one user-submitted request. Treat it as immutable once built.
type Query struct {
	RawText       string
	SessionID     string
	FileContextID string
	Timestamp     time.Time
}

// New validates text and builds a Query stamped with the current time.
func New(text, sessionID, fileContextID string) (Query, error) {
	q := Query{
		RawText:       text,
		SessionID:     sessionID,
		FileContextID: strings.TrimSpace(fileContextID),
		Timestamp:     time.Now(),
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate reports ErrEmptyQuery for blank text.
func (q Query) Validate() error {
	if strings.TrimSpace(q.RawText) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// HasFileContext reports whether the query references extracted file content.
func (q Query) HasFileContext() bool { return q.FileContextID != "" }
