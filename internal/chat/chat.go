// Package chat keeps per-session chat logs on top of the gateway: every
// question and its answer are appended to the store in completion order.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"aigateway/internal/query"
	"aigateway/internal/storage"
)

// Store is the persistence contract; *storage.SQLiteStorage implements it.
type Store interface {
	InsertMessage(ctx context.Context, m *storage.Message) error
	Messages(ctx context.Context, sessionID string) ([]storage.Message, error)
	Clear(ctx context.Context, sessionID string) (int64, error)
}

// Gateway is the slice of *gateway.Gateway the chat needs.
type Gateway interface {
	Handle(ctx context.Context, q query.Query) (query.Result, error)
	Reset(sessionID string)
}

// Exchange is one question and the answer it produced.
type Exchange struct {
	Question storage.Message
	Answer   storage.Message
	Result   query.Result
}

// Service binds a Gateway to a Store.
type Service struct {
	store Store
	gw    Gateway
	log   zerolog.Logger
}

func NewService(store Store, gw Gateway, log zerolog.Logger) *Service {
	return &Service{store: store, gw: gw, log: log}
}

// Ask stores the user's question, runs it through the gateway and stores
// the reply. query.ErrEmptyQuery is returned before anything is written.
func (s *Service) Ask(ctx context.Context, sessionID, text, fileContextID string) (Exchange, error) {
	q, err := query.New(text, sessionID, fileContextID)
	if err != nil {
		return Exchange{}, err
	}
	question := storage.Message{
		SessionID: sessionID,
		Author:    storage.AuthorUser,
		Text:      q.RawText,
		Timestamp: q.Timestamp,
	}
	if err := s.store.InsertMessage(ctx, &question); err != nil {
		return Exchange{}, fmt.Errorf("store question: %w", err)
	}

	res, err := s.gw.Handle(ctx, q)
	if err != nil {
		return Exchange{}, err
	}
	answer := ToMessage(sessionID, res, time.Now())
	// the caller may have gone away while inference ran; the reply is still
	// part of the log
	if err := s.store.InsertMessage(context.WithoutCancel(ctx), &answer); err != nil {
		return Exchange{}, fmt.Errorf("store answer: %w", err)
	}
	s.log.Debug().
		Str("session", sessionID).
		Str("kind", string(res.Kind)).
		Int64("seq", answer.Seq).
		Msg("exchange stored")
	return Exchange{Question: question, Answer: answer, Result: res}, nil
}

// History returns the session's messages in order.
func (s *Service) History(ctx context.Context, sessionID string) ([]storage.Message, error) {
	return s.store.Messages(ctx, sessionID)
}

// Clear deletes the session's log and resets the gateway's state for it,
// which also forces the next question to re-resolve the endpoint.
func (s *Service) Clear(ctx context.Context, sessionID string) (int64, error) {
	n, err := s.store.Clear(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	s.gw.Reset(sessionID)
	s.log.Info().Str("session", sessionID).Int64("deleted", n).Msg("chat cleared")
	return n, nil
}

// ToMessage maps a gateway result to the system message shown in the chat.
func ToMessage(sessionID string, res query.Result, at time.Time) storage.Message {
	return storage.Message{
		SessionID: sessionID,
		Author:    storage.AuthorSystem,
		Text:      res.Text,
		Kind:      res.Kind,
		Chart:     res.Chart,
		Reason:    res.Reason,
		Timestamp: at,
	}
}
