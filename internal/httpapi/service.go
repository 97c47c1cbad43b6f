package httpapi

import (
	"context"

	"aigateway/internal/chat"
	"aigateway/internal/gateway"
	"aigateway/internal/storage"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Ask(ctx context.Context, sessionID, text, fileContextID string) (chat.Exchange, error)
	History(ctx context.Context, sessionID string) ([]storage.Message, error)
	Clear(ctx context.Context, sessionID string) (int64, error)
	SaveFileContext(ctx context.Context, fc *storage.FileContext) error
	Status() gateway.StatusSnapshot
	Reconnect(ctx context.Context) gateway.StatusSnapshot
	Ready() bool
}

// FileStore persists extracted file contexts.
type FileStore interface {
	SaveFileContext(ctx context.Context, fc *storage.FileContext) error
}

// Backend assembles the chat service, the file store and the gateway into
// a Service.
type Backend struct {
	Chat    *chat.Service
	Files   FileStore
	Gateway *gateway.Gateway
}

var _ Service = (*Backend)(nil)

func (b *Backend) Ask(ctx context.Context, sessionID, text, fileContextID string) (chat.Exchange, error) {
	return b.Chat.Ask(ctx, sessionID, text, fileContextID)
}

func (b *Backend) History(ctx context.Context, sessionID string) ([]storage.Message, error) {
	return b.Chat.History(ctx, sessionID)
}

func (b *Backend) Clear(ctx context.Context, sessionID string) (int64, error) {
	return b.Chat.Clear(ctx, sessionID)
}

func (b *Backend) SaveFileContext(ctx context.Context, fc *storage.FileContext) error {
	return b.Files.SaveFileContext(ctx, fc)
}

func (b *Backend) Status() gateway.StatusSnapshot { return b.Gateway.Status() }

func (b *Backend) Reconnect(ctx context.Context) gateway.StatusSnapshot {
	return b.Gateway.Reconnect(ctx)
}

func (b *Backend) Ready() bool { return b.Gateway.Ready() }
