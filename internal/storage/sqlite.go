// Package storage persists chat logs and extracted file contexts in SQLite
// (pure-Go modernc driver, no cgo).
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"aigateway/internal/common/fsutil"
	"aigateway/internal/query"
)

// SQLiteStorage implements the chat store and the gateway's file-context
// source on one database.
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. "~" is expanded; ":memory:" gives a private in-memory store.
func Open(ctx context.Context, path string) (*SQLiteStorage, error) {
	p, err := fsutil.PrepareFile(path)
	if err != nil {
		return nil, err
	}
	if p == "" {
		p = ":memory:"
	}
	dsn := p
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single writer keeps AUTOINCREMENT order equal to insert order and
	// keeps :memory: databases on one connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *SQLiteStorage) Close() error { return s.db.Close() }

// InsertMessage appends m to its session's log, filling ID, Timestamp and Seq.
func (s *SQLiteStorage) InsertMessage(ctx context.Context, m *Message) error {
	if m == nil {
		return errors.New("message cannot be nil")
	}
	if m.SessionID == "" {
		return errors.New("message session id is required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	if m.Author == "" {
		m.Author = AuthorUser
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO messages (id, session_id, author, text, kind, chart, reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, string(m.Author), m.Text,
		string(m.Kind), string(m.Chart), string(m.Reason),
		m.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.Seq = seq
	return nil
}

// Messages returns the session's log in insertion order.
func (s *SQLiteStorage) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT seq, id, session_id, author, text, kind, chart, reason, created_at
	FROM messages
	WHERE session_id = ?
	ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			m                                 Message
			author, kind, chart, reason, when string
		)
		if err := rows.Scan(&m.Seq, &m.ID, &m.SessionID, &author, &m.Text, &kind, &chart, &reason, &when); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Author = Author(author)
		m.Kind = query.ResultKind(kind)
		m.Chart = query.ChartKind(chart)
		m.Reason = query.Reason(reason)
		if m.Timestamp, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Clear deletes the session's log and reports how many messages went.
func (s *SQLiteStorage) Clear(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear messages: %w", err)
	}
	return res.RowsAffected()
}

// Sessions lists session ids that have messages, most recently active first.
func (s *SQLiteStorage) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT session_id FROM messages GROUP BY session_id ORDER BY MAX(seq) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SaveFileContext stores fc, assigning an ID when empty. Saving an existing
// ID replaces it.
func (s *SQLiteStorage) SaveFileContext(ctx context.Context, fc *FileContext) error {
	if fc == nil {
		return errors.New("file context cannot be nil")
	}
	if strings.TrimSpace(fc.FileName) == "" {
		return errors.New("file name is required")
	}
	if fc.ID == "" {
		fc.ID = uuid.NewString()
	}
	if fc.CreatedAt.IsZero() {
		fc.CreatedAt = s.now()
	}
	meta := fc.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO file_contexts (id, file_name, file_type, extracted_text, metadata, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		file_name = excluded.file_name,
		file_type = excluded.file_type,
		extracted_text = excluded.extracted_text,
		metadata = excluded.metadata`,
		fc.ID, fc.FileName, fc.FileType, fc.ExtractedText, string(raw),
		fc.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save file context: %w", err)
	}
	return nil
}

// GetFileContext loads one file context; ErrNotFound when absent.
func (s *SQLiteStorage) GetFileContext(ctx context.Context, id string) (FileContext, error) {
	var (
		fc         FileContext
		meta, when string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, file_name, file_type, extracted_text, metadata, created_at
	FROM file_contexts WHERE id = ?`, id).Scan(&fc.ID, &fc.FileName, &fc.FileType, &fc.ExtractedText, &meta, &when)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FileContext{}, fmt.Errorf("file context %s: %w", id, ErrNotFound)
		}
		return FileContext{}, fmt.Errorf("load file context: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &fc.Metadata); err != nil {
		return FileContext{}, fmt.Errorf("decode metadata: %w", err)
	}
	if len(fc.Metadata) == 0 {
		fc.Metadata = nil
	}
	if fc.CreatedAt, err = time.Parse(time.RFC3339Nano, when); err != nil {
		return FileContext{}, fmt.Errorf("parse created_at: %w", err)
	}
	return fc, nil
}
