// Package precord stores telemetry sessions in a sqlite database so
// they can be replayed later through a playback viewer.
package precord

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pitwall-engine/pitwall/pwire"
)

// Store is a sqlite-backed archive of recorded sessions.
type Store struct {
	log *slog.Logger

	db *sql.DB
}

// Open opens (creating if needed) the database at path
// and ensures the schema exists.
func Open(log *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{log: log, db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS sessions (
		id text not null primary key,
		name text not null,
		started_at text not null
		)`,
	); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS messages (
		session_id text not null,
		seq integer not null,
		payload blob not null,
		primary key (session_id, seq)
		)`,
	); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session records one ordered message stream.
type Session struct {
	store *Store

	id  string
	seq int
}

// Begin starts a new named session with a fresh id.
func (s *Store) Begin(ctx context.Context, name string) (*Session, error) {
	id := uuid.NewString()

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (id, name, started_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	s.log.Info("Recording session", "id", id, "name", name)
	return &Session{store: s, id: id}, nil
}

// ID returns the session's unique id.
func (sess *Session) ID() string { return sess.id }

// Record appends one message to the session.
// Messages are stored in their wire encoding.
func (sess *Session) Record(ctx context.Context, m pwire.Message) error {
	if _, err := sess.store.db.ExecContext(
		ctx,
		`INSERT INTO messages (session_id, seq, payload) VALUES (?, ?, ?)`,
		sess.id, sess.seq, pwire.EncodeMessage(m),
	); err != nil {
		return fmt.Errorf("failed to insert message %d: %w", sess.seq, err)
	}
	sess.seq++
	return nil
}

// Messages returns every message of a session in recorded order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]pwire.Message, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT payload FROM messages WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []pwire.Message
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan payload: %w", err)
		}
		m, err := pwire.DecodeMessage(payload)
		if err != nil {
			return nil, fmt.Errorf("stored message %d is corrupt: %w", len(out), err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Frames returns the session's frame updates in recorded order,
// stopping at the sentinel if one was recorded.
// The result feeds directly into a playback.
func (s *Store) Frames(ctx context.Context, sessionID string) ([]pwire.Frame, error) {
	msgs, err := s.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var frames []pwire.Frame
	for _, m := range msgs {
		f, ok := m.(pwire.Frame)
		if !ok {
			break
		}
		frames = append(frames, f)
	}
	return frames, nil
}
