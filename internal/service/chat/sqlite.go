package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	ended_at   INTEGER,
	summary    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at);

CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	emotion    TEXT,
	refs       TEXT,
	intent     TEXT
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore persists sessions in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// CreateSession implements Store.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID string, mode chat.Mode) (chat.Session, error) {
	if userID == "" {
		return chat.Session{}, ErrUserRequired
	}
	return s.insertSession(ctx, uuid.NewString(), userID, mode)
}

// EnsureSession implements Store.
func (s *SQLiteStore) EnsureSession(ctx context.Context, id, userID string, mode chat.Mode) (chat.Session, error) {
	session, err := s.GetSession(ctx, id)
	switch {
	case err == nil:
		if err := Owned(session, userID); err != nil {
			return chat.Session{}, err
		}
		return session, nil
	case errors.Is(err, ErrSessionNotFound):
		return s.insertSession(ctx, id, userID, mode)
	default:
		return chat.Session{}, err
	}
}

func (s *SQLiteStore) insertSession(ctx context.Context, id, userID string, mode chat.Mode) (chat.Session, error) {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, string(mode), now.UnixNano(), now.UnixNano())
	if err != nil {
		return chat.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return chat.Session{ID: id, UserID: userID, Mode: mode, CreatedAt: now, UpdatedAt: now}, nil
}

// GetSession implements Store.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (chat.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, mode, created_at, updated_at, ended_at, summary FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, err
}

// SaveMessage implements Store.
func (s *SQLiteStore) SaveMessage(ctx context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}

	emotion, err := marshalOptional(message.Emotion, message.Emotion != nil)
	if err != nil {
		return chat.Message{}, err
	}
	refs, err := marshalOptional(message.References, len(message.References) > 0)
	if err != nil {
		return chat.Message{}, err
	}
	intent, err := marshalOptional(message.Intent, message.Intent != nil)
	if err != nil {
		return chat.Message{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Message{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`,
		message.Timestamp.UnixNano(), message.SessionID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("touch session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return chat.Message{}, ErrSessionNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at, emotion, refs, intent) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.SessionID, string(message.Role), message.Content, message.Timestamp.UnixNano(),
		emotion, refs, intent); err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return chat.Message{}, fmt.Errorf("commit message: %w", err)
	}
	return message, nil
}

// LoadTranscript implements Store.
func (s *SQLiteStore) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return s.RecentMessages(ctx, sessionID, 0)
}

// RecentMessages implements Store. A non-positive limit returns everything.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, role, content, created_at, emotion, refs, intent FROM (
	SELECT * FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?
) ORDER BY seq ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var (
			msg                   chat.Message
			role                  string
			created               int64
			emotion, refs, intent sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &created, &emotion, &refs, &intent); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		msg.Timestamp = time.Unix(0, created).UTC()
		if err := unmarshalOptional(emotion, &msg.Emotion); err != nil {
			return nil, err
		}
		if err := unmarshalOptional(refs, &msg.References); err != nil {
			return nil, err
		}
		if err := unmarshalOptional(intent, &msg.Intent); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// EndSession implements Store.
func (s *SQLiteStore) EndSession(ctx context.Context, id, summary string) (chat.Session, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}
	if session.Ended() {
		return chat.Session{}, ErrSessionEnded
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, updated_at = ?, summary = ? WHERE id = ?`,
		now.UnixNano(), now.UnixNano(), summary, id); err != nil {
		return chat.Session{}, fmt.Errorf("end session: %w", err)
	}

	session.EndedAt = &now
	session.UpdatedAt = now
	session.Summary = summary
	return session, nil
}

// ListSessions implements Store.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string, limit int) ([]chat.Session, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, mode, created_at, updated_at, ended_at, summary
FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []chat.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Preferences implements Store.
func (s *SQLiteStore) Preferences(ctx context.Context, userID string) (chat.Preferences, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM preferences WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	var prefs chat.Preferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences implements Store.
func (s *SQLiteStore) SavePreferences(ctx context.Context, userID string, prefs chat.Preferences) error {
	if userID == "" {
		return ErrUserRequired
	}
	if prefs == nil {
		prefs = chat.Preferences{}
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO preferences (user_id, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(raw), s.now().UnixNano()); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (chat.Session, error) {
	var (
		session          chat.Session
		mode             string
		created, updated int64
		ended            sql.NullInt64
	)
	if err := row.Scan(&session.ID, &session.UserID, &mode, &created, &updated, &ended, &session.Summary); err != nil {
		return chat.Session{}, err
	}
	session.Mode = chat.Mode(mode)
	session.CreatedAt = time.Unix(0, created).UTC()
	session.UpdatedAt = time.Unix(0, updated).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		session.EndedAt = &t
	}
	return session, nil
}

func marshalOptional(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode message field: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalOptional(raw sql.NullString, dst any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), dst); err != nil {
		return fmt.Errorf("decode message field: %w", err)
	}
	return nil
}
