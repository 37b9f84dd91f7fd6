package chat

import (
	"context"
	"errors"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session belongs to another user")
	ErrSessionEnded     = errors.New("session already ended")
	ErrUserRequired     = errors.New("user id is required")
)

// Store persists sessions and their transcripts.
type Store interface {
	// CreateSession opens a new session owned by userID.
	CreateSession(ctx context.Context, userID string, mode chat.Mode) (chat.Session, error)
	// EnsureSession returns the session with id, creating it when absent.
	// An existing session owned by a different user yields ErrSessionForbidden.
	EnsureSession(ctx context.Context, id, userID string, mode chat.Mode) (chat.Session, error)
	GetSession(ctx context.Context, id string) (chat.Session, error)
	SaveMessage(ctx context.Context, message chat.Message) (chat.Message, error)
	LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error)
	// RecentMessages returns at most limit trailing messages in order.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]chat.Message, error)
	EndSession(ctx context.Context, id, summary string) (chat.Session, error)
	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID string, limit int) ([]chat.Session, error)
	// Preferences returns the user's saved settings, empty when none exist.
	Preferences(ctx context.Context, userID string) (chat.Preferences, error)
	// SavePreferences replaces the user's settings.
	SavePreferences(ctx context.Context, userID string, prefs chat.Preferences) error
	Ping(ctx context.Context) error
	Close() error
}

// Owned checks that session may be accessed by userID.
func Owned(session chat.Session, userID string) error {
	if session.UserID != "" && session.UserID != userID {
		return ErrSessionForbidden
	}
	return nil
}
