package chat

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	prefs    map[string]chat.Preferences
	now      func() time.Time
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		prefs:    make(map[string]chat.Preferences),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession implements Store.
func (s *MemoryStore) CreateSession(_ context.Context, userID string, mode chat.Mode) (chat.Session, error) {
	if userID == "" {
		return chat.Session{}, ErrUserRequired
	}

	now := s.now()
	session := chat.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// EnsureSession implements Store.
func (s *MemoryStore) EnsureSession(_ context.Context, id, userID string, mode chat.Mode) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		if err := Owned(session, userID); err != nil {
			return chat.Session{}, err
		}
		return session, nil
	}

	now := s.now()
	session := chat.Session{
		ID:        id,
		UserID:    userID,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = session
	s.messages[id] = make([]chat.Message, 0, 16)
	return session, nil
}

// GetSession implements Store.
func (s *MemoryStore) GetSession(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// SaveMessage implements Store.
func (s *MemoryStore) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[message.SessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}

	session.UpdatedAt = message.Timestamp
	s.sessions[session.ID] = session
	s.messages[message.SessionID] = append(s.messages[message.SessionID], message.Clone())
	return message, nil
}

// LoadTranscript implements Store.
func (s *MemoryStore) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return s.RecentMessages(ctx, sessionID, 0)
}

// RecentMessages implements Store. A non-positive limit returns everything.
func (s *MemoryStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	start := 0
	if limit > 0 && len(messages) > limit {
		start = len(messages) - limit
	}

	copied := make([]chat.Message, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		copied = append(copied, msg.Clone())
	}
	return copied, nil
}

// EndSession implements Store.
func (s *MemoryStore) EndSession(_ context.Context, id, summary string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.Ended() {
		return chat.Session{}, ErrSessionEnded
	}

	now := s.now()
	session.EndedAt = &now
	session.UpdatedAt = now
	session.Summary = summary
	s.sessions[id] = session
	return session, nil
}

// ListSessions implements Store.
func (s *MemoryStore) ListSessions(_ context.Context, userID string, limit int) ([]chat.Session, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}

	s.mu.RLock()
	var sessions []chat.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// Preferences implements Store.
func (s *MemoryStore) Preferences(_ context.Context, userID string) (chat.Preferences, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.prefs[userID]), nil
}

// SavePreferences implements Store.
func (s *MemoryStore) SavePreferences(_ context.Context, userID string, prefs chat.Preferences) error {
	if userID == "" {
		return ErrUserRequired
	}
	s.mu.Lock()
	s.prefs[userID] = maps.Clone(prefs)
	s.mu.Unlock()
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
