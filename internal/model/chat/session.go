package chat

import "time"

// Session groups a sequence of exchanges into one conversation thread.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Mode      Mode       `json:"interaction_mode"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Summary   string     `json:"summary,omitempty"`
}

// Ended reports whether the session was explicitly closed.
func (s Session) Ended() bool {
	return s.EndedAt != nil
}

// SessionHistory is a session together with its stored transcript.
type SessionHistory struct {
	Session  Session   `json:"session"`
	Messages []Message `json:"messages"`
}
