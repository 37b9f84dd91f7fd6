package chat

import (
	"fmt"
	"time"
)

// Preferences is the free-form settings document a user stores on the
// backend.
type Preferences map[string]any

// Timeframe bounds the activity counted by GET /analytics/spiritual-progress.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

// ParseTimeframe validates raw. An empty value means a month.
func ParseTimeframe(raw string) (Timeframe, error) {
	switch tf := Timeframe(raw); tf {
	case "":
		return TimeframeMonth, nil
	case TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return tf, nil
	default:
		return "", fmt.Errorf("invalid timeframe %q: want week, month, year or all", raw)
	}
}

// Since returns the start of the window ending at now. The zero time means
// no lower bound.
func (t Timeframe) Since(now time.Time) time.Time {
	switch t {
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeMonth:
		return now.AddDate(0, -1, 0)
	case TimeframeYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// Activity is what a user's stored sessions add up to.
type Activity struct {
	TotalConversations int  `json:"total_conversations"`
	TotalMessages      int  `json:"total_messages"`
	VersesExplored     int  `json:"verses_explored"`
	StreakDays         int  `json:"spiritual_streak_days"`
	FavoriteMode       Mode `json:"favorite_interaction_mode"`
	// MostCommonEmotion is "neutral" until an emotion has been recorded.
	MostCommonEmotion string     `json:"most_common_emotion"`
	FirstActive       *time.Time `json:"created_at,omitempty"`
	LastActive        *time.Time `json:"last_active,omitempty"`
}

// Profile is the body of GET /users/profile.
type Profile struct {
	ID          string      `json:"id"`
	Preferences Preferences `json:"preferences"`
	Activity
}

// Progress is the body of GET /analytics/spiritual-progress.
type Progress struct {
	UserID    string    `json:"user_id"`
	Timeframe Timeframe `json:"timeframe"`
	Activity
}

// AddMessageRequest is the body of POST /conversations/messages. The
// target session is named by the session_id query parameter.
type AddMessageRequest struct {
	Role    Role            `json:"role"`
	Content string          `json:"content"`
	Emotion *EmotionPayload `json:"emotion_data,omitempty"`
	VerseID string          `json:"verse_id,omitempty"`
}

// VerseSearchRequest is the body of POST /verses/search.
type VerseSearchRequest struct {
	Query   string `json:"query"`
	Emotion string `json:"emotion,omitempty"`
	TopK    int    `json:"top_k,omitempty"`
}

// VerseSearchResponse is the body returned by POST /verses/search.
type VerseSearchResponse struct {
	Query  string         `json:"query"`
	Verses []VersePayload `json:"verses"`
}
