package chat

import "time"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Emotion is the classified emotional tone of a user turn, attached to the reply.
type Emotion struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Emoji      string  `json:"emoji"`
}

// Reference is a retrieved verse shown alongside a reply.
type Reference struct {
	Chapter         int      `json:"chapter"`
	Verse           int      `json:"verse"`
	Text            string   `json:"text"`
	Transliteration string   `json:"transliteration,omitempty"`
	Meaning         string   `json:"meaning,omitempty"`
	Score           *float64 `json:"score,omitempty"`
}

// Intent is the backend's classification of what the user asked for.
type Intent struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Message is a single turn in a conversation. Emotion, References and Intent
// are only ever set on assistant turns.
type Message struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id,omitempty"`
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Emotion    *Emotion    `json:"emotion,omitempty"`
	References []Reference `json:"references,omitempty"`
	Intent     *Intent     `json:"intent,omitempty"`
}

// Clone returns a deep copy so the caller cannot reach shared pointers.
func (m Message) Clone() Message {
	out := m
	if m.Emotion != nil {
		e := *m.Emotion
		out.Emotion = &e
	}
	if m.Intent != nil {
		i := *m.Intent
		out.Intent = &i
	}
	if m.References != nil {
		out.References = make([]Reference, len(m.References))
		for i, ref := range m.References {
			if ref.Score != nil {
				s := *ref.Score
				ref.Score = &s
			}
			out.References[i] = ref
		}
	}
	return out
}
