package chat

import (
	"fmt"
	"strings"
)

// Mode selects how the assistant frames its reply.
type Mode string

const (
	ModeWisdom   Mode = "wisdom"
	ModeSocratic Mode = "socratic"
	ModeStory    Mode = "story"

	DefaultMode = ModeWisdom
)

// Modes lists every interaction mode in display order.
func Modes() []Mode {
	return []Mode{ModeWisdom, ModeSocratic, ModeStory}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeWisdom, ModeSocratic, ModeStory:
		return true
	default:
		return false
	}
}

// Next cycles to the following mode, wrapping around.
func (m Mode) Next() Mode {
	modes := Modes()
	for i, candidate := range modes {
		if candidate == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return DefaultMode
}

// Description is a one-line explanation shown next to the mode selector.
func (m Mode) Description() string {
	switch m {
	case ModeWisdom:
		return "Direct teachings and clear insights from Krishna"
	case ModeSocratic:
		return "Guided self-discovery through thoughtful questions"
	case ModeStory:
		return "Narrative context and stories from the Mahabharata"
	default:
		return ""
	}
}

// ParseMode validates raw input; an empty string yields DefaultMode.
func ParseMode(raw string) (Mode, error) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if normalized == "" {
		return DefaultMode, nil
	}
	if !normalized.Valid() {
		return "", fmt.Errorf("invalid interaction mode %q: must be one of wisdom, socratic, story", raw)
	}
	return normalized, nil
}
