package intent

import (
	"regexp"
	"strings"
)

// Label is the routing category of a user message.
type Label string

const (
	CasualChat        Label = "casual_chat"
	EmotionalQuery    Label = "emotional_query"
	SpiritualGuidance Label = "spiritual_guidance"
)

// Decision is a classified intent with its confidence.
type Decision struct {
	Label      Label
	Confidence float64
}

// Description is a human-readable summary of the label.
func (l Label) Description() string {
	switch l {
	case CasualChat:
		return "General conversation or greeting"
	case EmotionalQuery:
		return "Emotional support needed"
	case SpiritualGuidance:
		return "Seeking spiritual wisdom"
	default:
		return "Unknown intent"
	}
}

// NeedsEmotion reports whether the pipeline should run emotion detection.
func (l Label) NeedsEmotion() bool { return l == EmotionalQuery }

// NeedsVerses reports whether the pipeline should retrieve verses.
func (l Label) NeedsVerses() bool { return l == EmotionalQuery || l == SpiritualGuidance }

var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey|namaste|good morning|good evening|good afternoon)\b`),
	regexp.MustCompile(`^(who are you|what are you|what is this|how does this work)\b`),
	regexp.MustCompile(`^(thank you|thanks|bye|goodbye)\b`),
}

var shortGreetings = []string{"hi", "hello", "hey", "thanks", "bye"}

var emotionalKeywords = []string{
	"feel", "feeling", "anxious", "worried", "sad", "depressed",
	"stressed", "confused", "guilty", "angry", "frustrated",
	"overwhelmed", "scared", "afraid", "hurt", "pain", "suffering",
	"lost", "don't know", "dont know", "career", "life", "future",
	"problem", "issue", "struggle", "difficult", "hard", "tough",
	"upset", "disappointed", "hopeless", "helpless", "stuck",
}

var spiritualKeywords = []string{
	"dharma", "karma", "krishna", "arjuna", "gita", "bhagavad",
	"yoga", "meditation", "enlightenment", "moksha", "atman",
	"brahman", "duty", "purpose", "meaning", "wisdom", "teaching",
}

// Classify routes text with greeting rules first and keyword counts second.
func Classify(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if isCasual(normalized) {
		return Decision{Label: CasualChat, Confidence: 0.95}
	}

	emotional := countMatches(normalized, emotionalKeywords)
	spiritual := countMatches(normalized, spiritualKeywords)

	switch {
	case emotional > spiritual && emotional > 0:
		return Decision{Label: EmotionalQuery, Confidence: 0.7}
	case spiritual > 0:
		return Decision{Label: SpiritualGuidance, Confidence: 0.7}
	default:
		return Decision{Label: CasualChat, Confidence: 0.6}
	}
}

// ParseLabel maps a model answer onto a label.
func ParseLabel(raw string) (Label, bool) {
	normalized := Label(strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'.`)))
	switch normalized {
	case CasualChat, EmotionalQuery, SpiritualGuidance:
		return normalized, true
	default:
		return "", false
	}
}

func isCasual(text string) bool {
	for _, pattern := range casualPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}

	words := strings.Fields(text)
	if len(words) > 3 {
		return false
	}
	for _, word := range words {
		word = strings.Trim(word, ",.!?")
		for _, greeting := range shortGreetings {
			if word == greeting {
				return true
			}
		}
	}
	return false
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}
