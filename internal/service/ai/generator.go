package ai

import (
	"context"
	"errors"
	"regexp"
	"strings"

	analysis "github.com/gitagpt/gitagpt/internal/analysis/emotion"
	"github.com/gitagpt/gitagpt/internal/analysis/intent"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// ErrEmptyResponse is returned when a model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// VerseContext is a retrieved verse offered to the model.
type VerseContext struct {
	Chapter         int
	Verse           int
	Shloka          string
	Transliteration string
	EngMeaning      string
	Score           float64
}

// Input is everything a generator needs to write one reply.
type Input struct {
	UserInput string
	Mode      chat.Mode
	Intent    intent.Label
	Emotion   *analysis.Decision
	Verses    []VerseContext
	History   []chat.Message
}

// Generator writes the assistant reply for a pipeline input.
type Generator interface {
	Name() string
	Generate(ctx context.Context, in Input) (string, error)
}

const historyLimit = 10

// recentHistory keeps the last historyLimit user and assistant turns.
func recentHistory(messages []chat.Message) []chat.Message {
	kept := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == chat.RoleUser || msg.Role == chat.RoleAssistant {
			kept = append(kept, msg)
		}
	}
	if len(kept) > historyLimit {
		kept = kept[len(kept)-historyLimit:]
	}
	return kept
}

var (
	headerBefore = regexp.MustCompile(`\n(#{1,6})`)
	headerAfter  = regexp.MustCompile(`(#{1,6}[^\n]*)\n([^#\n])`)
	ruleSpacing  = regexp.MustCompile(`\n---\n`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// CleanMarkdown normalizes common formatting slips in model output.
func CleanMarkdown(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "**---**", "---")
	cleaned = strings.ReplaceAll(cleaned, "****", "**")
	cleaned = strings.ReplaceAll(cleaned, "***", "**")

	cleaned = headerBefore.ReplaceAllString(cleaned, "\n\n$1")
	cleaned = headerAfter.ReplaceAllString(cleaned, "$1\n\n$2")
	cleaned = ruleSpacing.ReplaceAllString(cleaned, "\n\n---\n\n")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
