package emotion

import (
	"math"
	"strings"
)

// Label is one of the GoEmotions categories.
type Label string

const (
	Neutral        Label = "neutral"
	Joy            Label = "joy"
	Gratitude      Label = "gratitude"
	Love           Label = "love"
	Optimism       Label = "optimism"
	Excitement     Label = "excitement"
	Relief         Label = "relief"
	Curiosity      Label = "curiosity"
	Confusion      Label = "confusion"
	Sadness        Label = "sadness"
	Grief          Label = "grief"
	Disappointment Label = "disappointment"
	Remorse        Label = "remorse"
	Anger          Label = "anger"
	Annoyance      Label = "annoyance"
	Fear           Label = "fear"
	Nervousness    Label = "nervousness"
)

// Decision is the dominant emotion detected in a piece of text.
type Decision struct {
	Label      Label
	Confidence float64
	Emoji      string
	Color      string
}

type style struct {
	emoji string
	color string
}

var neutralStyle = style{emoji: "😐", color: "#F3F4F6"}

var styles = map[Label]style{
	Neutral:         neutralStyle,
	Joy:             {"😊", "#FEF3C7"},
	"admiration":    {"🤩", "#FEF3C7"},
	"approval":      {"👍", "#D1FAE5"},
	Gratitude:       {"🙏", "#FEF3C7"},
	Love:            {"❤️", "#FECACA"},
	Optimism:        {"😊", "#D1FAE5"},
	"caring":        {"🤗", "#D1FAE5"},
	Excitement:      {"🎉", "#FEF3C7"},
	"amusement":     {"😄", "#FEF3C7"},
	"pride":         {"😌", "#FEF3C7"},
	Relief:          {"😌", "#D1FAE5"},
	"desire":        {"🤔", "#E0E7FF"},
	"realization":   {"💡", "#FEF3C7"},
	Curiosity:       {"🤔", "#E0E7FF"},
	Sadness:         {"😢", "#DBEAFE"},
	Disappointment:  {"😞", "#DBEAFE"},
	Grief:           {"😭", "#DBEAFE"},
	Remorse:         {"😔", "#DBEAFE"},
	"embarrassment": {"😳", "#FEE2E2"},
	Anger:           {"😠", "#FEE2E2"},
	Annoyance:       {"😒", "#FEE2E2"},
	"disapproval":   {"👎", "#FEE2E2"},
	"disgust":       {"🤢", "#FEE2E2"},
	Fear:            {"😰", "#EDE9FE"},
	Nervousness:     {"😰", "#E0E7FF"},
	Confusion:       {"😕", "#F3F4F6"},
	"surprise":      {"😲", "#E0E7FF"},
}

type bucket struct {
	label    Label
	keywords []string
}

// Buckets are scanned in order; ties keep the earlier label.
var keywordBuckets = []bucket{
	{Grief, []string{"grief", "mourning", "funeral", "passed away", "died", "death", "devastated"}},
	{Sadness, []string{"sad", "unhappy", "cry", "crying", "depressed", "lonely", "empty", "heartbroken", "miss", "sorrow", "hurt"}},
	{Disappointment, []string{"disappointed", "let down", "failed", "failure", "rejected"}},
	{Remorse, []string{"guilty", "regret", "ashamed", "my fault", "sorry"}},
	{Anger, []string{"angry", "furious", "rage", "hate", "livid", "outraged", "mad"}},
	{Annoyance, []string{"annoyed", "irritated", "frustrated", "fed up", "pissed"}},
	{Nervousness, []string{"anxious", "anxiety", "nervous", "worried", "stressed", "overwhelmed", "panic"}},
	{Fear, []string{"afraid", "scared", "fear", "terrified", "frightened"}},
	{Confusion, []string{"confused", "don't know", "dont know", "lost", "unsure", "stuck", "which path"}},
	{Curiosity, []string{"curious", "wonder", "what is", "why do", "how can", "meaning of"}},
	{Gratitude, []string{"thank", "grateful", "thankful", "appreciate", "blessed"}},
	{Joy, []string{"happy", "joy", "glad", "delighted", "wonderful", "great"}},
	{Love, []string{"love", "adore", "cherish"}},
	{Optimism, []string{"hope", "hopeful", "optimistic", "better tomorrow", "looking forward"}},
	{Excitement, []string{"excited", "can't wait", "thrilled", "amazing", "awesome"}},
	{Relief, []string{"relieved", "relief", "finally", "at peace"}},
}

var griefBoostKeywords = []string{
	"lost", "death", "died", "father", "mother", "pet", "grief", "mourning",
	"funeral", "passed away", "gone", "miss", "lonely", "empty", "devastated",
}

var angerBoostKeywords = []string{
	"angry", "mad", "furious", "rage", "hate", "frustrated", "annoyed",
	"pissed", "irritated", "upset", "livid", "outraged",
}

const (
	// Threshold is the minimum confidence for a label to be reported.
	Threshold = 0.15

	baseConfidence = 0.35
	perHit         = 0.2
	boost          = 0.3
	maxConfidence  = 0.95
	neutralScore   = 0.5
)

// Analyze returns the dominant emotion of text. Text with no signal is
// neutral at 0.5.
func Analyze(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return NeutralDecision()
	}

	griefBoost := containsAny(normalized, griefBoostKeywords)
	angerBoost := containsAny(normalized, angerBoostKeywords)

	best := Neutral
	bestScore := 0.0
	for _, b := range keywordBuckets {
		hits := 0
		for _, word := range b.keywords {
			if strings.Contains(normalized, word) {
				hits++
			}
		}

		score := 0.0
		if hits > 0 {
			score = baseConfidence + perHit*float64(hits-1)
		}
		switch {
		case griefBoost && (b.label == Sadness || b.label == Grief || b.label == Disappointment):
			score += boost
		case angerBoost && (b.label == Anger || b.label == Annoyance):
			score += boost
		}
		score = math.Min(maxConfidence, score)

		if score > bestScore {
			best = b.label
			bestScore = score
		}
	}

	if bestScore < Threshold {
		return NeutralDecision()
	}
	return decision(best, bestScore)
}

// NeutralDecision is the fallback result used when detection yields nothing.
func NeutralDecision() Decision {
	return decision(Neutral, neutralScore)
}

// StyleOf returns the emoji and color for label, defaulting to neutral.
func StyleOf(label Label) (emoji, color string) {
	s, ok := styles[label]
	if !ok {
		s = neutralStyle
	}
	return s.emoji, s.color
}

// Known reports whether label is in the emotion palette.
func Known(label Label) bool {
	_, ok := styles[label]
	return ok
}

func decision(label Label, confidence float64) Decision {
	emoji, color := StyleOf(label)
	return Decision{
		Label:      label,
		Confidence: math.Round(confidence*1000) / 1000,
		Emoji:      emoji,
		Color:      color,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
