package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	analysis "github.com/gitagpt/gitagpt/internal/analysis/emotion"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// Config controls the emotion detection service.
type Config struct {
	Enabled      bool
	HistoryLimit int
}

// Detection is the detected emotion and where it came from.
type Detection struct {
	Decision analysis.Decision
	Reason   string
	// Fallback is set when the model path was configured but could not be used.
	Fallback bool
}

// Service asks the chat model for the seeker's dominant emotion and falls
// back to the keyword analyzer.
type Service struct {
	enabled      bool
	classifier   compose.Runnable[map[string]any, *schema.Message]
	fallback     func(text string) analysis.Decision
	historyLimit int
	logger       *zap.Logger
}

// NewService creates the detection service. chatModel may be nil, in which
// case only the keyword analyzer runs.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config, logger *zap.Logger) (*Service, error) {
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		enabled:      cfg.Enabled && chatModel != nil,
		fallback:     analysis.Analyze,
		historyLimit: historyLimit,
		logger:       logger.Named("emotion"),
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(emotionSystemPrompt),
		schema.UserMessage(emotionUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled reports whether the model classifier is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Detect returns the dominant emotion of userMessage given recent history.
func (s *Service) Detect(ctx context.Context, history []chat.Message, userMessage string) Detection {
	if !s.Enabled() {
		return Detection{Decision: s.fallback(userMessage), Reason: "keywords"}
	}

	input := map[string]any{
		"history":      formatHistory(history, s.historyLimit),
		"user_message": strings.TrimSpace(userMessage),
	}

	msg, err := s.classifier.Invoke(ctx, input)
	if err != nil {
		s.logger.Warn("classifier invoke failed, using keywords", zap.Error(err))
		return s.fallbackDetection(userMessage)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallbackDetection(userMessage)
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		s.logger.Warn("classifier output parse failed, using keywords", zap.Error(err))
		return s.fallbackDetection(userMessage)
	}

	label := analysis.Label(strings.ToLower(strings.TrimSpace(result.Emotion)))
	if !analysis.Known(label) {
		return s.fallbackDetection(userMessage)
	}

	confidence := result.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < analysis.Threshold {
		return Detection{Decision: analysis.NeutralDecision(), Reason: strings.TrimSpace(result.Reason)}
	}

	emoji, color := analysis.StyleOf(label)
	return Detection{
		Decision: analysis.Decision{
			Label:      label,
			Confidence: confidence,
			Emoji:      emoji,
			Color:      color,
		},
		Reason: strings.TrimSpace(result.Reason),
	}
}

func (s *Service) fallbackDetection(userMessage string) Detection {
	return Detection{
		Decision: s.fallback(userMessage),
		Reason:   "fallback",
		Fallback: true,
	}
}

// parseClassifierOutput extracts the first JSON object from the model reply.
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func formatHistory(messages []chat.Message, limit int) string {
	if len(messages) == 0 {
		return "No earlier messages."
	}
	if limit < 1 {
		limit = 1
	}
	start := len(messages) - limit
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == chat.RoleError {
			continue
		}
		role := "Seeker"
		if msg.Role == chat.RoleAssistant {
			role = "Krishna"
		}
		lines = append(lines, role+": "+content)
	}
	if len(lines) == 0 {
		return "No earlier messages."
	}
	return strings.Join(lines, "\n")
}

type classifierPayload struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const emotionSystemPrompt = "You classify the emotional state of a person seeking guidance. Read the recent conversation and the latest message, and answer with a single JSON object with the fields emotion (one GoEmotions label such as sadness, grief, anger, annoyance, fear, nervousness, confusion, disappointment, remorse, joy, gratitude, optimism, curiosity, neutral), confidence (a number between 0 and 1) and reason (one short sentence). Output nothing else."

const emotionUserPrompt = "Recent conversation:\n{history}\n\nLatest message:\n{user_message}\n\nReturn the JSON."
