package guidance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	analysis "github.com/gitagpt/gitagpt/internal/analysis/emotion"
	"github.com/gitagpt/gitagpt/internal/analysis/intent"
	"github.com/gitagpt/gitagpt/internal/model/chat"
	"github.com/gitagpt/gitagpt/internal/service/ai"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
	emotionservice "github.com/gitagpt/gitagpt/internal/service/emotion"
	verseservice "github.com/gitagpt/gitagpt/internal/service/verse"
)

// ValidationError reports a request the pipeline refuses to process.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Input is one chat request after authentication.
type Input struct {
	UserInput string
	SessionID string
	Mode      string
	UserID    string
}

// Config tunes the pipeline.
type Config struct {
	MaxInputLength  int
	HistoryWindow   int
	GenerateTimeout time.Duration
	TopK            int
}

// Service runs the chat pipeline: intent, emotion, verses, reflection, persistence.
type Service struct {
	emotions   *emotionservice.Service
	verses     *verseservice.Retriever
	generators []ai.Generator
	fallback   ai.Generator
	store      chatstore.Store
	cfg        Config
	logger     *zap.Logger
}

// NewService wires the pipeline. generators are tried in order before the
// template fallback; an empty list means only templates are used.
func NewService(emotions *emotionservice.Service, verses *verseservice.Retriever, generators []ai.Generator, store chatstore.Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = 5000
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		emotions:   emotions,
		verses:     verses,
		generators: generators,
		fallback:   ai.TemplateGenerator{},
		store:      store,
		cfg:        cfg,
		logger:     logger.Named("guidance"),
	}
}

// Store exposes the session store to the conversation handlers.
func (s *Service) Store() chatstore.Store {
	return s.store
}

// Respond processes one user message and returns the wire response.
func (s *Service) Respond(ctx context.Context, in Input) (chat.ChatResponse, error) {
	mode, text, err := s.validate(in)
	if err != nil {
		return chat.ChatResponse{}, err
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	persist := true
	if _, err := s.store.EnsureSession(ctx, sessionID, in.UserID, mode); err != nil {
		if errors.Is(err, chatstore.ErrSessionForbidden) {
			return chat.ChatResponse{}, err
		}
		s.logger.Warn("session unavailable, continuing without persistence",
			zap.String("session_id", sessionID), zap.Error(err))
		persist = false
	}

	var history []chat.Message
	if persist {
		history, err = s.store.RecentMessages(ctx, sessionID, s.cfg.HistoryWindow)
		if err != nil {
			s.logger.Warn("history unavailable", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	fallbackUsed := false
	classified := intent.Classify(text)
	s.logger.Info("classified intent",
		zap.String("session_id", sessionID),
		zap.String("intent", string(classified.Label)),
		zap.Float64("confidence", classified.Confidence))

	var decision *analysis.Decision
	if classified.Label.NeedsEmotion() {
		detection := s.emotions.Detect(ctx, history, text)
		if detection.Fallback {
			fallbackUsed = true
		}
		decision = &detection.Decision
	}

	var matches []verseservice.Match
	if classified.Label.NeedsVerses() {
		emotionLabel := ""
		if decision != nil {
			emotionLabel = string(decision.Label)
		}
		matches, err = s.verses.Search(ctx, text, emotionLabel, s.cfg.TopK)
		if err != nil {
			s.logger.Info("verse search fell back to default verse", zap.Error(err))
			fallbackUsed = true
			matches = nil
			if fb, ok := s.verses.Fallback(); ok {
				matches = []verseservice.Match{fb}
			}
		}
	}

	genInput := ai.Input{
		UserInput: text,
		Mode:      mode,
		Intent:    classified.Label,
		Emotion:   decision,
		Verses:    toVerseContext(matches),
		History:   history,
	}
	reflection, usedFallback := s.generate(ctx, genInput)
	if usedFallback {
		fallbackUsed = true
	}

	reply := chat.Reply{
		Text:         reflection,
		SessionID:    sessionID,
		References:   toReferences(matches),
		Intent:       &chat.Intent{Label: string(classified.Label), Confidence: classified.Confidence},
		FallbackUsed: fallbackUsed,
	}
	color := ""
	if decision != nil {
		reply.Emotion = &chat.Emotion{Label: string(decision.Label), Confidence: decision.Confidence, Emoji: decision.Emoji}
		color = decision.Color
	}

	if persist {
		s.persist(ctx, sessionID, text, reply)
	}

	resp := chat.NewChatResponse(reply, mode, color)
	for i := range resp.Verses {
		resp.Verses[i].ID = matches[i].Verse.ID
	}

	s.logger.Info("chat request completed",
		zap.String("session_id", sessionID),
		zap.String("intent", string(classified.Label)),
		zap.Bool("fallback_used", fallbackUsed))
	return resp, nil
}

func (s *Service) validate(in Input) (chat.Mode, string, error) {
	text := strings.TrimSpace(in.UserInput)
	if text == "" {
		return "", "", &ValidationError{Msg: "user_input must not be empty"}
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxInputLength {
		return "", "", &ValidationError{Msg: fmt.Sprintf("user_input must be at most %d characters", s.cfg.MaxInputLength)}
	}

	mode, err := chat.ParseMode(in.Mode)
	if err != nil {
		return "", "", &ValidationError{Msg: fmt.Sprintf("Invalid interaction mode '%s'. Must be one of: wisdom, socratic, story", in.Mode)}
	}

	if in.SessionID != "" {
		if _, err := uuid.Parse(in.SessionID); err != nil {
			return "", "", &ValidationError{Msg: "session_id must be a valid UUID"}
		}
	}
	return mode, text, nil
}

// generate tries each model generator and falls back to templates.
func (s *Service) generate(ctx context.Context, in ai.Input) (string, bool) {
	for _, gen := range s.generators {
		genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
		text, err := gen.Generate(genCtx, in)
		cancel()
		if err == nil {
			return text, false
		}
		s.logger.Warn("reflection generation failed",
			zap.String("generator", gen.Name()), zap.Error(err))
	}

	text, err := s.fallback.Generate(ctx, in)
	if err != nil {
		s.logger.Error("template fallback failed", zap.Error(err))
		return "I'm here to provide guidance from the Bhagavad Gita. Please share what's on your mind.", true
	}
	return text, true
}

func (s *Service) persist(ctx context.Context, sessionID, text string, reply chat.Reply) {
	user := chat.Message{SessionID: sessionID, Role: chat.RoleUser, Content: text}
	if _, err := s.store.SaveMessage(ctx, user); err != nil {
		s.logger.Warn("failed to store user message", zap.String("session_id", sessionID), zap.Error(err))
		return
	}

	assistant := chat.Message{
		SessionID:  sessionID,
		Role:       chat.RoleAssistant,
		Content:    reply.Text,
		Emotion:    reply.Emotion,
		References: reply.References,
		Intent:     reply.Intent,
	}
	if _, err := s.store.SaveMessage(ctx, assistant); err != nil {
		s.logger.Warn("failed to store assistant message", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func toVerseContext(matches []verseservice.Match) []ai.VerseContext {
	if len(matches) == 0 {
		return nil
	}
	out := make([]ai.VerseContext, 0, len(matches))
	for _, m := range matches {
		out = append(out, ai.VerseContext{
			Chapter:         m.Verse.Chapter,
			Verse:           m.Verse.Verse,
			Shloka:          m.Verse.Shloka,
			Transliteration: m.Verse.Transliteration,
			EngMeaning:      m.Verse.EngMeaning,
			Score:           m.Score,
		})
	}
	return out
}

func toReferences(matches []verseservice.Match) []chat.Reference {
	if len(matches) == 0 {
		return nil
	}
	out := make([]chat.Reference, 0, len(matches))
	for _, m := range matches {
		score := m.Score
		out = append(out, chat.Reference{
			Chapter:         m.Verse.Chapter,
			Verse:           m.Verse.Verse,
			Text:            m.Verse.Shloka,
			Transliteration: m.Verse.Transliteration,
			Meaning:         m.Verse.EngMeaning,
			Score:           &score,
		})
	}
	return out
}
