package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gitagpt/gitagpt/internal/analysis/intent"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator writes replies with the Gemini API.
type GeminiGenerator struct {
	models    contentGenerator
	modelName string
	prompts   *ModePromptManager
	logger    *zap.Logger
}

// NewGeminiGenerator creates a Gemini API client for modelName.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return newGeminiGenerator(client.Models, modelName, logger), nil
}

func newGeminiGenerator(models contentGenerator, modelName string, logger *zap.Logger) *GeminiGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiGenerator{
		models:    models,
		modelName: modelName,
		prompts:   NewModePromptManager(),
		logger:    logger.Named("gemini"),
	}
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, in Input) (string, error) {
	system := g.prompts.BuildCasualPrompt()
	if in.Intent != intent.CasualChat {
		system = g.prompts.BuildSystemPrompt(in)
	}

	var contents []*genai.Content
	for _, m := range recentHistory(in.History) {
		var role genai.Role = genai.RoleUser
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(in.UserInput, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   int32(8192),
	}

	res, err := g.models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("generated reply", zap.String("model", g.modelName), zap.Int("length", len(text)))
	return CleanMarkdown(text), nil
}
