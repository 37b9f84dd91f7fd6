package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/analysis/intent"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// ChainGenerator runs an eino prompt chain over a chat model.
type ChainGenerator struct {
	chatModel model.BaseChatModel
	prompts   *ModePromptManager
	chain     compose.Runnable[map[string]any, *schema.Message]
	logger    *zap.Logger
}

// NewChainGenerator compiles the reflection chain around chatModel.
func NewChainGenerator(ctx context.Context, chatModel model.BaseChatModel, logger *zap.Logger) (*ChainGenerator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &ChainGenerator{
		chatModel: chatModel,
		prompts:   NewModePromptManager(),
		chain:     runnable,
		logger:    logger.Named("ark"),
	}, nil
}

// Name implements Generator.
func (g *ChainGenerator) Name() string { return "ark" }

// Generate implements Generator.
func (g *ChainGenerator) Generate(ctx context.Context, in Input) (string, error) {
	response, err := g.chain.Invoke(ctx, g.buildChainInput(in))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("generated reply",
		zap.String("mode", string(in.Mode)),
		zap.String("intent", string(in.Intent)),
		zap.Int("length", len(response.Content)))
	return CleanMarkdown(response.Content), nil
}

// ChatModel returns the underlying model so other services can reuse it.
func (g *ChainGenerator) ChatModel() model.BaseChatModel {
	return g.chatModel
}

func (g *ChainGenerator) buildChainInput(in Input) map[string]any {
	system := g.prompts.BuildCasualPrompt()
	if in.Intent != intent.CasualChat {
		system = g.prompts.BuildSystemPrompt(in)
	}
	return map[string]any{
		"system":  system,
		"history": buildHistoryMessages(in.History),
		"query":   in.UserInput,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	recent := recentHistory(messages)
	if len(recent) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(recent))
	for _, msg := range recent {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
