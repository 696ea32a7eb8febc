package client

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ClaudeClient is the message-based variant: one user message with a fixed
// max-token ceiling, reading the first text block.
type ClaudeClient struct {
	chat  model.BaseChatModel
	model string
	opts  Options
}

func NewClaudeClient(ctx context.Context, opts Options) (*ClaudeClient, error) {
	chat, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    opts.APIKey,
		Model:     opts.Model,
		MaxTokens: opts.maxTokens(),
	})
	if err != nil {
		return nil, providerError(ProviderAnthropic, fmt.Errorf("create chat model: %w", err))
	}
	return &ClaudeClient{chat: chat, model: opts.Model, opts: opts}, nil
}

func (c *ClaudeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.opts.Timeout)
	defer cancel()

	msg, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", providerError(ProviderAnthropic, err)
	}
	return firstText(msg), nil
}

func (c *ClaudeClient) String() string { return describe(ProviderAnthropic, c.model) }
