package client

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// OpenAIClient is the chat-completion variant: one user message with a fixed
// max-token ceiling, reading the first choice.
type OpenAIClient struct {
	chat  model.BaseChatModel
	model string
	opts  Options
}

func NewOpenAIClient(ctx context.Context, opts Options) (*OpenAIClient, error) {
	maxTokens := opts.maxTokens()
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:    opts.APIKey,
		Model:     opts.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, providerError(ProviderOpenAI, fmt.Errorf("create chat model: %w", err))
	}
	return &OpenAIClient{chat: chat, model: opts.Model, opts: opts}, nil
}

func (o *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.Timeout)
	defer cancel()

	msg, err := o.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", providerError(ProviderOpenAI, err)
	}
	return joinedText(msg), nil
}

func (o *OpenAIClient) String() string { return describe(ProviderOpenAI, o.model) }
