// Package client adapts the supported AI providers to a single text
// generation contract.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"pagesmith/internal/apperr"
)

// Generator turns one prompt into plain text. Empty text is a valid result.
// Failures are *apperr.ProviderError values.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultMaxTokens is the output ceiling for the chat and message variants.
const DefaultMaxTokens = 4000

// Options configures adapter construction.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	// Timeout bounds a single GenerateText call. Zero means no bound beyond
	// the caller's context.
	Timeout time.Duration
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}

// New builds the adapter variant for provider.
func New(ctx context.Context, provider string, opts Options) (Generator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, apperr.Configuration("API key for %s is not configured", provider)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, apperr.Configuration("model for %s is not configured", provider)
	}
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, opts)
	case ProviderAnthropic:
		return NewClaudeClient(ctx, opts)
	default:
		return nil, apperr.Configuration("unsupported provider: %s", provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func providerError(provider string, err error) error {
	return &apperr.ProviderError{Provider: provider, Err: err}
}

// joinedText returns msg.Content, or the concatenated text parts when the
// reply is multi-part.
func joinedText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Content != "" {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// firstText returns the first text-typed part of msg, falling back to
// msg.Content.
func firstText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText && part.Text != "" {
			return part.Text
		}
	}
	return msg.Content
}

func describe(provider, model string) string {
	return fmt.Sprintf("%s/%s", provider, model)
}
