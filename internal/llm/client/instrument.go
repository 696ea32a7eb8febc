package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pagesmith/internal/metrics"
)

type instrumented struct {
	next     Generator
	provider string
	model    string
	logger   zerolog.Logger
}

// Instrument wraps g so every call is counted, timed and logged. Results
// pass through unchanged.
func Instrument(g Generator, provider, model string, logger zerolog.Logger) Generator {
	return &instrumented{
		next:     g,
		provider: provider,
		model:    model,
		logger:   logger.With().Str("provider", provider).Str("model", model).Logger(),
	}
}

func (i *instrumented) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.GenerateText(ctx, prompt)
	elapsed := time.Since(start)

	metrics.ProviderDuration.WithLabelValues(i.provider).Observe(elapsed.Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(i.provider, "error").Inc()
		i.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("provider call failed")
		return "", err
	}
	metrics.ProviderRequests.WithLabelValues(i.provider, "success").Inc()
	i.logger.Debug().
		Dur("elapsed", elapsed).
		Int("prompt_chars", len(prompt)).
		Int("response_chars", len(text)).
		Msg("provider call")
	return text, nil
}
