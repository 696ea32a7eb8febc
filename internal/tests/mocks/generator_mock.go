package mocks

import (
	"context"
	"sync"

	"pagesmith/internal/llm/client"
)

// GeneratorMock records prompts and answers them with GenerateTextFunc.
type GeneratorMock struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *GeneratorMock) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "", nil
}

func (m *GeneratorMock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *GeneratorMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// AdapterSourceMock hands out Generator, or the result of AdapterFunc when
// set.
type AdapterSourceMock struct {
	Generator   client.Generator
	AdapterFunc func(ctx context.Context, userID string) (client.Generator, error)
}

func (m *AdapterSourceMock) Adapter(ctx context.Context, userID string) (client.Generator, error) {
	if m.AdapterFunc != nil {
		return m.AdapterFunc(ctx, userID)
	}
	return m.Generator, nil
}
