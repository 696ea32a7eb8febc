package mocks

import (
	"context"
	"sync"

	"pagesmith/internal/models"
)

// ModelSettingRepositoryMock is an in-memory model settings store. ListFunc
// overrides List when set.
type ModelSettingRepositoryMock struct {
	ListFunc func(ctx context.Context) ([]models.ModelSetting, error)

	mu   sync.Mutex
	rows map[string]models.ModelSetting
}

func (m *ModelSettingRepositoryMock) List(ctx context.Context) ([]models.ModelSetting, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ModelSetting, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, nil
}

func (m *ModelSettingRepositoryMock) GetByKey(ctx context.Context, modelKey string) (*models.ModelSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[modelKey]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (m *ModelSettingRepositoryMock) Upsert(ctx context.Context, modelKey, provider string, enabled bool) (*models.ModelSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]models.ModelSetting)
	}
	row := m.rows[modelKey]
	row.ModelKey = modelKey
	row.Provider = provider
	row.Enabled = enabled
	m.rows[modelKey] = row
	return &row, nil
}

func (m *ModelSettingRepositoryMock) SetProviderEnabled(ctx context.Context, provider string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, row := range m.rows {
		if row.Provider == provider {
			row.Enabled = enabled
			m.rows[key] = row
		}
	}
	return nil
}
