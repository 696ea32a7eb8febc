package mocks

import (
	"context"
	"sync"

	"pagesmith/internal/models"
)

// SettingsRepositoryMock keeps settings in memory unless the function
// fields are set.
type SettingsRepositoryMock struct {
	GetFunc  func(ctx context.Context, userID, defaultProvider string) (*models.Settings, error)
	SaveFunc func(ctx context.Context, settings *models.Settings) error

	mu    sync.Mutex
	saved map[string]models.Settings
}

func (m *SettingsRepositoryMock) Get(ctx context.Context, userID, defaultProvider string) (*models.Settings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, defaultProvider)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.saved[userID]; ok {
		return &s, nil
	}
	return &models.Settings{UserID: userID, Provider: defaultProvider}, nil
}

func (m *SettingsRepositoryMock) Save(ctx context.Context, settings *models.Settings) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, settings)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]models.Settings)
	}
	m.saved[settings.UserID] = *settings
	return nil
}
