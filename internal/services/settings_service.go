package services

import (
	"context"
	"strings"

	"pagesmith/internal/apperr"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
)

type SettingsService interface {
	Get(ctx context.Context, userID string) (*models.Settings, error)
	Update(ctx context.Context, userID, provider, modelKey string) (*models.Settings, error)
}

type settingsService struct {
	repo            repositories.SettingsRepository
	catalog         ModelConfigService
	defaultProvider string
}

func NewSettingsService(repo repositories.SettingsRepository, catalog ModelConfigService, defaultProvider string) SettingsService {
	return &settingsService{repo: repo, catalog: catalog, defaultProvider: defaultProvider}
}

func (s *settingsService) Get(ctx context.Context, userID string) (*models.Settings, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("userId", "is required")
	}
	return s.repo.Get(ctx, userID, s.defaultProvider)
}

func (s *settingsService) Update(ctx context.Context, userID, provider, modelKey string) (*models.Settings, error) {
	userID = strings.TrimSpace(userID)
	provider = strings.ToLower(strings.TrimSpace(provider))
	modelKey = strings.TrimSpace(modelKey)

	if userID == "" {
		return nil, apperr.Validation("userId", "is required")
	}
	if provider == "" {
		return nil, apperr.Validation("provider", "is required")
	}
	if !s.catalog.HasProvider(provider) {
		return nil, apperr.Validation("provider", "unknown provider %q", provider)
	}
	if modelKey != "" {
		model, err := s.catalog.GetModel(modelKey)
		if err != nil {
			return nil, apperr.Validation("modelKey", "unknown model %q", modelKey)
		}
		if model.ProviderID != provider {
			return nil, apperr.Validation("modelKey", "model %q belongs to %s, not %s", modelKey, model.ProviderID, provider)
		}
	}

	settings := &models.Settings{UserID: userID, Provider: provider, ModelKey: modelKey}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
