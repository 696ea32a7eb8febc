package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pagesmith/internal/apperr"
	"pagesmith/internal/models"
	"pagesmith/internal/repositories"
)

type ModelConfigService interface {
	Startup(ctx context.Context) error
	ListModelGroups() ([]models.LLMModelGroup, error)
	SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error)
	SetProviderEnabled(ctx context.Context, provider string, enabled bool) ([]models.LLMModel, error)
	GetModel(modelKey string) (*models.LLMModel, error)
	// DefaultModel returns the first enabled model of provider in catalog order.
	DefaultModel(provider string) (*models.LLMModel, error)
	HasProvider(provider string) bool
}

type modelConfigService struct {
	repo    repositories.ModelSettingRepository
	catalog []byte

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	modelOrder    map[string][]string
	models        map[string]*catalogModel
	settings      map[string]bool
}

type catalogModel struct {
	Key         string
	ProviderID  string
	Provider    string
	DisplayName string
	APIName     string

	ReasoningEffort string
	Thinking        *bool
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName     string `json:"displayName"`
	APIName         string `json:"apiName"`
	ReasoningEffort string `json:"reasoningEffort,omitempty"`
	Thinking        *bool  `json:"thinking,omitempty"`
}

// NewModelConfigService builds the catalog service from the JSON catalog
// document, normally assets.ModelsData.
func NewModelConfigService(repo repositories.ModelSettingRepository, catalog []byte) ModelConfigService {
	return &modelConfigService{
		repo:          repo,
		catalog:       catalog,
		models:        make(map[string]*catalogModel),
		modelOrder:    make(map[string][]string),
		settings:      make(map[string]bool),
		providerNames: make(map[string]string),
	}
}

func (s *modelConfigService) Startup(ctx context.Context) error {
	var parsed rawModelFile
	if err := json.Unmarshal(s.catalog, &parsed); err != nil {
		return fmt.Errorf("parse model catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providerOrder = make([]string, 0, len(parsed.Providers))
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		s.providerNames[providerID] = strings.TrimSpace(provider.DisplayName)
		s.providerOrder = append(s.providerOrder, providerID)
		for _, mdl := range provider.Models {
			if strings.TrimSpace(mdl.APIName) == "" {
				continue
			}
			key := computeModelKey(providerID, mdl)
			if _, dup := s.models[key]; !dup {
				s.modelOrder[providerID] = append(s.modelOrder[providerID], key)
			}
			s.models[key] = &catalogModel{
				Key:             key,
				ProviderID:      providerID,
				Provider:        s.providerNames[providerID],
				DisplayName:     strings.TrimSpace(mdl.DisplayName),
				APIName:         strings.TrimSpace(mdl.APIName),
				ReasoningEffort: strings.TrimSpace(mdl.ReasoningEffort),
				Thinking:        mdl.Thinking,
			}
		}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load model settings: %w", err)
	}
	for _, setting := range existing {
		s.settings[setting.ModelKey] = setting.Enabled
	}
	for _, providerID := range s.providerOrder {
		for _, key := range s.modelOrder[providerID] {
			if _, ok := s.settings[key]; ok {
				continue
			}
			if _, err := s.repo.Upsert(ctx, key, providerID, true); err != nil {
				return fmt.Errorf("seed model setting for %s: %w", key, err)
			}
			s.settings[key] = true
		}
	}

	return nil
}

func (s *modelConfigService) ListModelGroups() ([]models.LLMModelGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]models.LLMModelGroup, 0, len(s.providerOrder))
	for _, providerID := range s.providerOrder {
		group := models.LLMModelGroup{
			ProviderID:   providerID,
			ProviderName: s.providerName(providerID),
		}
		for _, key := range s.modelOrder[providerID] {
			group.Models = append(group.Models, s.toLLMModel(s.models[key]))
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *modelConfigService) SetModelEnabled(ctx context.Context, modelKey string, enabled bool) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, apperr.Validation("modelKey", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, ok := s.models[modelKey]
	if !ok {
		return nil, apperr.NotFound("model", modelKey)
	}

	if _, err := s.repo.Upsert(ctx, modelKey, catalog.ProviderID, enabled); err != nil {
		return nil, err
	}
	s.settings[modelKey] = enabled
	model := s.toLLMModel(catalog)
	return &model, nil
}

func (s *modelConfigService) SetProviderEnabled(ctx context.Context, provider string, enabled bool) ([]models.LLMModel, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, apperr.Validation("provider", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providerNames[provider]; !ok {
		return nil, apperr.NotFound("provider", provider)
	}
	if err := s.repo.SetProviderEnabled(ctx, provider, enabled); err != nil {
		return nil, err
	}

	updated := make([]models.LLMModel, 0, len(s.modelOrder[provider]))
	for _, key := range s.modelOrder[provider] {
		s.settings[key] = enabled
		updated = append(updated, s.toLLMModel(s.models[key]))
	}
	return updated, nil
}

func (s *modelConfigService) GetModel(modelKey string) (*models.LLMModel, error) {
	modelKey = strings.TrimSpace(modelKey)
	if modelKey == "" {
		return nil, apperr.Validation("modelKey", "is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog, ok := s.models[modelKey]
	if !ok {
		return nil, apperr.NotFound("model", modelKey)
	}
	model := s.toLLMModel(catalog)
	return &model, nil
}

func (s *modelConfigService) DefaultModel(provider string) (*models.LLMModel, error) {
	provider = strings.TrimSpace(provider)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.modelOrder[provider] {
		if s.settings[key] {
			model := s.toLLMModel(s.models[key])
			return &model, nil
		}
	}
	return nil, apperr.Configuration("no enabled model for provider %q", provider)
}

func (s *modelConfigService) HasProvider(provider string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.providerNames[strings.TrimSpace(provider)]
	return ok
}

func (s *modelConfigService) providerName(providerID string) string {
	if name, ok := s.providerNames[providerID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return providerID
}

func (s *modelConfigService) toLLMModel(mdl *catalogModel) models.LLMModel {
	return models.LLMModel{
		Key:             mdl.Key,
		DisplayName:     mdl.DisplayName,
		APIName:         mdl.APIName,
		ProviderID:      mdl.ProviderID,
		ProviderName:    s.providerName(mdl.ProviderID),
		ReasoningEffort: mdl.ReasoningEffort,
		Thinking:        mdl.Thinking,
		Enabled:         s.settings[mdl.Key],
	}
}

// computeModelKey builds "provider|apiName[|attr=value,...]" with attributes
// sorted so the key is stable.
func computeModelKey(providerID string, mdl rawModel) string {
	parts := []string{strings.TrimSpace(providerID), strings.TrimSpace(mdl.APIName)}

	var attrs []string
	if re := strings.TrimSpace(mdl.ReasoningEffort); re != "" {
		attrs = append(attrs, "reasoning="+re)
	}
	if mdl.Thinking != nil {
		attrs = append(attrs, fmt.Sprintf("thinking=%t", *mdl.Thinking))
	}
	if len(attrs) > 0 {
		sort.Strings(attrs)
		parts = append(parts, strings.Join(attrs, ","))
	}
	return strings.Join(parts, "|")
}
