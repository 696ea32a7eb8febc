package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/99designs/keyring"

	"pagesmith/internal/apperr"
	"pagesmith/internal/config"
)

const serviceName = "pagesmith"

// OpenKeyring opens the encrypted file keyring used for provider API keys.
func OpenKeyring(cfg config.KeyringConfig) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          cfg.Dir,
		FilePasswordFunc: keyring.FixedStringPrompt(cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

type ApiKeyInfo struct {
	Provider    string `json:"provider"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (s *KeyringService) StoreApiKey(provider string, apiKey []byte) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return apperr.Validation("provider", "is required")
	}
	if len(apiKey) == 0 {
		return apperr.Validation("apiKey", "is empty")
	}

	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by pagesmith",
	})
}

// GetApiKey returns the stored key for provider, or "" when none is stored.
func (s *KeyringService) GetApiKey(provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", apperr.Validation("provider", "is required")
	}
	item, err := s.ring.Get(provider)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s API key: %w", provider, err)
	}
	return strings.TrimSpace(string(item.Data)), nil
}

func (s *KeyringService) DeleteApiKey(provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return apperr.Validation("provider", "is required")
	}
	if _, err := s.ring.Get(provider); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return apperr.NotFound("API key", provider)
		}
		return err
	}
	return s.ring.Remove(provider)
}

func (s *KeyringService) ListApiKeys() ([]ApiKeyInfo, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	results := make([]ApiKeyInfo, 0, len(keys))
	for _, provider := range keys {
		results = append(results, ApiKeyInfo{
			Provider:    provider,
			Label:       provider + " API key",
			Description: "API key for " + provider + " used by pagesmith",
		})
	}
	return results, nil
}
