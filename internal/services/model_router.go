package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"pagesmith/internal/apperr"
	"pagesmith/internal/llm/client"
	"pagesmith/internal/metrics"
)

const (
	CredentialKeyring = "keyring"
	CredentialEnv     = "env"
)

// providerEnvKeys maps providers to the environment variable consulted when
// no key is stored in the keyring.
var providerEnvKeys = map[string]string{
	client.ProviderGemini:    "GEMINI_API_KEY",
	client.ProviderOpenAI:    "OPENAI_API_KEY",
	client.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// AIConfig is the resolved provider selection for one call. It is derived on
// every request and never stored.
type AIConfig struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	ModelKey         string `json:"modelKey"`
	Credential       string `json:"-"`
	CredentialSource string `json:"credentialSource"`
}

// Key identifies the adapter an AIConfig needs.
func (c AIConfig) Key() AdapterKey {
	return AdapterKey{Provider: c.Provider, Model: c.Model, Credential: c.Credential}
}

type AdapterKey struct {
	Provider   string
	Model      string
	Credential string
}

func (k AdapterKey) flightKey() string {
	return k.Provider + "\x00" + k.Model + "\x00" + k.Credential
}

// AdapterCache holds the most recently built adapter. A different key
// replaces it.
type AdapterCache struct {
	mu      sync.Mutex
	key     AdapterKey
	adapter client.Generator
	group   singleflight.Group
	built   atomic.Int64
}

func NewAdapterCache() *AdapterCache {
	return &AdapterCache{}
}

// Get returns the cached adapter for key, calling build when the slot holds
// a different key or is empty. Concurrent callers for one key share a build.
func (c *AdapterCache) Get(ctx context.Context, key AdapterKey, build func(context.Context) (client.Generator, error)) (client.Generator, error) {
	if g, ok := c.lookup(key); ok {
		return g, nil
	}

	v, err, _ := c.group.Do(key.flightKey(), func() (any, error) {
		if g, ok := c.lookup(key); ok {
			return g, nil
		}
		g, err := build(ctx)
		if err != nil {
			return nil, err
		}
		c.built.Add(1)
		metrics.AdapterConstructions.WithLabelValues(key.Provider).Inc()

		c.mu.Lock()
		c.key = key
		c.adapter = g
		c.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(client.Generator), nil
}

func (c *AdapterCache) lookup(key AdapterKey) (client.Generator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adapter != nil && c.key == key {
		return c.adapter, true
	}
	return nil, false
}

// Constructions reports how many adapters have been built.
func (c *AdapterCache) Constructions() int64 {
	return c.built.Load()
}

func (c *AdapterCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = AdapterKey{}
	c.adapter = nil
}

// AdapterFactory builds an adapter for a resolved configuration.
type AdapterFactory func(ctx context.Context, cfg AIConfig) (client.Generator, error)

// NewClientFactory returns the production factory: the provider variant
// wrapped with call metrics and logging.
func NewClientFactory(maxTokens int, timeout time.Duration, logger zerolog.Logger) AdapterFactory {
	return func(ctx context.Context, cfg AIConfig) (client.Generator, error) {
		g, err := client.New(ctx, cfg.Provider, client.Options{
			APIKey:    cfg.Credential,
			Model:     cfg.Model,
			MaxTokens: maxTokens,
			Timeout:   timeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Str("credential_source", cfg.CredentialSource).Msg("constructed provider adapter")
		return client.Instrument(g, cfg.Provider, cfg.Model, logger), nil
	}
}

// CredentialStore looks up stored provider keys. An empty result means no
// key is stored.
type CredentialStore interface {
	GetApiKey(provider string) (string, error)
}

type ModelRouter struct {
	settings    SettingsService
	catalog     ModelConfigService
	credentials CredentialStore
	cache       *AdapterCache
	factory     AdapterFactory
	logger      zerolog.Logger

	// LookupEnv reads fallback credentials; os.LookupEnv unless replaced.
	LookupEnv func(string) (string, bool)
}

func NewModelRouter(settings SettingsService, catalog ModelConfigService, credentials CredentialStore, cache *AdapterCache, factory AdapterFactory, logger zerolog.Logger) *ModelRouter {
	if cache == nil {
		cache = NewAdapterCache()
	}
	return &ModelRouter{
		settings:    settings,
		catalog:     catalog,
		credentials: credentials,
		cache:       cache,
		factory:     factory,
		logger:      logger,
		LookupEnv:   os.LookupEnv,
	}
}

func (r *ModelRouter) Cache() *AdapterCache {
	return r.cache
}

// ResolveConfig derives the provider, model and credential for userID from
// the persisted settings, the model catalog and the credential sources.
func (r *ModelRouter) ResolveConfig(ctx context.Context, userID string) (AIConfig, error) {
	settings, err := r.settings.Get(ctx, userID)
	if err != nil {
		return AIConfig{}, fmt.Errorf("loading settings: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(settings.Provider))
	if provider == "" || !r.catalog.HasProvider(provider) {
		return AIConfig{}, apperr.Configuration("unsupported provider: %q", settings.Provider)
	}

	cfg := AIConfig{Provider: provider, ModelKey: strings.TrimSpace(settings.ModelKey)}
	if cfg.ModelKey == "" {
		model, err := r.catalog.DefaultModel(provider)
		if err != nil {
			return AIConfig{}, err
		}
		cfg.ModelKey = model.Key
		cfg.Model = model.APIName
	} else {
		model, err := r.catalog.GetModel(cfg.ModelKey)
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				return AIConfig{}, &apperr.ConfigurationError{Message: fmt.Sprintf("selected model %q is not in the catalog", cfg.ModelKey), Err: err}
			}
			return AIConfig{}, err
		}
		if model.ProviderID != provider {
			return AIConfig{}, apperr.Configuration("selected model %q belongs to %s, not %s", cfg.ModelKey, model.ProviderID, provider)
		}
		if !model.Enabled {
			return AIConfig{}, apperr.Configuration("selected model %q is disabled", cfg.ModelKey)
		}
		cfg.Model = model.APIName
	}

	key, err := r.credentials.GetApiKey(provider)
	if err != nil {
		r.logger.Warn().Err(err).Str("provider", provider).Msg("keyring lookup failed, trying environment")
	}
	if key != "" {
		cfg.Credential = key
		cfg.CredentialSource = CredentialKeyring
		return cfg, nil
	}

	envName := providerEnvKeys[provider]
	if v, ok := r.LookupEnv(envName); ok && strings.TrimSpace(v) != "" {
		cfg.Credential = strings.TrimSpace(v)
		cfg.CredentialSource = CredentialEnv
		return cfg, nil
	}

	return AIConfig{}, apperr.Configuration("no API key for %s: store one with `pagesmith keys set %s` or set %s", provider, provider, envName)
}

// Adapter returns the adapter for userID's current configuration, building
// a new one only when the configuration changed since the last call.
func (r *ModelRouter) Adapter(ctx context.Context, userID string) (client.Generator, error) {
	cfg, err := r.ResolveConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.cache.Get(ctx, cfg.Key(), func(ctx context.Context) (client.Generator, error) {
		return r.factory(ctx, cfg)
	})
}
