package services_test

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesmith/internal/apperr"
	"pagesmith/internal/assets"
	"pagesmith/internal/services"
	"pagesmith/internal/tests/mocks"
)

func newCatalog(t *testing.T) services.ModelConfigService {
	t.Helper()
	catalog := services.NewModelConfigService(&mocks.ModelSettingRepositoryMock{}, assets.ModelsData)
	require.NoError(t, catalog.Startup(context.Background()))
	return catalog
}

func TestModelConfigService_ListsProvidersInCatalogOrder(t *testing.T) {
	groups, err := newCatalog(t).ListModelGroups()
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "gemini", groups[0].ProviderID)
	assert.Equal(t, "openai", groups[1].ProviderID)
	assert.Equal(t, "anthropic", groups[2].ProviderID)
	assert.Equal(t, "gemini|gemini-2.5-flash", groups[0].Models[0].Key)
	for _, group := range groups {
		for _, m := range group.Models {
			assert.True(t, m.Enabled, m.Key)
		}
	}
}

func TestModelConfigService_DefaultModelSkipsDisabled(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t)

	def, err := catalog.DefaultModel("openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", def.APIName)

	_, err = catalog.SetModelEnabled(ctx, "openai|gpt-4o-mini", false)
	require.NoError(t, err)

	def, err = catalog.DefaultModel("openai")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", def.APIName)

	_, err = catalog.SetProviderEnabled(ctx, "openai", false)
	require.NoError(t, err)
	_, err = catalog.DefaultModel("openai")
	assert.Equal(t, apperr.KindConfiguration, apperr.Kind(err))
}

func TestModelConfigService_KeepsStoredToggles(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ModelSettingRepositoryMock{}
	_, err := repo.Upsert(ctx, "anthropic|claude-sonnet-4-20250514", "anthropic", false)
	require.NoError(t, err)

	catalog := services.NewModelConfigService(repo, assets.ModelsData)
	require.NoError(t, catalog.Startup(ctx))

	model, err := catalog.GetModel("anthropic|claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.False(t, model.Enabled)

	_, err = catalog.GetModel("anthropic|nope")
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))
}

func TestSettingsService_Update(t *testing.T) {
	ctx := context.Background()
	svc := services.NewSettingsService(&mocks.SettingsRepositoryMock{}, newCatalog(t), "gemini")

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "gemini", got.Provider)
	assert.Empty(t, got.ModelKey)

	_, err = svc.Update(ctx, "u1", "OpenAI ", "openai|gpt-4o")
	require.NoError(t, err)
	got, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "openai|gpt-4o", got.ModelKey)
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc := services.NewSettingsService(&mocks.SettingsRepositoryMock{}, newCatalog(t), "gemini")

	_, err := svc.Update(ctx, "u1", "", "")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = svc.Update(ctx, "u1", "mistral", "")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = svc.Update(ctx, "u1", "gemini", "openai|gpt-4o")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = svc.Update(ctx, "u1", "gemini", "gemini|unknown")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))

	_, err = svc.Update(ctx, " ", "gemini", "")
	assert.Equal(t, apperr.KindValidation, apperr.Kind(err))
}

func TestKeyringService_RoundTrip(t *testing.T) {
	svc := services.NewKeyringService(keyring.NewArrayKeyring(nil))

	key, err := svc.GetApiKey("openai")
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, svc.StoreApiKey("openai", []byte(" sk-test \n")))
	require.NoError(t, svc.StoreApiKey("anthropic", []byte("sk-ant")))

	key, err = svc.GetApiKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	list, err := svc.ListApiKeys()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anthropic", list[0].Provider)
	assert.Equal(t, "openai", list[1].Provider)

	require.NoError(t, svc.DeleteApiKey("openai"))
	err = svc.DeleteApiKey("openai")
	assert.Equal(t, apperr.KindNotFound, apperr.Kind(err))

	assert.Equal(t, apperr.KindValidation, apperr.Kind(svc.StoreApiKey("gemini", nil)))
}
