package services

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/zalando/go-keyring"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

func TestSettingsServiceStartsWithDefaults(t *testing.T) {
	svc := NewSettingsService(nil, zerolog.Nop())

	st := svc.Get()
	assert.Equal(t, models.ProviderGemini, st.Main.Provider)
	assert.Equal(t, "gemini-2.5-flash", st.Main.ModelName)
	assert.False(t, st.UseCustomReasoningModel)
	assert.False(t, st.UseCustomCodingModel)
}

func TestSettingsServiceUpdateSwapsSnapshot(t *testing.T) {
	svc := NewSettingsService(nil, zerolog.Nop())

	next := svc.Get()
	next.Main.Provider = models.ProviderOllama
	next.Main.ModelName = "llama3:latest"
	next.UseCustomCodingModel = true

	updated, err := svc.Update(next)
	assert.NoError(t, err)
	assert.Equal(t, models.ProviderOllama, updated.Main.Provider)

	st := svc.Get()
	assert.Equal(t, "llama3:latest", st.Main.ModelName)
	assert.True(t, st.UseCustomCodingModel)
}

func TestSettingsServiceRejectsUnknownProvider(t *testing.T) {
	svc := NewSettingsService(nil, zerolog.Nop())

	next := svc.Get()
	next.Reasoning.Provider = "grok"

	_, err := svc.Update(next)
	assert.Error(t, err)

	// The stored snapshot is untouched by a rejected update.
	assert.Equal(t, models.ProviderGemini, svc.Get().Reasoning.Provider)
}

func TestSettingsServiceSnapshotsAreIsolated(t *testing.T) {
	svc := NewSettingsService(nil, zerolog.Nop())

	first := svc.Get()
	first.APIKeys[models.ProviderOpenRouter] = "leaked"

	second := svc.Get()
	assert.Empty(t, second.APIKeys[models.ProviderOpenRouter])
}

func TestSettingsServiceResetRestoresDefaults(t *testing.T) {
	svc := NewSettingsService(nil, zerolog.Nop())

	next := svc.Get()
	next.Main.Provider = models.ProviderHuggingFace
	next.Main.ModelName = "mistralai/Mistral-7B-Instruct-v0.3"
	_, err := svc.Update(next)
	assert.NoError(t, err)

	st := svc.Reset()
	assert.Equal(t, models.ProviderGemini, st.Main.Provider)
	assert.Equal(t, "gemini-2.5-flash", st.Main.ModelName)
}

func TestSettingsServiceClearedKeyRemovedFromKeychain(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	ks := NewKeyringService()
	svc := NewSettingsService(ks, zerolog.Nop())

	next := svc.Get()
	next.APIKeys[models.ProviderOpenRouter] = "sk-or-123"
	_, err := svc.Update(next)
	assert.NoError(t, err)

	stored, err := ks.GetApiKey("openrouter")
	assert.NoError(t, err)
	assert.Equal(t, "sk-or-123", stored)

	next = svc.Get()
	next.APIKeys[models.ProviderOpenRouter] = ""
	_, err = svc.Update(next)
	assert.NoError(t, err)

	_, err = ks.GetApiKey("openrouter")
	assert.Error(t, err, "cleared key must leave the keychain")

	// Reset re-folds the keychain; the cleared key must stay gone.
	st := svc.Reset()
	assert.Empty(t, st.APIKeys[models.ProviderOpenRouter])
}

func TestValidateSettingsFillsEmptyProvider(t *testing.T) {
	st := models.Settings{}
	err := validateSettings(&st)
	assert.NoError(t, err)
	assert.Equal(t, models.ProviderGemini, st.Main.Provider)
	assert.Equal(t, models.ProviderGemini, st.Coding.Provider)
}
