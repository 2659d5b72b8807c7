package services

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/DickShmiggleTM/RepoFusion/internal/llm/catalog"
	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

func newTestModelListService(t *testing.T) ModelListService {
	t.Helper()
	svc := NewModelListService(catalog.New(catalog.Options{Logger: zerolog.Nop()}), zerolog.Nop())
	assert.NoError(t, svc.Startup(t.Context()))
	return svc
}

func TestModelListProvidersFromEmbeddedCatalog(t *testing.T) {
	svc := newTestModelListService(t)

	providers := svc.Providers()
	assert.Len(t, providers, len(models.ProviderKinds()))

	byID := map[models.ProviderKind]models.ProviderInfo{}
	for _, p := range providers {
		byID[p.ID] = p
	}
	assert.True(t, byID[models.ProviderGemini].NeedsAPIKey)
	assert.False(t, byID[models.ProviderGemini].Local)
	assert.True(t, byID[models.ProviderOllama].Local)
	assert.False(t, byID[models.ProviderOllama].NeedsAPIKey)
	assert.True(t, byID[models.ProviderLlamafile].Local)
}

func TestModelListGeminiIsStatic(t *testing.T) {
	svc := newTestModelListService(t)

	entries, err := svc.ListModels(models.ProviderGemini, "")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		assert.Equal(t, models.ProviderGemini, e.Provider)
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "gemini-2.5-flash")
	assert.Contains(t, names, "gemini-2.5-pro")
}

func TestModelListLlamafileHasNothingToList(t *testing.T) {
	svc := newTestModelListService(t)

	entries, err := svc.ListModels(models.ProviderLlamafile, "")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFilterIdentifiers(t *testing.T) {
	ids := []string{"meta-llama/llama-3.3-70b", "anthropic/claude-sonnet-4", "mistralai/mistral-7b"}

	assert.Equal(t, ids, filterIdentifiers(ids, ""))
	assert.Equal(t, []string{"meta-llama/llama-3.3-70b"}, filterIdentifiers(ids, "LLAMA"))
	assert.Empty(t, filterIdentifiers(ids, "gemma"))
}
