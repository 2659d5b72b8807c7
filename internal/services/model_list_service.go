package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yargevad/filepathx"

	"github.com/DickShmiggleTM/RepoFusion/internal/assets"
	"github.com/DickShmiggleTM/RepoFusion/internal/llm/catalog"
	"github.com/DickShmiggleTM/RepoFusion/internal/models"
	"github.com/DickShmiggleTM/RepoFusion/internal/utils"
)

// ModelListService exposes the selectable models per provider: the static
// entries shipped in the embedded catalog plus whatever each provider's list
// endpoint reports at call time.
type ModelListService interface {
	Startup(ctx context.Context) error
	Providers() []models.ProviderInfo
	ListModels(provider models.ProviderKind, query string) ([]models.LLMModel, error)
	DiscoverLlamafiles(root string) ([]string, error)
}

type modelListService struct {
	catalog *catalog.Catalog
	log     zerolog.Logger
	ctx     context.Context

	mu        sync.RWMutex
	providers []models.ProviderInfo
	static    map[models.ProviderKind][]models.LLMModel
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	NeedsAPIKey bool       `json:"needsApiKey"`
	Local       bool       `json:"local"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName string `json:"displayName"`
	APIName     string `json:"apiName"`
}

func NewModelListService(cat *catalog.Catalog, log zerolog.Logger) ModelListService {
	return &modelListService{
		catalog: cat,
		log:     log,
		static:  make(map[models.ProviderKind][]models.LLMModel),
	}
}

func (s *modelListService) Startup(ctx context.Context) error {
	s.ctx = ctx

	var parsed rawModelFile
	if err := json.Unmarshal(assets.ModelsData, &parsed); err != nil {
		return fmt.Errorf("parse models asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providers = make([]models.ProviderInfo, 0, len(parsed.Providers))
	for _, provider := range parsed.Providers {
		kind := models.ProviderKind(strings.TrimSpace(provider.ID))
		if !kind.Valid() {
			s.log.Warn().Str("provider", provider.ID).Msg("catalog asset names an unknown provider")
			continue
		}
		s.providers = append(s.providers, models.ProviderInfo{
			ID:          kind,
			DisplayName: strings.TrimSpace(provider.DisplayName),
			NeedsAPIKey: provider.NeedsAPIKey,
			Local:       provider.Local,
		})
		for _, mdl := range provider.Models {
			name := strings.TrimSpace(mdl.APIName)
			if name == "" {
				continue
			}
			s.static[kind] = append(s.static[kind], models.LLMModel{
				Name:        name,
				DisplayName: strings.TrimSpace(mdl.DisplayName),
				Provider:    kind,
			})
		}
	}
	return nil
}

func (s *modelListService) Providers() []models.ProviderInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ProviderInfo, len(s.providers))
	copy(out, s.providers)
	return out
}

// ListModels returns the options for one provider. Static entries come from
// the embedded catalog; dynamic providers are queried live, and an
// unreachable endpoint surfaces as an error the UI renders inline.
func (s *modelListService) ListModels(provider models.ProviderKind, query string) ([]models.LLMModel, error) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	switch provider {
	case models.ProviderGemini:
		s.mu.RLock()
		defer s.mu.RUnlock()
		out := make([]models.LLMModel, len(s.static[provider]))
		copy(out, s.static[provider])
		return out, nil
	case models.ProviderOllama:
		names, err := s.catalog.OllamaTags(ctx)
		if err != nil {
			return nil, err
		}
		return identifiersToModels(provider, names), nil
	case models.ProviderOpenRouter:
		ids, err := s.catalog.OpenRouterModels(ctx)
		if err != nil {
			return nil, err
		}
		return identifiersToModels(provider, filterIdentifiers(ids, query)), nil
	case models.ProviderHuggingFace:
		ids, err := s.catalog.HuggingFaceModels(ctx, query)
		if err != nil {
			return nil, err
		}
		return identifiersToModels(provider, ids), nil
	case models.ProviderLlamafile:
		// A llamafile serves exactly one model; there is nothing to list.
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// DiscoverLlamafiles walks root recursively for *.llamafile binaries. An
// empty root defaults to the user's home directory.
func (s *modelListService) DiscoverLlamafiles(root string) ([]string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		root = home
	}
	if !utils.DirectoryExists(root) {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	matches, err := filepathx.Glob(filepath.Join(root, "**", "*.llamafile"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func identifiersToModels(provider models.ProviderKind, ids []string) []models.LLMModel {
	out := make([]models.LLMModel, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.LLMModel{Name: id, DisplayName: id, Provider: provider})
	}
	return out
}

func filterIdentifiers(ids []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id), query) {
			out = append(out, id)
		}
	}
	return out
}
