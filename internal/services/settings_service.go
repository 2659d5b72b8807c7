package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// SettingsService holds the current provider/model configuration. The store
// is snapshot-based: Get returns a copy, Update validates and swaps the whole
// snapshot, so a merge running against an older snapshot is never affected by
// a concurrent edit.
type SettingsService interface {
	Startup(ctx context.Context)
	Get() models.Settings
	Update(next models.Settings) (models.Settings, error)
	Reset() models.Settings
}

type settingsService struct {
	mu      sync.RWMutex
	current models.Settings
	keyring *KeyringService
	log     zerolog.Logger
	ctx     context.Context
}

func NewSettingsService(keyring *KeyringService, log zerolog.Logger) SettingsService {
	snapshot := models.DefaultSettings()
	if keyring != nil {
		keyring.ApplyTo(&snapshot)
	}
	return &settingsService{current: snapshot, keyring: keyring, log: log}
}

func (s *settingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

func (s *settingsService) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

func (s *settingsService) Update(next models.Settings) (models.Settings, error) {
	if err := validateSettings(&next); err != nil {
		return models.Settings{}, err
	}

	if s.keyring != nil {
		s.persistKeys(next.APIKeys)
	}

	s.mu.Lock()
	s.current = next.Clone()
	s.mu.Unlock()

	s.log.Info().
		Str("mainProvider", string(next.Main.Provider)).
		Str("mainModel", next.Main.ModelName).
		Bool("customReasoning", next.UseCustomReasoningModel).
		Bool("customCoding", next.UseCustomCodingModel).
		Msg("settings updated")

	return s.Get(), nil
}

func (s *settingsService) Reset() models.Settings {
	snapshot := models.DefaultSettings()
	if s.keyring != nil {
		s.keyring.ApplyTo(&snapshot)
	}
	s.mu.Lock()
	s.current = snapshot.Clone()
	s.mu.Unlock()
	return s.Get()
}

// persistKeys mirrors the key map into the OS keychain: fresh keys are
// stored, blanked keys are removed so ApplyTo cannot resurrect them on the
// next start. Failures are logged but never block the settings update: the
// in-memory snapshot still carries the key for this session.
func (s *settingsService) persistKeys(keys map[models.ProviderKind]string) {
	for provider, key := range keys {
		if strings.TrimSpace(key) == "" {
			if err := s.keyring.DeleteApiKey(string(provider)); err != nil {
				s.log.Warn().Err(err).Str("provider", string(provider)).Msg("could not remove cleared API key from keychain")
			}
			continue
		}
		if stored, err := s.keyring.GetApiKey(string(provider)); err == nil && stored == key {
			continue
		}
		if err := s.keyring.StoreApiKey(string(provider), []byte(key)); err != nil {
			s.log.Warn().Err(err).Str("provider", string(provider)).Msg("could not persist API key to keychain")
		}
	}
}

func validateSettings(next *models.Settings) error {
	for _, role := range []struct {
		name string
		sel  *models.ModelSelection
	}{
		{"main", &next.Main},
		{"reasoning", &next.Reasoning},
		{"coding", &next.Coding},
	} {
		sel := role.sel
		sel.ModelName = strings.TrimSpace(sel.ModelName)
		sel.APIKey = strings.TrimSpace(sel.APIKey)
		if sel.Provider == "" {
			sel.Provider = models.ProviderGemini
		}
		if !sel.Provider.Valid() {
			return fmt.Errorf("%s: unknown provider %q", role.name, sel.Provider)
		}
	}

	for provider := range next.APIKeys {
		if !provider.Valid() {
			return fmt.Errorf("api key for unknown provider %q", provider)
		}
	}

	next.LlamafilePath = strings.TrimSpace(next.LlamafilePath)
	return nil
}
