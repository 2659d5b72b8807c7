package models

import "strings"

// Settings is the flat per-session configuration record read by the UI and
// captured as a snapshot by every request-issuing operation. API keys held
// here live for the session only; durable storage goes through the keyring.
type Settings struct {
	Main      ModelSelection `json:"main"`
	Reasoning ModelSelection `json:"reasoning"`
	Coding    ModelSelection `json:"coding"`

	UseCustomReasoningModel bool `json:"useCustomReasoningModel"`
	UseCustomCodingModel    bool `json:"useCustomCodingModel"`

	// APIKeys maps a provider to its per-session key. A key on the role's
	// ModelSelection takes precedence over the provider-level entry.
	APIKeys map[ProviderKind]string `json:"apiKeys,omitempty"`

	// LlamafilePath is the local model file path shown to the model as
	// context. It is never opened or executed.
	LlamafilePath string `json:"llamafilePath,omitempty"`
}

// DefaultSettings returns the configuration a fresh session starts with.
func DefaultSettings() Settings {
	return Settings{
		Main: ModelSelection{
			Provider:  ProviderGemini,
			ModelName: "gemini-2.5-flash",
		},
		Reasoning: ModelSelection{
			Provider:  ProviderGemini,
			ModelName: "gemini-2.5-pro",
		},
		Coding: ModelSelection{
			Provider:  ProviderGemini,
			ModelName: "gemini-2.5-pro",
		},
		APIKeys: map[ProviderKind]string{},
	}
}

// Clone returns a deep copy; the API key map is the only reference field.
func (s Settings) Clone() Settings {
	out := s
	out.APIKeys = make(map[ProviderKind]string, len(s.APIKeys))
	for k, v := range s.APIKeys {
		out.APIKeys[k] = v
	}
	return out
}

// EffectiveRole maps a requested role to the role whose configuration
// actually applies: reasoning and coding fall back to main unless their
// custom-model flag is set.
func (s Settings) EffectiveRole(role TaskRole) TaskRole {
	switch role {
	case RoleReasoning:
		if !s.UseCustomReasoningModel {
			return RoleMain
		}
	case RoleCoding:
		if !s.UseCustomCodingModel {
			return RoleMain
		}
	}
	return role
}

// SelectionFor returns the effective ModelSelection for a role, with the
// provider-level API key folded in when the selection carries none, plus the
// llamafile path for the local-file provider.
func (s Settings) SelectionFor(role TaskRole) ModelSelection {
	var sel ModelSelection
	switch s.EffectiveRole(role) {
	case RoleReasoning:
		sel = s.Reasoning
	case RoleCoding:
		sel = s.Coding
	default:
		sel = s.Main
	}
	if strings.TrimSpace(sel.APIKey) == "" && s.APIKeys != nil {
		sel.APIKey = s.APIKeys[sel.Provider]
	}
	if sel.Provider == ProviderLlamafile && strings.TrimSpace(sel.LocalEndpointPath) == "" {
		sel.LocalEndpointPath = s.LlamafilePath
	}
	return sel
}
