package models

// LLMModel represents a single selectable model option exposed to the UI.
// Static catalog entries (gemini) carry a display name; entries discovered
// from a provider's list endpoint reuse the raw identifier for both fields.
type LLMModel struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Provider    ProviderKind `json:"provider"`
}

// ProviderInfo describes one provider group for the settings dropdowns.
type ProviderInfo struct {
	ID          ProviderKind `json:"id"`
	DisplayName string       `json:"displayName"`
	NeedsAPIKey bool         `json:"needsApiKey"`
	Local       bool         `json:"local"`
}
