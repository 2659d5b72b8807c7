package models

import "strings"

// ProviderKind identifies an LLM backend family.
type ProviderKind string

const (
	ProviderGemini      ProviderKind = "gemini"
	ProviderOpenRouter  ProviderKind = "openrouter"
	ProviderHuggingFace ProviderKind = "huggingface"
	ProviderLlamafile   ProviderKind = "llamafile"
	ProviderOllama      ProviderKind = "ollama"
)

// ProviderKinds lists every recognized provider in presentation order.
func ProviderKinds() []ProviderKind {
	return []ProviderKind{
		ProviderGemini,
		ProviderOpenRouter,
		ProviderHuggingFace,
		ProviderLlamafile,
		ProviderOllama,
	}
}

// Valid reports whether p is one of the recognized provider kinds.
func (p ProviderKind) Valid() bool {
	switch p {
	case ProviderGemini, ProviderOpenRouter, ProviderHuggingFace, ProviderLlamafile, ProviderOllama:
		return true
	}
	return false
}

// TaskRole is one of the three task purposes a request can be routed for.
type TaskRole string

const (
	RoleMain      TaskRole = "main"
	RoleReasoning TaskRole = "reasoning"
	RoleCoding    TaskRole = "coding"
)

// ModelSelection is the user's abstract model choice for one role.
// ModelName semantics depend on the provider: a tag-qualified local name for
// ollama, a slash-qualified identifier for openrouter/huggingface, a plain
// model id for gemini. LocalEndpointPath is only meaningful for llamafile and
// is informational context, never opened from this code path.
type ModelSelection struct {
	Provider          ProviderKind `json:"provider"`
	ModelName         string       `json:"modelName"`
	LocalEndpointPath string       `json:"localEndpointPath,omitempty"`
	APIKey            string       `json:"apiKey,omitempty"`
}

// ResolvedDescriptor is the concrete model identity produced by the resolver.
// ModelID is provider-namespaced (e.g. "ollama/llama3") and is empty for the
// llamafile provider, which relies on out-of-band plugin defaults. The
// per-request credential, when one exists, deliberately lives outside this
// struct so a serialized or logged descriptor can never leak it.
type ResolvedDescriptor struct {
	Provider  ProviderKind `json:"provider"`
	ModelID   string       `json:"modelId,omitempty"`
	Ephemeral bool         `json:"ephemeral"`
}

// NamespacedModelID joins a provider namespace and a bare model name.
func NamespacedModelID(p ProviderKind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	switch p {
	case ProviderGemini:
		return "googleai/" + name
	default:
		return string(p) + "/" + name
	}
}

// BareModelName strips the provider namespace prefix from a descriptor id.
func BareModelName(id string) string {
	if i := strings.Index(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
