package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

const (
	defaultOllamaBaseURL      = "http://localhost:11434/v1"
	defaultOpenRouterBaseURL  = "https://openrouter.ai/api/v1"
	defaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"
	defaultLlamafileBaseURL   = "http://localhost:8080/v1"

	// llamafile servers accept any model string; this placeholder rides the
	// wire while the descriptor itself carries no model id override.
	llamafileWireModel = "LLaMA_CPP"
)

// Options configures a Resolver. Zero-value fields fall back to defaults.
type Options struct {
	DefaultGeminiModel string
	OllamaBaseURL      string
	OpenRouterBaseURL  string
	HuggingFaceBaseURL string
	LlamafileBaseURL   string
	Logger             zerolog.Logger
}

// Resolver translates a ModelSelection for a task role into a concrete
// request configuration. It never fails a request on its own: the worst
// outcome is a logged fallback to the shared default backend, so model
// misconfiguration surfaces later as a generation failure.
type Resolver struct {
	shared *genai.Client
	opts   Options
	log    zerolog.Logger
}

// Resolution pairs the resolved descriptor with the chat model that will
// execute the request. Diagnostics carry non-fatal notes about out-of-band
// requirements (running daemon, configured key) for the UI.
type Resolution struct {
	Descriptor  models.ResolvedDescriptor
	ChatModel   model.BaseChatModel
	Diagnostics []string
}

// New returns a Resolver over the shared default Gemini client. The shared
// client may be nil when no default key is configured; gemini resolutions
// then fail at generation time, matching the best-effort contract.
func New(shared *genai.Client, opts Options) *Resolver {
	if opts.DefaultGeminiModel == "" {
		opts.DefaultGeminiModel = "gemini-2.5-flash"
	}
	if opts.OllamaBaseURL == "" {
		opts.OllamaBaseURL = defaultOllamaBaseURL
	}
	if opts.OpenRouterBaseURL == "" {
		opts.OpenRouterBaseURL = defaultOpenRouterBaseURL
	}
	if opts.HuggingFaceBaseURL == "" {
		opts.HuggingFaceBaseURL = defaultHuggingFaceBaseURL
	}
	if opts.LlamafileBaseURL == "" {
		opts.LlamafileBaseURL = defaultLlamafileBaseURL
	}
	return &Resolver{shared: shared, opts: opts, log: opts.Logger}
}

// StripModelTag removes a ":tag" suffix from a local model name. The local
// inference runtime indexes models by base name only, so "llama3:latest"
// must resolve as "llama3".
func StripModelTag(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i]
	}
	return name
}

// Describe computes the descriptor for a selection without constructing any
// backend instance. It is pure: identical selections yield identical
// descriptors. The reported Ephemeral flag is the intent; actual ephemeral
// construction can still degrade to the shared instance at Resolve time.
func Describe(sel models.ModelSelection, defaultGeminiModel string) (models.ResolvedDescriptor, []string) {
	var diags []string
	desc := models.ResolvedDescriptor{Provider: sel.Provider}

	switch sel.Provider {
	case models.ProviderGemini:
		name := strings.TrimSpace(sel.ModelName)
		if name == "" {
			name = defaultGeminiModel
		}
		desc.ModelID = models.NamespacedModelID(models.ProviderGemini, name)
		if strings.TrimSpace(sel.APIKey) != "" && strings.TrimSpace(sel.ModelName) != "" {
			desc.Ephemeral = true
		}
	case models.ProviderOllama:
		base := StripModelTag(sel.ModelName)
		desc.ModelID = models.NamespacedModelID(models.ProviderOllama, base)
		diags = append(diags, "ollama: a running local daemon with the model pulled is assumed to exist")
	case models.ProviderOpenRouter:
		desc.ModelID = models.NamespacedModelID(models.ProviderOpenRouter, sel.ModelName)
		if strings.TrimSpace(sel.APIKey) == "" {
			diags = append(diags, "openrouter: no API key supplied; requests rely on out-of-band key configuration")
		}
	case models.ProviderHuggingFace:
		desc.ModelID = models.NamespacedModelID(models.ProviderHuggingFace, sel.ModelName)
		if strings.TrimSpace(sel.APIKey) == "" {
			diags = append(diags, "huggingface: no API key supplied; requests rely on out-of-band key configuration")
		}
	case models.ProviderLlamafile:
		// Deliberately no model id override: the plugin default governs.
		if p := strings.TrimSpace(sel.LocalEndpointPath); p != "" {
			diags = append(diags, fmt.Sprintf("llamafile: path %q is informational context only", p))
		}
	}
	return desc, diags
}

// ResolveRole resolves the effective selection for a role, honoring the
// reasoning/coding fallback to main.
func (r *Resolver) ResolveRole(ctx context.Context, st models.Settings, role models.TaskRole) (*Resolution, error) {
	return r.Resolve(ctx, st.SelectionFor(role))
}

// Resolve builds the descriptor and the chat model for one selection.
func (r *Resolver) Resolve(ctx context.Context, sel models.ModelSelection) (*Resolution, error) {
	desc, diags := Describe(sel, r.opts.DefaultGeminiModel)
	res := &Resolution{Descriptor: desc, Diagnostics: diags}

	switch sel.Provider {
	case models.ProviderGemini:
		return r.resolveGemini(ctx, sel, res)
	case models.ProviderOllama:
		return r.resolveOpenAICompatible(ctx, res, r.opts.OllamaBaseURL, "ollama", models.BareModelName(desc.ModelID))
	case models.ProviderOpenRouter:
		return r.resolveOpenAICompatible(ctx, res, r.opts.OpenRouterBaseURL, sel.APIKey, models.BareModelName(desc.ModelID))
	case models.ProviderHuggingFace:
		return r.resolveOpenAICompatible(ctx, res, r.opts.HuggingFaceBaseURL, sel.APIKey, models.BareModelName(desc.ModelID))
	case models.ProviderLlamafile:
		return r.resolveOpenAICompatible(ctx, res, r.opts.LlamafileBaseURL, "llamafile", llamafileWireModel)
	default:
		// Unknown provider degrades to the shared default instance.
		r.log.Warn().Str("provider", string(sel.Provider)).Msg("unknown provider, falling back to shared default")
		res.Descriptor = models.ResolvedDescriptor{
			Provider: models.ProviderGemini,
			ModelID:  models.NamespacedModelID(models.ProviderGemini, r.opts.DefaultGeminiModel),
		}
		return r.sharedGemini(ctx, res, r.opts.DefaultGeminiModel)
	}
}

func (r *Resolver) resolveGemini(ctx context.Context, sel models.ModelSelection, res *Resolution) (*Resolution, error) {
	name := models.BareModelName(res.Descriptor.ModelID)

	if res.Descriptor.Ephemeral {
		// A user key plus an explicit model means a request-scoped instance
		// carrying that key. Construction failure degrades to the shared
		// instance with the same model id; it never aborts the request.
		ephemeral, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  sel.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err == nil {
			cm, cmErr := gemini.NewChatModel(ctx, &gemini.Config{Client: ephemeral, Model: name})
			if cmErr == nil {
				res.ChatModel = cm
				return res, nil
			}
			err = cmErr
		}
		r.log.Warn().Err(err).Msg("ephemeral gemini instance construction failed, falling back to shared instance")
		res.Diagnostics = append(res.Diagnostics, "gemini: per-request instance unavailable, using shared instance")
		res.Descriptor.Ephemeral = false
	}

	return r.sharedGemini(ctx, res, name)
}

func (r *Resolver) sharedGemini(ctx context.Context, res *Resolution, name string) (*Resolution, error) {
	if r.shared == nil {
		return nil, fmt.Errorf("no shared gemini backend configured (set GEMINI_API_KEY)")
	}
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{Client: r.shared, Model: name})
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	res.ChatModel = cm
	return res, nil
}

func (r *Resolver) resolveOpenAICompatible(ctx context.Context, res *Resolution, baseURL, apiKey, wireModel string) (*Resolution, error) {
	if strings.TrimSpace(apiKey) == "" {
		// The OpenAI-compatible client refuses an empty key even for
		// endpoints that ignore authentication.
		apiKey = "unset"
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   wireModel,
	})
	if err != nil {
		// Construction failure degrades to the shared default instance
		// rather than aborting; the mismatch surfaces at generation time.
		r.log.Warn().Err(err).Str("provider", string(res.Descriptor.Provider)).
			Msg("chat model construction failed, falling back to shared default")
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("%s: backend unavailable, using shared default instance", res.Descriptor.Provider))
		res.Descriptor = models.ResolvedDescriptor{
			Provider: models.ProviderGemini,
			ModelID:  models.NamespacedModelID(models.ProviderGemini, r.opts.DefaultGeminiModel),
		}
		return r.sharedGemini(ctx, res, r.opts.DefaultGeminiModel)
	}
	res.ChatModel = cm
	return res, nil
}
