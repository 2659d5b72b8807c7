package client

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// ChatModel is the narrow generation surface the structured client needs.
// Any cloudwego/eino chat model satisfies it.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

var (
	mergeSystemPrompt     string
	recommendSystemPrompt string
	mergeUserTmpl         *template.Template
	recommendUserTmpl     *template.Template
)

func init() {
	mergeSystemPrompt = mustPrompt("prompts/merge_system.txt")
	recommendSystemPrompt = mustPrompt("prompts/recommend_system.txt")
	mergeUserTmpl = template.Must(template.New("merge").Parse(mustPrompt("prompts/merge_user.txt")))
	recommendUserTmpl = template.Must(template.New("recommend").Parse(mustPrompt("prompts/recommend_user.txt")))
}

func mustPrompt(name string) string {
	data, err := embeddedPrompts.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded prompt %s: %v", name, err))
	}
	return string(data)
}

// Client issues exactly one structured generation call per logical user
// action and enforces the shape of the result: strict on structure, loose
// on content.
type Client struct {
	model ChatModel
	desc  models.ResolvedDescriptor
	log   zerolog.Logger
}

// New builds a client over a resolved chat model.
func New(cm ChatModel, desc models.ResolvedDescriptor, log zerolog.Logger) *Client {
	return &Client{model: cm, desc: desc, log: log}
}

// Descriptor returns the resolved identity this client executes against.
func (c *Client) Descriptor() models.ResolvedDescriptor {
	return c.desc
}

type mergePromptData struct {
	Repositories   []string
	TargetLanguage string
	Instructions   string
	RoleContext    []string
}

// GenerateMerge renders the merge request into one structured call and
// validates the response. Diagnostics report tolerated content
// imperfections (dropped entries, substituted summary); the error, when
// set, is either an upstream failure or a ProtocolError.
func (c *Client) GenerateMerge(ctx context.Context, req *models.MergeRequest) (*models.MergeResult, []string, error) {
	if req == nil || len(req.RepositoryURLs) == 0 {
		return nil, nil, fmt.Errorf("merge request needs at least one repository")
	}

	var prompt strings.Builder
	data := mergePromptData{
		Repositories:   req.RepositoryURLs,
		TargetLanguage: strings.TrimSpace(req.TargetLanguage),
		Instructions:   strings.TrimSpace(req.Instructions),
		RoleContext:    roleContext(req.Settings),
	}
	if err := mergeUserTmpl.Execute(&prompt, data); err != nil {
		return nil, nil, fmt.Errorf("render merge prompt: %w", err)
	}

	out, err := c.generate(ctx, mergeSystemPrompt, prompt.String())
	if err != nil {
		return nil, nil, err
	}

	result, diags, err := decodeMergeResult(out)
	for _, d := range diags {
		c.log.Warn().Str("model", c.desc.ModelID).Msg(d)
	}
	if err != nil {
		return nil, diags, err
	}
	return result, diags, nil
}

type recommendPromptData struct {
	PromptBased bool
	Description string
}

// GenerateRecommendations runs the recommendation path: exactly five
// {name, url, reason} entries or a hard error.
func (c *Client) GenerateRecommendations(ctx context.Context, mode models.RecommendationMode, description string) ([]models.RepoRecommendation, []string, error) {
	description = strings.TrimSpace(description)
	if mode == models.RecommendationPromptBased && description == "" {
		return nil, nil, fmt.Errorf("prompt-based recommendations need a project description")
	}

	var prompt strings.Builder
	data := recommendPromptData{
		PromptBased: mode == models.RecommendationPromptBased,
		Description: description,
	}
	if err := recommendUserTmpl.Execute(&prompt, data); err != nil {
		return nil, nil, fmt.Errorf("render recommendation prompt: %w", err)
	}

	out, err := c.generate(ctx, recommendSystemPrompt, prompt.String())
	if err != nil {
		return nil, nil, err
	}

	recs, diags, err := decodeRecommendations(out)
	for _, d := range diags {
		c.log.Warn().Str("model", c.desc.ModelID).Msg(d)
	}
	if err != nil {
		return nil, diags, err
	}
	return recs, diags, nil
}

func (c *Client) generate(ctx context.Context, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	out, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", protocolErr(KindEmptyResponse, "backend returned no output")
	}
	return out.Content, nil
}

// roleContext renders which provider/model was requested per role as plain
// text handed to the model. It states whether a key was supplied, never the
// key itself, and does not change which backend executes the call.
func roleContext(st models.Settings) []string {
	lines := make([]string, 0, 3)
	for _, role := range []models.TaskRole{models.RoleMain, models.RoleReasoning, models.RoleCoding} {
		sel := st.SelectionFor(role)
		line := fmt.Sprintf("- %s: provider %s", role, sel.Provider)
		if name := strings.TrimSpace(sel.ModelName); name != "" {
			line += fmt.Sprintf(", model %s", name)
		}
		if sel.Provider == models.ProviderLlamafile {
			if p := strings.TrimSpace(sel.LocalEndpointPath); p != "" {
				line += fmt.Sprintf(", local file %s", p)
			}
		}
		if strings.TrimSpace(sel.APIKey) != "" {
			line += " (API key supplied)"
		}
		if st.EffectiveRole(role) != role {
			line += " (using main configuration)"
		}
		lines = append(lines, line)
	}
	return lines
}
