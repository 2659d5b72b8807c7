// Package catalog lists the models each provider currently serves. Local
// providers are queried over their daemon APIs, hosted aggregators over their
// public catalog endpoints.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultOllamaBaseURL     = "http://localhost:11434"
	defaultOpenRouterBaseURL = "https://openrouter.ai"
	defaultHuggingFaceHubURL = "https://huggingface.co"

	hubSearchLimit = 50
)

// Options overrides the provider endpoints, mostly for tests and for users
// running a daemon on a non-default port.
type Options struct {
	OllamaBaseURL     string
	OpenRouterBaseURL string
	HuggingFaceHubURL string
	Logger            zerolog.Logger
}

type Catalog struct {
	client *http.Client
	opts   Options
	log    zerolog.Logger
}

func New(opts Options) *Catalog {
	if opts.OllamaBaseURL == "" {
		opts.OllamaBaseURL = defaultOllamaBaseURL
	}
	if opts.OpenRouterBaseURL == "" {
		opts.OpenRouterBaseURL = defaultOpenRouterBaseURL
	}
	if opts.HuggingFaceHubURL == "" {
		opts.HuggingFaceHubURL = defaultHuggingFaceHubURL
	}
	return &Catalog{
		client: &http.Client{Timeout: 15 * time.Second},
		opts:   opts,
		log:    opts.Logger,
	}
}

// OllamaTags returns the models the local Ollama daemon has pulled.
func (c *Catalog) OllamaTags(ctx context.Context) ([]string, error) {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, c.opts.OllamaBaseURL+"/api/tags", &data); err != nil {
		return nil, fmt.Errorf("ollama daemon not reachable at %s: %w", c.opts.OllamaBaseURL, err)
	}

	names := make([]string, 0, len(data.Models))
	for _, m := range data.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// OllamaAvailable reports whether the local daemon answers at all. Used for
// the settings screen, where an unreachable daemon is informational rather
// than an error.
func (c *Catalog) OllamaAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.OllamaBaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// OpenRouterModels returns the identifiers OpenRouter routes to, sorted.
func (c *Catalog) OpenRouterModels(ctx context.Context) ([]string, error) {
	var data struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.opts.OpenRouterBaseURL+"/api/v1/models", &data); err != nil {
		return nil, fmt.Errorf("openrouter catalog: %w", err)
	}

	ids := make([]string, 0, len(data.Data))
	for _, m := range data.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// HuggingFaceModels searches the hub for text-generation models matching the
// query. An empty query returns the most-downloaded entries.
func (c *Catalog) HuggingFaceModels(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("pipeline_tag", "text-generation")
	params.Set("sort", "downloads")
	params.Set("limit", fmt.Sprint(hubSearchLimit))
	if q := strings.TrimSpace(query); q != "" {
		params.Set("search", q)
	}

	var entries []struct {
		ID string `json:"id"`
	}
	endpoint := c.opts.HuggingFaceHubURL + "/api/models?" + params.Encode()
	if err := c.getJSON(ctx, endpoint, &entries); err != nil {
		return nil, fmt.Errorf("huggingface hub: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

func (c *Catalog) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("catalog request failed")
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
