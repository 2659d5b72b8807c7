package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// mockChatModel returns a canned response, standing in for the backend.
type mockChatModel struct {
	response string
	err      error
	calls    int
	lastMsgs []*schema.Message
}

func (m *mockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	m.lastMsgs = input
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.response}, nil
}

func testClient(response string) (*Client, *mockChatModel) {
	mock := &mockChatModel{response: response}
	desc := models.ResolvedDescriptor{
		Provider: models.ProviderGemini,
		ModelID:  "googleai/gemini-2.5-flash",
	}
	return New(mock, desc, zerolog.Nop()), mock
}

func mergeRequest() *models.MergeRequest {
	return &models.MergeRequest{
		RepositoryURLs: []string{"https://github.com/a/b", "https://github.com/c/d"},
		TargetLanguage: "TypeScript",
		Settings:       models.DefaultSettings(),
	}
}

func TestGenerateMergeAcceptsValidResponse(t *testing.T) {
	c, mock := testClient(`{"files":[{"path":"main.ts","content":"export {}"}],"summary":"merged"}`)

	result, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected exactly one generation call, got %d", mock.calls)
	}
	if len(result.Files) != 1 || result.Files[0].Path != "main.ts" {
		t.Fatalf("unexpected files: %+v", result.Files)
	}
	if result.Summary != "merged" {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
}

func TestGenerateMergeToleratesFencedPayload(t *testing.T) {
	c, _ := testClient("Here you go:\n```json\n{\"files\":[],\"summary\":\"compact merge\"}\n```")

	result, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != "compact merge" {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
}

func TestGenerateMergeEmptyOutputIsEmptyResponse(t *testing.T) {
	c, _ := testClient("   ")

	_, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if KindOf(err) != KindEmptyResponse {
		t.Fatalf("expected EmptyResponse, got %v", err)
	}
}

func TestGenerateMergeFilesNotAListIsInvalidShape(t *testing.T) {
	c, _ := testClient(`{"files":"nope","summary":"s"}`)

	_, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if KindOf(err) != KindInvalidShape {
		t.Fatalf("expected InvalidShape, got %v", err)
	}
}

func TestGenerateMergeBlankEverythingIsHardFailure(t *testing.T) {
	c, _ := testClient(`{"files":[],"summary":""}`)

	_, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if KindOf(err) != KindEmptySummaryAndNoFiles {
		t.Fatalf("expected EmptySummaryAndNoFiles, got %v", err)
	}
}

func TestGenerateMergeBlankSummaryWithFilesGetsPlaceholder(t *testing.T) {
	c, _ := testClient(`{"files":[{"path":"a.txt","content":""}],"summary":""}`)

	result, diags, err := c.GenerateMerge(t.Context(), mergeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary == "" {
		t.Fatal("expected a placeholder summary")
	}
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic about the substituted summary")
	}
}

func TestGenerateMergeDropsBadEntriesKeepsRest(t *testing.T) {
	c, _ := testClient(`{"files":[
		{"path":"one.go","content":"1"},
		{"path":"two.go","content":"2"},
		{"path":"","content":"bad"},
		{"path":"three.go","content":"3"}
	],"summary":"ok"}`)

	result, diags, err := c.GenerateMerge(t.Context(), mergeRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Files) != 3 {
		t.Fatalf("expected 3 surviving files, got %d", len(result.Files))
	}
	for i, want := range []string{"one.go", "two.go", "three.go"} {
		if result.Files[i].Path != want {
			t.Fatalf("order not preserved at %d: got %q want %q", i, result.Files[i].Path, want)
		}
	}
	if len(diags) != 1 {
		t.Fatalf("expected one drop diagnostic, got %v", diags)
	}
}

func TestGenerateMergeUpstreamErrorPropagates(t *testing.T) {
	mock := &mockChatModel{err: errors.New("429 rate limited")}
	c := New(mock, models.ResolvedDescriptor{Provider: models.ProviderOpenRouter}, zerolog.Nop())

	_, _, err := c.GenerateMerge(t.Context(), mergeRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != "" {
		t.Fatalf("upstream failure must not be a protocol error: %v", err)
	}
	if !IsTransient(err) {
		t.Fatalf("rate limiting should classify as transient: %v", err)
	}
}

func TestGenerateMergePromptIncludesRepositoriesNotKeys(t *testing.T) {
	c, mock := testClient(`{"files":[],"summary":"s"}`)
	req := mergeRequest()
	req.Settings.APIKeys[models.ProviderGemini] = "super-secret-key"

	if _, _, err := c.GenerateMerge(t.Context(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := mock.lastMsgs[len(mock.lastMsgs)-1].Content
	for _, repo := range req.RepositoryURLs {
		if !strings.Contains(user, repo) {
			t.Fatalf("prompt missing repository %s", repo)
		}
	}
	if !strings.Contains(user, "TypeScript") {
		t.Fatal("prompt missing target language")
	}
	if strings.Contains(user, "super-secret-key") {
		t.Fatal("prompt must never contain a credential")
	}
	if !strings.Contains(user, "API key supplied") {
		t.Fatal("prompt should note that a key was supplied")
	}
}

func TestGenerateRecommendationsExactCount(t *testing.T) {
	c, _ := testClient(`{"recommendations":[
		{"name":"a","url":"https://github.com/x/a","reason":"r"},
		{"name":"b","url":"https://github.com/x/b","reason":"r"},
		{"name":"c","url":"https://github.com/x/c","reason":"r"},
		{"name":"d","url":"https://github.com/x/d","reason":"r"},
		{"name":"e","url":"https://github.com/x/e","reason":"r"}
	]}`)

	recs, diags, err := c.GenerateRecommendations(t.Context(), models.RecommendationGeneral, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != models.RecommendationCount {
		t.Fatalf("expected %d entries, got %d", models.RecommendationCount, len(recs))
	}
	if len(diags) != 0 {
		t.Fatalf("canonical github urls should produce no diagnostics: %v", diags)
	}
}

func TestGenerateRecommendationsWrongCountRejected(t *testing.T) {
	c, _ := testClient(`{"recommendations":[
		{"name":"a","url":"https://github.com/x/a","reason":"r"},
		{"name":"b","url":"https://github.com/x/b","reason":"r"},
		{"name":"c","url":"https://github.com/x/c","reason":"r"},
		{"name":"d","url":"https://github.com/x/d","reason":"r"}
	]}`)

	_, _, err := c.GenerateRecommendations(t.Context(), models.RecommendationGeneral, "")
	if KindOf(err) != KindWrongCount {
		t.Fatalf("expected WrongCount, got %v", err)
	}
}

func TestGenerateRecommendationsRejectsNonHTTPScheme(t *testing.T) {
	c, _ := testClient(`{"recommendations":[
		{"name":"a","url":"ftp://example.com/x","reason":"r"},
		{"name":"b","url":"https://github.com/x/b","reason":"r"},
		{"name":"c","url":"https://github.com/x/c","reason":"r"},
		{"name":"d","url":"https://github.com/x/d","reason":"r"},
		{"name":"e","url":"https://github.com/x/e","reason":"r"}
	]}`)

	_, _, err := c.GenerateRecommendations(t.Context(), models.RecommendationGeneral, "")
	if KindOf(err) != KindInvalidEntry {
		t.Fatalf("expected InvalidEntry, got %v", err)
	}
}

func TestGenerateRecommendationsFlagsNonGithubURL(t *testing.T) {
	c, _ := testClient(`{"recommendations":[
		{"name":"a","url":"https://gitlab.com/x/a","reason":"r"},
		{"name":"b","url":"https://github.com/x/b","reason":"r"},
		{"name":"c","url":"https://github.com/x/c","reason":"r"},
		{"name":"d","url":"https://github.com/x/d","reason":"r"},
		{"name":"e","url":"https://github.com/x/e","reason":"r"}
	]}`)

	recs, diags, err := c.GenerateRecommendations(t.Context(), models.RecommendationGeneral, "")
	if err != nil {
		t.Fatalf("loose url validation must accept alternate hosting: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(recs))
	}
	if len(diags) != 1 {
		t.Fatalf("expected one non-fatal diagnostic, got %v", diags)
	}
}

func TestGenerateRecommendationsPromptBasedNeedsDescription(t *testing.T) {
	c, mock := testClient(`{}`)

	_, _, err := c.GenerateRecommendations(t.Context(), models.RecommendationPromptBased, "  ")
	if err == nil {
		t.Fatal("expected an error for a missing description")
	}
	if mock.calls != 0 {
		t.Fatal("no call should be issued without a description")
	}
}
