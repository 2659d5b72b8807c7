package client

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

// placeholderSummary is substituted when the model supplies files but leaves
// the summary blank; a degraded summary is tolerated, a degraded shape is not.
const placeholderSummary = "The model returned the merged project files but no summary."

var githubRepoPattern = regexp.MustCompile(`^https?://github\.com/[^/\s]+/[^/\s]+/?$`)

// extractJSON pulls the JSON payload out of raw model output, tolerating a
// markdown code fence and prose around the payload.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	// Backticks are legal inside JSON strings, so an already-parseable
	// payload must never go through fence stripping: a merged README with a
	// fenced build snippet would be truncated at the inner fence.
	if json.Valid([]byte(s)) {
		return s
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		// The payload itself may carry fenced blocks; the closing fence is
		// the last run, not the next one.
		if j := strings.LastIndex(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

type rawMergePayload struct {
	Files   json.RawMessage `json:"files"`
	Summary json.RawMessage `json:"summary"`
}

type rawFileEntry struct {
	Path    json.RawMessage `json:"path"`
	Content json.RawMessage `json:"content"`
}

// decodeMergeResult enforces the merge schema: shape violations are hard
// errors, individually bad file entries are dropped and reported through
// diags (drop-and-continue), and a blank summary degrades to a placeholder
// unless the file list is empty too.
func decodeMergeResult(raw string) (*models.MergeResult, []string, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, nil, protocolErr(KindEmptyResponse, "backend returned no output object")
	}

	var top rawMergePayload
	if err := json.Unmarshal([]byte(payload), &top); err != nil {
		return nil, nil, protocolErr(KindInvalidShape, "output is not a JSON object: %v", err)
	}

	var diags []string
	files := make([]models.GeneratedFile, 0)

	if len(top.Files) > 0 && !isJSONNull(top.Files) {
		var entries []json.RawMessage
		if err := json.Unmarshal(top.Files, &entries); err != nil {
			return nil, nil, protocolErr(KindInvalidShape, "files is not a list")
		}
		for i, entry := range entries {
			file, reason := decodeFileEntry(entry)
			if reason != "" {
				diags = append(diags, fmt.Sprintf("dropped file entry %d: %s", i, reason))
				continue
			}
			files = append(files, file)
		}
	}

	summary := ""
	if len(top.Summary) > 0 && !isJSONNull(top.Summary) {
		if err := json.Unmarshal(top.Summary, &summary); err != nil {
			diags = append(diags, "summary was not a string, treated as blank")
			summary = ""
		}
	}
	summary = strings.TrimSpace(summary)

	if summary == "" && len(files) == 0 {
		return nil, diags, protocolErr(KindEmptySummaryAndNoFiles, "summary blank and file list empty")
	}
	if summary == "" {
		diags = append(diags, "summary blank, placeholder substituted")
		summary = placeholderSummary
	}

	return &models.MergeResult{Files: files, Summary: summary}, diags, nil
}

func decodeFileEntry(entry json.RawMessage) (models.GeneratedFile, string) {
	var fe rawFileEntry
	if err := json.Unmarshal(entry, &fe); err != nil {
		return models.GeneratedFile{}, "entry is not an object"
	}

	var path string
	if len(fe.Path) == 0 || json.Unmarshal(fe.Path, &path) != nil {
		return models.GeneratedFile{}, "path is not a string"
	}
	if strings.TrimSpace(path) == "" {
		return models.GeneratedFile{}, "path is empty"
	}

	var content string
	if len(fe.Content) == 0 || json.Unmarshal(fe.Content, &content) != nil {
		return models.GeneratedFile{}, "content is not a string"
	}

	return models.GeneratedFile{Path: path, Content: content}, ""
}

type rawRecommendation struct {
	Name   json.RawMessage `json:"name"`
	URL    json.RawMessage `json:"url"`
	Reason json.RawMessage `json:"reason"`
}

// decodeRecommendations enforces the recommendation schema: exactly five
// entries, every field a non-empty string, every URL an HTTP(S) one. A URL
// that is valid but does not look like a github.com repository is accepted
// with a non-fatal diagnostic.
func decodeRecommendations(raw string) ([]models.RepoRecommendation, []string, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, nil, protocolErr(KindEmptyResponse, "backend returned no output object")
	}

	entries, err := recommendationEntries(payload)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) != models.RecommendationCount {
		return nil, nil, protocolErr(KindWrongCount, "expected %d recommendations, got %d", models.RecommendationCount, len(entries))
	}

	var diags []string
	out := make([]models.RepoRecommendation, 0, len(entries))
	for i, entry := range entries {
		var rr rawRecommendation
		if err := json.Unmarshal(entry, &rr); err != nil {
			return nil, nil, protocolErr(KindInvalidEntry, "entry %d is not an object", i)
		}

		rec := models.RepoRecommendation{}
		for _, field := range []struct {
			name string
			raw  json.RawMessage
			dst  *string
		}{
			{"name", rr.Name, &rec.Name},
			{"url", rr.URL, &rec.URL},
			{"reason", rr.Reason, &rec.Reason},
		} {
			if len(field.raw) == 0 || json.Unmarshal(field.raw, field.dst) != nil {
				return nil, nil, protocolErr(KindInvalidEntry, "entry %d: %s is not a string", i, field.name)
			}
			if strings.TrimSpace(*field.dst) == "" {
				return nil, nil, protocolErr(KindInvalidEntry, "entry %d: %s is empty", i, field.name)
			}
		}

		if !strings.HasPrefix(rec.URL, "http://") && !strings.HasPrefix(rec.URL, "https://") {
			return nil, nil, protocolErr(KindInvalidEntry, "entry %d: url %q is not HTTP(S)", i, rec.URL)
		}
		if !githubRepoPattern.MatchString(rec.URL) {
			diags = append(diags, fmt.Sprintf("entry %d: url %q does not look like a github.com repository", i, rec.URL))
		}
		out = append(out, rec)
	}
	return out, diags, nil
}

// recommendationEntries accepts either a bare JSON array or an object with a
// "recommendations" list; models alternate between the two.
func recommendationEntries(payload string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "[") {
		var entries []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, protocolErr(KindInvalidShape, "recommendations is not a list")
		}
		return entries, nil
	}

	var top struct {
		Recommendations json.RawMessage `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
		return nil, protocolErr(KindInvalidShape, "output is not a JSON object: %v", err)
	}
	if len(top.Recommendations) == 0 || isJSONNull(top.Recommendations) {
		return nil, protocolErr(KindInvalidShape, "recommendations list missing")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(top.Recommendations, &entries); err != nil {
		return nil, protocolErr(KindInvalidShape, "recommendations is not a list")
	}
	return entries, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
