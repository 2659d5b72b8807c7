package models

// GeneratedFile is one entry of the conceptual merged project. Paths are
// relative, forward-slash separated and non-empty; content is text and may
// be empty. Instances only ever come out of a validated model response.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// MergeRequest describes one merge action submitted from the UI. It is
// constructed from the form, consumed exactly once by the generation client
// and discarded after the response or error.
type MergeRequest struct {
	RepositoryURLs []string `json:"repositoryUrls"`
	TargetLanguage string   `json:"targetLanguage,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`

	// Settings is the configuration snapshot captured at submit time, so a
	// settings change mid-flight cannot affect an issued request.
	Settings Settings `json:"settings"`
}

// MergeResult is the validated structured response for one merge.
type MergeResult struct {
	Files   []GeneratedFile `json:"files"`
	Summary string          `json:"summary"`
}
