package models

// RecommendationMode selects how repository recommendations are produced.
type RecommendationMode string

const (
	RecommendationGeneral     RecommendationMode = "general"
	RecommendationPromptBased RecommendationMode = "promptBased"
)

// RepoRecommendation is one suggested repository. URL must carry an HTTP(S)
// scheme; a non-github.com shape is accepted but flagged.
type RepoRecommendation struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// RecommendationCount is the exact number of entries a recommendation
// response must contain; any other count is a hard failure.
const RecommendationCount = 5
