package models

import "time"

// MergeSession is the persisted record of one accepted merge, kept so the
// user can reopen past results. RepositoriesJSON and FilesJSON hold the
// request URLs and the generated files as JSON arrays.
type MergeSession struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RepositoriesJSON string    `gorm:"type:text;not null" json:"-"`
	TargetLanguage   string    `gorm:"size:128" json:"targetLanguage"`
	Instructions     string    `gorm:"type:text" json:"instructions"`
	Provider         string    `gorm:"size:64;not null;index" json:"provider"`
	ModelID          string    `gorm:"size:255" json:"modelId"`
	Summary          string    `gorm:"type:text" json:"summary"`
	FilesJSON        string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MergeSessionView is the UI-facing projection of a MergeSession with the
// JSON columns expanded.
type MergeSessionView struct {
	ID             uint            `json:"id"`
	Repositories   []string        `json:"repositories"`
	TargetLanguage string          `json:"targetLanguage"`
	Provider       string          `json:"provider"`
	ModelID        string          `json:"modelId"`
	Summary        string          `json:"summary"`
	Files          []GeneratedFile `json:"files"`
	CreatedAt      time.Time       `json:"createdAt"`
}
