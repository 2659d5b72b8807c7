package services

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/DickShmiggleTM/RepoFusion/internal/repositories"
)

// DbServices aggregates the domain services backed by the database. The raw
// session repository is exposed too, for services that persist directly.
type DbServices struct {
	MergeSessionRepo repositories.MergeSessionRepository
	MergeSessions    MergeSessionService
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB, log zerolog.Logger) *DbServices {
	sessionRepo := repositories.NewMergeSessionRepository(db)

	return &DbServices{
		MergeSessionRepo: sessionRepo,
		MergeSessions:    NewMergeSessionService(sessionRepo, log.With().Str("component", "history").Logger()),
	}
}
