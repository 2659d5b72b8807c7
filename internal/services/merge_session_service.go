package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
	"github.com/DickShmiggleTM/RepoFusion/internal/repositories"
)

type MergeSessionService interface {
	Startup(ctx context.Context)
	List(limit, offset int) ([]models.MergeSessionView, error)
	GetByID(id uint) (*models.MergeSessionView, error)
	DeleteByID(id uint) error
	DeleteAll() error
}

type mergeSessionService struct {
	repo repositories.MergeSessionRepository
	log  zerolog.Logger
	ctx  context.Context
}

func NewMergeSessionService(repo repositories.MergeSessionRepository, log zerolog.Logger) MergeSessionService {
	return &mergeSessionService{repo: repo, log: log}
}

func (s *mergeSessionService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// List returns history entries newest first, with the file contents omitted;
// the UI fetches a full session through GetByID when one is opened.
func (s *mergeSessionService) List(limit, offset int) ([]models.MergeSessionView, error) {
	sessions, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]models.MergeSessionView, 0, len(sessions))
	for _, session := range sessions {
		view, err := expandSession(&session, false)
		if err != nil {
			// One damaged row must not hide the rest of the history.
			s.log.Warn().Err(err).Uint("session_id", session.ID).Msg("skipping corrupt history entry")
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *mergeSessionService) GetByID(id uint) (*models.MergeSessionView, error) {
	if id == 0 {
		return nil, fmt.Errorf("session ID is required")
	}
	session, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %d not found", id)
	}
	return expandSession(session, true)
}

func (s *mergeSessionService) DeleteByID(id uint) error {
	if id == 0 {
		return fmt.Errorf("session ID is required")
	}
	return s.repo.DeleteByID(id)
}

func (s *mergeSessionService) DeleteAll() error {
	return s.repo.DeleteAll()
}

func expandSession(session *models.MergeSession, withFiles bool) (*models.MergeSessionView, error) {
	view := &models.MergeSessionView{
		ID:             session.ID,
		TargetLanguage: session.TargetLanguage,
		Provider:       session.Provider,
		ModelID:        session.ModelID,
		Summary:        session.Summary,
		CreatedAt:      session.CreatedAt,
	}

	if err := json.Unmarshal([]byte(session.RepositoriesJSON), &view.Repositories); err != nil {
		return nil, fmt.Errorf("session %d repositories are corrupt: %w", session.ID, err)
	}
	if withFiles && session.FilesJSON != "" {
		if err := json.Unmarshal([]byte(session.FilesJSON), &view.Files); err != nil {
			return nil, fmt.Errorf("session %d files are corrupt: %w", session.ID, err)
		}
	}
	return view, nil
}
