package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

type MergeSessionRepository interface {
	List(limit, offset int) ([]models.MergeSession, error)
	GetByID(id uint) (*models.MergeSession, error)
	Create(session *models.MergeSession) error
	DeleteByID(id uint) error
	DeleteAll() error
}

type mergeSessionRepository struct {
	db *gorm.DB
}

func NewMergeSessionRepository(db *gorm.DB) MergeSessionRepository {
	return &mergeSessionRepository{db: db}
}

func (r *mergeSessionRepository) List(limit, offset int) ([]models.MergeSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []models.MergeSession
	res := r.db.Order("created_at desc").Limit(limit).Offset(offset).Find(&sessions)
	if res.Error != nil {
		return nil, res.Error
	}
	return sessions, nil
}

func (r *mergeSessionRepository) GetByID(id uint) (*models.MergeSession, error) {
	var session models.MergeSession
	res := r.db.Take(&session, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &session, nil
}

func (r *mergeSessionRepository) Create(session *models.MergeSession) error {
	return r.db.Create(session).Error
}

func (r *mergeSessionRepository) DeleteByID(id uint) error {
	return r.db.Delete(&models.MergeSession{}, id).Error
}

func (r *mergeSessionRepository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MergeSession{}).Error
}
