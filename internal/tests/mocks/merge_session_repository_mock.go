package mocks

import (
	"github.com/DickShmiggleTM/RepoFusion/internal/models"
)

type MergeSessionRepositoryMock struct {
	ListFunc       func(limit, offset int) ([]models.MergeSession, error)
	GetByIDFunc    func(id uint) (*models.MergeSession, error)
	CreateFunc     func(session *models.MergeSession) error
	DeleteByIDFunc func(id uint) error
	DeleteAllFunc  func() error
}

func (m *MergeSessionRepositoryMock) List(limit, offset int) ([]models.MergeSession, error) {
	if m.ListFunc != nil {
		return m.ListFunc(limit, offset)
	}
	return nil, nil
}

func (m *MergeSessionRepositoryMock) GetByID(id uint) (*models.MergeSession, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, nil
}

func (m *MergeSessionRepositoryMock) Create(session *models.MergeSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(session)
	}
	return nil
}

func (m *MergeSessionRepositoryMock) DeleteByID(id uint) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(id)
	}
	return nil
}

func (m *MergeSessionRepositoryMock) DeleteAll() error {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc()
	}
	return nil
}
