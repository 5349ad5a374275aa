package implementation

import (
	"context"

	"ai-docedit-be/internal/entity"
	"ai-docedit-be/internal/repository/contract"

	"gorm.io/gorm"
)

type RevisionRepositoryImpl struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) contract.RevisionRepository {
	return &RevisionRepositoryImpl{db: db}
}

func (r *RevisionRepositoryImpl) Create(ctx context.Context, revision *entity.Revision) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r *RevisionRepositoryImpl) GetBySession(ctx context.Context, sessionID string, limit, offset int) ([]entity.Revision, int64, error) {
	var revisions []entity.Revision
	var total int64

	db := r.db.WithContext(ctx).Model(&entity.Revision{}).Where("session_id = ?", sessionID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&revisions).Error

	return revisions, total, err
}
