package contract

import (
	"context"

	"ai-docedit-be/internal/entity"
)

type RevisionRepository interface {
	Create(ctx context.Context, revision *entity.Revision) error
	GetBySession(ctx context.Context, sessionID string, limit, offset int) ([]entity.Revision, int64, error)
}
