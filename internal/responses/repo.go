package responses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
)

// Repository reads assignment responses.
type Repository interface {
	Exists(ctx context.Context, queueEntryID uuid.UUID) (bool, error)
	FindByEntry(ctx context.Context, queueEntryID uuid.UUID) (*models.AssignmentResponse, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a responses repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Exists(ctx context.Context, queueEntryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentResponse{}).
		Where("queue_entry_id = ?", queueEntryID).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) FindByEntry(ctx context.Context, queueEntryID uuid.UUID) (*models.AssignmentResponse, error) {
	var response models.AssignmentResponse
	err := r.db.WithContext(ctx).
		Where("queue_entry_id = ?", queueEntryID).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
