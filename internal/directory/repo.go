package directory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// Repository reads the eligible-freelancer feed per target.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EligiblePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error)
	ReplacePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, freelancerIDs []uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a directory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// EligiblePool returns the feed order for a target. The ordering here is the
// ingest order; ranking happens in the selector.
func (r *repositoryImpl) EligiblePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error) {
	var rows []models.EligibleFreelancer
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.FreelancerID)
	}
	return ids, nil
}

// ReplacePool swaps the feed rows for a target in one transaction.
func (r *repositoryImpl) ReplacePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, freelancerIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("target_type = ? AND target_id = ?", targetType, targetID).
			Delete(&models.EligibleFreelancer{}).Error; err != nil {
			return err
		}
		if len(freelancerIDs) == 0 {
			return nil
		}
		rows := make([]models.EligibleFreelancer, 0, len(freelancerIDs))
		for _, id := range freelancerIDs {
			rows = append(rows, models.EligibleFreelancer{
				TargetType:   targetType,
				TargetID:     targetID,
				FreelancerID: id,
			})
		}
		return tx.Create(&rows).Error
	})
}
