package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// Repository exposes persistence helpers for assignment targets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AssignmentTarget, error)
	Upsert(ctx context.Context, target *models.AssignmentTarget) error
	SetAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, enabled bool) (bool, error)
	MarkAssigned(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, freelancerID uuid.UUID, at time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Find(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AssignmentTarget, error) {
	var target models.AssignmentTarget
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *repositoryImpl) Upsert(ctx context.Context, target *models.AssignmentTarget) error {
	return r.db.WithContext(ctx).Save(target).Error
}

// SetAutoAssign flips the flag only when it currently holds the opposite
// value, so concurrent toggles resolve to a single winner.
func (r *repositoryImpl) SetAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, enabled bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssignmentTarget{}).
		Where("target_type = ? AND target_id = ? AND auto_assign_enabled = ?", targetType, targetID, !enabled).
		UpdateColumn("auto_assign_enabled", enabled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkAssigned records the winning freelancer unless the target was already
// assigned.
func (r *repositoryImpl) MarkAssigned(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, freelancerID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AssignmentTarget{}).
		Where("target_type = ? AND target_id = ? AND assigned_freelancer_id IS NULL", targetType, targetID).
		Updates(map[string]any{
			"assigned_freelancer_id": freelancerID,
			"assigned_at":            at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
