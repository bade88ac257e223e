package freelancers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
)

// Repository exposes persistence helpers for freelancer metrics and
// preferences.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMetrics(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerMetrics, error)
	FindMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error)
	UpsertMetrics(ctx context.Context, metrics *models.FreelancerMetrics) error
	BumpAssigned(ctx context.Context, freelancerID uuid.UUID) error
	FindPreference(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerPreference, error)
	FindPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error)
	UpsertPreference(ctx context.Context, pref *models.FreelancerPreference) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a freelancers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindMetrics(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerMetrics, error) {
	var metrics models.FreelancerMetrics
	err := r.db.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		First(&metrics).Error
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (r *repositoryImpl) FindMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error) {
	out := make(map[uuid.UUID]models.FreelancerMetrics, len(freelancerIDs))
	if len(freelancerIDs) == 0 {
		return out, nil
	}
	var rows []models.FreelancerMetrics
	err := r.db.WithContext(ctx).
		Where("freelancer_id IN ?", freelancerIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FreelancerID] = row
	}
	return out, nil
}

func (r *repositoryImpl) UpsertMetrics(ctx context.Context, metrics *models.FreelancerMetrics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "freelancer_id"}},
			UpdateAll: true,
		}).
		Create(metrics).Error
}

// BumpAssigned optimistically increments total_assigned and stamps
// last_assigned_at; the recompute job reconciles later.
func (r *repositoryImpl) BumpAssigned(ctx context.Context, freelancerID uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.FreelancerMetrics{}).
		Where("freelancer_id = ?", freelancerID).
		Updates(map[string]any{
			"total_assigned":   gorm.Expr("total_assigned + 1"),
			"last_assigned_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.FreelancerMetrics{FreelancerID: freelancerID, TotalAssigned: 1}).Error
}

func (r *repositoryImpl) FindPreference(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerPreference, error) {
	var pref models.FreelancerPreference
	err := r.db.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *repositoryImpl) FindPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error) {
	out := make(map[uuid.UUID]models.FreelancerPreference, len(freelancerIDs))
	if len(freelancerIDs) == 0 {
		return out, nil
	}
	var rows []models.FreelancerPreference
	err := r.db.WithContext(ctx).
		Where("freelancer_id IN ?", freelancerIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FreelancerID] = row
	}
	return out, nil
}

func (r *repositoryImpl) UpsertPreference(ctx context.Context, pref *models.FreelancerPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "freelancer_id"}},
			UpdateAll: true,
		}).
		Create(pref).Error
}
