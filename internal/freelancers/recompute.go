package freelancers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
)

// EntryStats are the aggregates recomputed from a freelancer's queue entries.
type EntryStats struct {
	TotalAssigned          int              `gorm:"column:total_assigned"`
	TotalCompleted         int              `gorm:"column:total_completed"`
	AcceptedCount          int              `gorm:"column:accepted_count"`
	LifetimeAssignedValue  decimal.Decimal  `gorm:"column:lifetime_assigned_value"`
	LifetimeCompletedValue decimal.Decimal  `gorm:"column:lifetime_completed_value"`
	LastAssignedAt         *time.Time       `gorm:"column:last_assigned_at"`
	LastCompletedAt        *time.Time       `gorm:"column:last_completed_at"`
}

// RecomputeRepository reads the entry aggregates behind the metrics
// recompute job.
type RecomputeRepository interface {
	ResolvedFreelancerIDsSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	EntryStats(ctx context.Context, freelancerID uuid.UUID) (EntryStats, error)
}

type recomputeRepositoryImpl struct {
	db *gorm.DB
}

// NewRecomputeRepository returns the aggregation reader for metrics recompute.
func NewRecomputeRepository(db *gorm.DB) RecomputeRepository {
	return &recomputeRepositoryImpl{db: db}
}

func (r *recomputeRepositoryImpl) ResolvedFreelancerIDsSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Distinct("freelancer_id").
		Where("resolved_at IS NOT NULL AND resolved_at >= ?", since).
		Pluck("freelancer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *recomputeRepositoryImpl) EntryStats(ctx context.Context, freelancerID uuid.UUID) (EntryStats, error) {
	var stats EntryStats
	err := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Select(`
			COUNT(notified_at) AS total_assigned,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) AS total_completed,
			COUNT(CASE WHEN status IN ('accepted', 'completed') THEN 1 END) AS accepted_count,
			COALESCE(SUM(CASE WHEN status IN ('accepted', 'completed') THEN project_value END), 0) AS lifetime_assigned_value,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN project_value END), 0) AS lifetime_completed_value,
			MAX(notified_at) AS last_assigned_at,
			MAX(CASE WHEN status = 'completed' THEN resolved_at END) AS last_completed_at`).
		Where("freelancer_id = ?", freelancerID).
		Scan(&stats).Error
	return stats, err
}

// Recompute rebuilds one freelancer's metrics row from entry aggregates. The
// rating is review-sourced and preserved as-is; the optimistic notify-time
// bump is replaced by the authoritative counts here. totalCompleted never
// exceeds totalAssigned.
func (s *Service) Recompute(ctx context.Context, repo Repository, stats EntryStats, freelancerID uuid.UUID) error {
	current, err := repo.FindMetrics(ctx, freelancerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	metrics := models.FreelancerMetrics{FreelancerID: freelancerID}
	if current != nil {
		metrics.Rating = current.Rating
	}
	metrics.TotalAssigned = stats.TotalAssigned
	metrics.TotalCompleted = stats.TotalCompleted
	if metrics.TotalCompleted > metrics.TotalAssigned {
		metrics.TotalCompleted = metrics.TotalAssigned
	}
	if metrics.TotalAssigned > 0 {
		metrics.CompletionRate = float64(metrics.TotalCompleted) / float64(metrics.TotalAssigned)
	}
	metrics.LifetimeAssignedValue = stats.LifetimeAssignedValue
	metrics.LifetimeCompletedValue = stats.LifetimeCompletedValue
	if stats.AcceptedCount > 0 {
		metrics.AvgAssignedValue = stats.LifetimeAssignedValue.
			Div(decimal.NewFromInt(int64(stats.AcceptedCount))).
			Round(2)
	}
	metrics.LastAssignedAt = stats.LastAssignedAt
	metrics.LastCompletedAt = stats.LastCompletedAt

	return repo.UpsertMetrics(ctx, &metrics)
}
