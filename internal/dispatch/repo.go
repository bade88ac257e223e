package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
)

// Repository exposes persistence helpers for queue entries and wakes. All
// status changes go through TransitionStatus so the guarded UPDATE is the
// single arbiter under concurrency.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.AutoAssignQueueEntry) error
	FindEntry(ctx context.Context, entryID uuid.UUID) (*models.AutoAssignQueueEntry, error)
	FindOpenEntry(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AutoAssignQueueEntry, error)
	TransitionStatus(ctx context.Context, entryID uuid.UUID, from, to enums.QueueEntryStatus, updates map[string]any) (bool, error)
	OfferedFreelancerIDs(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error)
	ExpiredNotifiedEntries(ctx context.Context, cutoff time.Time, limit int) ([]models.AutoAssignQueueEntry, error)
	CountCreatedSince(ctx context.Context, freelancerID uuid.UUID, since time.Time) (int64, error)
	ListByTarget(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error)
	CreateWake(ctx context.Context, wake *models.DispatchWake) error
	DueWakes(ctx context.Context, now time.Time, limit int) ([]models.DispatchWake, error)
	ConsumeWake(ctx context.Context, wakeID uuid.UUID, now time.Time) (bool, error)
	DeleteConsumedWakesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a dispatch repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// CreateEntry inserts a pending entry. The partial unique index on open
// entries rejects a second open offer for the same target; callers translate
// that violation into their race handling.
func (r *repositoryImpl) CreateEntry(ctx context.Context, entry *models.AutoAssignQueueEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) FindEntry(ctx context.Context, entryID uuid.UUID) (*models.AutoAssignQueueEntry, error) {
	var entry models.AutoAssignQueueEntry
	err := r.db.WithContext(ctx).
		Where("id = ?", entryID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) FindOpenEntry(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AutoAssignQueueEntry, error) {
	var entry models.AutoAssignQueueEntry
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ? AND status IN ?", targetType, targetID, enums.OpenQueueEntryStatuses).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// TransitionStatus performs the compare-and-set transition: the UPDATE only
// lands when the row still holds the expected status. Callers losing the race
// observe won == false and must treat it as a no-op.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, entryID uuid.UUID, from, to enums.QueueEntryStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to}
	for key, value := range updates {
		values[key] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Where("id = ? AND status = ?", entryID, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// OfferedFreelancerIDs returns every freelancer who ever held an entry for
// the target, regardless of outcome. Used to build the exclusion set.
func (r *repositoryImpl) OfferedFreelancerIDs(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Distinct("freelancer_id").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Pluck("freelancer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repositoryImpl) ExpiredNotifiedEntries(ctx context.Context, cutoff time.Time, limit int) ([]models.AutoAssignQueueEntry, error) {
	var entries []models.AutoAssignQueueEntry
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.QueueEntryStatusNotified, cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountCreatedSince counts entries created for a freelancer since the given
// instant, feeding the daily match cap.
func (r *repositoryImpl) CountCreatedSince(ctx context.Context, freelancerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Where("freelancer_id = ? AND created_at >= ?", freelancerID, since).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ListByTarget(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error) {
	bufferedLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.AutoAssignQueueEntry
	if err := query.Order("created_at DESC, id DESC").Limit(bufferedLimit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[normalized-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}

func (r *repositoryImpl) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error) {
	bufferedLimit := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).
		Model(&models.AutoAssignQueueEntry{}).
		Where("freelancer_id = ?", freelancerID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.AutoAssignQueueEntry
	if err := query.Order("created_at DESC, id DESC").Limit(bufferedLimit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[normalized-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}

func (r *repositoryImpl) CreateWake(ctx context.Context, wake *models.DispatchWake) error {
	return r.db.WithContext(ctx).Create(wake).Error
}

func (r *repositoryImpl) DueWakes(ctx context.Context, now time.Time, limit int) ([]models.DispatchWake, error) {
	var wakes []models.DispatchWake
	query := r.db.WithContext(ctx).
		Where("consumed_at IS NULL AND wake_at <= ?", now).
		Order("wake_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&wakes).Error; err != nil {
		return nil, err
	}
	return wakes, nil
}

// ConsumeWake claims a wake row; only one worker wins.
func (r *repositoryImpl) ConsumeWake(ctx context.Context, wakeID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DispatchWake{}).
		Where("id = ? AND consumed_at IS NULL", wakeID).
		UpdateColumn("consumed_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteConsumedWakesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("consumed_at IS NOT NULL AND consumed_at < ?", cutoff).
		Delete(&models.DispatchWake{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
