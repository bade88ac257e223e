package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

const defaultWakeRetention = 7 * 24 * time.Hour

// WakeRetentionJobParams configure the consumed-wake cleanup.
type WakeRetentionJobParams struct {
	Logger    *logger.Logger
	Wakes     wakeCleaner
	Retention time.Duration
}

type wakeCleaner interface {
	DeleteConsumedWakesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewWakeRetentionJob builds the job that prunes consumed wake rows.
func NewWakeRetentionJob(params WakeRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wakes == nil {
		return nil, fmt.Errorf("wake cleaner required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultWakeRetention
	}
	return &wakeRetentionJob{
		logg:      params.Logger,
		wakes:     params.Wakes,
		retention: retention,
		now:       time.Now,
	}, nil
}

type wakeRetentionJob struct {
	logg      *logger.Logger
	wakes     wakeCleaner
	retention time.Duration
	now       func() time.Time
}

func (j *wakeRetentionJob) Name() string { return "wake-retention" }

func (j *wakeRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.wakes.DeleteConsumedWakesBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("wake retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "wake retention cleanup complete")
	return nil
}
