package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

const wakeBatchSize = 200

// DispatchWakeJobParams configure the deferred-offer wake job.
type DispatchWakeJobParams struct {
	Logger *logger.Logger
	Wakes  wakeReader
	Engine wakeRunner
}

type wakeReader interface {
	DueWakes(ctx context.Context, now time.Time, limit int) ([]models.DispatchWake, error)
}

type wakeRunner interface {
	RunWake(ctx context.Context, wake models.DispatchWake) error
}

// NewDispatchWakeJob builds the job that resumes offers deferred by quiet
// hours or snooze.
func NewDispatchWakeJob(params DispatchWakeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wakes == nil {
		return nil, fmt.Errorf("wake reader required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("dispatch engine required")
	}
	return &dispatchWakeJob{
		logg:   params.Logger,
		wakes:  params.Wakes,
		engine: params.Engine,
		now:    time.Now,
	}, nil
}

type dispatchWakeJob struct {
	logg   *logger.Logger
	wakes  wakeReader
	engine wakeRunner
	now    func() time.Time
}

func (j *dispatchWakeJob) Name() string { return "dispatch-wake" }

func (j *dispatchWakeJob) Run(ctx context.Context) error {
	due, err := j.wakes.DueWakes(ctx, j.now().UTC(), wakeBatchSize)
	if err != nil {
		return fmt.Errorf("query due wakes: %w", err)
	}
	resumed := 0
	for _, wake := range due {
		if err := j.engine.RunWake(ctx, wake); err != nil {
			logCtx := j.logg.WithField(ctx, "wake_id", wake.ID.String())
			j.logg.Error(logCtx, "wake run failed", err)
			continue
		}
		resumed++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"due": len(due), "resumed": resumed})
	j.logg.Info(logCtx, "dispatch wake loop complete")
	return nil
}
