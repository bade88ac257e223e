package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

// ExpirySweepJobParams configure the offer expiry sweep.
type ExpirySweepJobParams struct {
	Logger *logger.Logger
	Engine offerExpirer
}

type offerExpirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// NewExpirySweepJob builds the job that expires overdue offers. The engine
// guards each transition, so the sweep is safe to run concurrently with
// inbound responses and with other sweep instances.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("dispatch engine required")
	}
	return &expirySweepJob{
		logg:   params.Logger,
		engine: params.Engine,
	}, nil
}

type expirySweepJob struct {
	logg   *logger.Logger
	engine offerExpirer
}

func (j *expirySweepJob) Name() string { return "expiry-sweep" }

func (j *expirySweepJob) Run(ctx context.Context) error {
	expired, err := j.engine.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired": expired})
	j.logg.Info(logCtx, "expiry sweep complete")
	return nil
}
