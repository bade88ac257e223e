package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/internal/freelancers"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

const defaultRecomputeLookback = 48 * time.Hour

// MetricsRecomputeJobParams configure the freelancer metrics recompute.
type MetricsRecomputeJobParams struct {
	Logger     *logger.Logger
	Aggregates freelancers.RecomputeRepository
	Repository freelancers.Repository
	Service    metricsRecomputer
	Lookback   time.Duration
}

type metricsRecomputer interface {
	Recompute(ctx context.Context, repo freelancers.Repository, stats freelancers.EntryStats, freelancerID uuid.UUID) error
}

// NewMetricsRecomputeJob builds the job that rebuilds freelancer metrics from
// terminal queue entries. It corrects the optimistic notify-time counter
// bumps the engine makes.
func NewMetricsRecomputeJob(params MetricsRecomputeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Aggregates == nil {
		return nil, fmt.Errorf("aggregates repository required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("freelancers repository required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("freelancers service required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultRecomputeLookback
	}
	return &metricsRecomputeJob{
		logg:       params.Logger,
		aggregates: params.Aggregates,
		repo:       params.Repository,
		service:    params.Service,
		lookback:   lookback,
		now:        time.Now,
	}, nil
}

type metricsRecomputeJob struct {
	logg       *logger.Logger
	aggregates freelancers.RecomputeRepository
	repo       freelancers.Repository
	service    metricsRecomputer
	lookback   time.Duration
	now        func() time.Time
}

func (j *metricsRecomputeJob) Name() string { return "metrics-recompute" }

func (j *metricsRecomputeJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.lookback)
	ids, err := j.aggregates.ResolvedFreelancerIDsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("query resolved freelancers: %w", err)
	}
	recomputed := 0
	for _, id := range ids {
		stats, err := j.aggregates.EntryStats(ctx, id)
		if err != nil {
			return fmt.Errorf("aggregate entries for %s: %w", id, err)
		}
		if err := j.service.Recompute(ctx, j.repo, stats, id); err != nil {
			return fmt.Errorf("recompute metrics for %s: %w", id, err)
		}
		recomputed++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"freelancers": recomputed, "since": since})
	j.logg.Info(logCtx, "metrics recompute complete")
	return nil
}
