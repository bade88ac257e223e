package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/talentmatch-backend/internal/scoring"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

type stubPool struct {
	ids []uuid.UUID
}

func (s *stubPool) EligiblePool(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, nil
}

type stubProfiles struct {
	metrics map[uuid.UUID]models.FreelancerMetrics
	prefs   map[uuid.UUID]models.FreelancerPreference
}

func (s *stubProfiles) GetMetricsBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error) {
	out := make(map[uuid.UUID]models.FreelancerMetrics)
	for _, id := range ids {
		if m, ok := s.metrics[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (s *stubProfiles) GetPreferenceBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error) {
	out := make(map[uuid.UUID]models.FreelancerPreference)
	for _, id := range ids {
		if p, ok := s.prefs[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubCounter struct {
	counts map[uuid.UUID]int64
}

func (s *stubCounter) CountCreatedSince(ctx context.Context, freelancerID uuid.UUID, since time.Time) (int64, error) {
	return s.counts[freelancerID], nil
}

func ratedMetrics(id uuid.UUID, rating, completion float64) models.FreelancerMetrics {
	return models.FreelancerMetrics{
		FreelancerID:   id,
		Rating:         &rating,
		CompletionRate: completion,
	}
}

func newTestSelector(pool *stubPool, profiles *stubProfiles, counter *stubCounter, at time.Time) *Selector {
	scorer := scoring.NewScorer(14 * 24 * time.Hour)
	scorer.Now = func() time.Time { return at }
	selector := NewSelector(pool, profiles, counter, scorer)
	selector.now = func() time.Time { return at }
	return selector
}

func TestSelectOrdersByBucketScoreThenID(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	top := uuid.New()
	mid := uuid.New()
	unrated := uuid.New()

	pool := &stubPool{ids: []uuid.UUID{unrated, mid, top}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{
			top: ratedMetrics(top, 5.0, 1.0),
			mid: ratedMetrics(mid, 4.0, 0.8),
		},
		prefs: map[uuid.UUID]models.FreelancerPreference{},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, top, candidates[0].FreelancerID)
	assert.Equal(t, 1, candidates[0].Bucket)
	assert.Equal(t, mid, candidates[1].FreelancerID)
	assert.Equal(t, 2, candidates[1].Bucket)
	assert.Equal(t, unrated, candidates[2].FreelancerID)
	assert.Equal(t, 3, candidates[2].Bucket)
}

func TestSelectTiebreaksOnFreelancerID(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	pool := &stubPool{ids: []uuid.UUID{b, a}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs:   map[uuid.UUID]models.FreelancerPreference{},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeGig,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, a, candidates[0].FreelancerID)
	assert.Equal(t, b, candidates[1].FreelancerID)
	assert.Equal(t, candidates[0].Score, candidates[1].Score)
}

func TestSelectFiltersExcludedAndUnavailable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	offered := uuid.New()
	unavailable := uuid.New()
	open := uuid.New()

	pool := &stubPool{ids: []uuid.UUID{offered, unavailable, open}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs: map[uuid.UUID]models.FreelancerPreference{
			unavailable: {
				FreelancerID:       unavailable,
				AvailabilityStatus: enums.AvailabilityStatusUnavailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				Timezone:           "UTC",
			},
		},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
		Exclude:      map[uuid.UUID]struct{}{offered: {}},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, open, candidates[0].FreelancerID)
}

func TestSelectEnforcesDailyCap(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	capped := uuid.New()
	zeroLimit := uuid.New()
	free := uuid.New()
	one := 1
	zero := 0

	pool := &stubPool{ids: []uuid.UUID{capped, zeroLimit, free}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs: map[uuid.UUID]models.FreelancerPreference{
			capped: {
				FreelancerID:       capped,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				Timezone:           "UTC",
				DailyMatchLimit:    &one,
			},
			zeroLimit: {
				FreelancerID:       zeroLimit,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				Timezone:           "UTC",
				DailyMatchLimit:    &zero,
			},
		},
	}
	counter := &stubCounter{counts: map[uuid.UUID]int64{capped: 1}}
	selector := newTestSelector(pool, profiles, counter, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, free, candidates[0].FreelancerID)
}

func TestSelectAttachesQuietHoursDeferral(t *testing.T) {
	// 23:00 UTC falls inside a 22:00-07:00 window that wraps midnight.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	night := uuid.New()
	start := "22:00"
	end := "07:00"

	pool := &stubPool{ids: []uuid.UUID{night}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs: map[uuid.UUID]models.FreelancerPreference{
			night: {
				FreelancerID:       night,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeScheduled,
				Timezone:           "UTC",
				QuietHoursStart:    &start,
				QuietHoursEnd:      &end,
			},
		},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].DeferUntil)
	assert.Equal(t, "quiet_hours", candidates[0].DeferReason)
	expectedEnd := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
	assert.True(t, candidates[0].DeferUntil.Equal(expectedEnd))
}

func TestSelectOutsideQuietHoursNoDeferral(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day := uuid.New()
	start := "22:00"
	end := "07:00"

	pool := &stubPool{ids: []uuid.UUID{day}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs: map[uuid.UUID]models.FreelancerPreference{
			day: {
				FreelancerID:       day,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeScheduled,
				Timezone:           "UTC",
				QuietHoursStart:    &start,
				QuietHoursEnd:      &end,
			},
		},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Nil(t, candidates[0].DeferUntil)
}

func TestSelectSnoozeBeatsQuietHoursWhenLater(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	sleeper := uuid.New()
	start := "22:00"
	end := "07:00"
	snoozedUntil := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	pool := &stubPool{ids: []uuid.UUID{sleeper}}
	profiles := &stubProfiles{
		metrics: map[uuid.UUID]models.FreelancerMetrics{},
		prefs: map[uuid.UUID]models.FreelancerPreference{
			sleeper: {
				FreelancerID:       sleeper,
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeScheduled,
				Timezone:           "UTC",
				QuietHoursStart:    &start,
				QuietHoursEnd:      &end,
				SnoozedUntil:       &snoozedUntil,
			},
		},
	}
	selector := newTestSelector(pool, profiles, &stubCounter{}, now)

	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].DeferUntil)
	assert.Equal(t, "snoozed", candidates[0].DeferReason)
	assert.True(t, candidates[0].DeferUntil.Equal(snoozedUntil))
}

func TestSelectEmptyPoolReturnsNil(t *testing.T) {
	selector := newTestSelector(&stubPool{}, &stubProfiles{}, &stubCounter{}, time.Now())
	candidates, err := selector.Select(context.Background(), SelectInput{
		TargetType:   enums.TargetTypeJob,
		TargetID:     uuid.New(),
		ProjectValue: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Nil(t, candidates)
}
