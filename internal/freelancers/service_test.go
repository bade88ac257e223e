package freelancers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
)

type stubFreelancerRepo struct {
	metrics     map[uuid.UUID]models.FreelancerMetrics
	preferences map[uuid.UUID]models.FreelancerPreference
	upserted    []models.FreelancerPreference
}

func newStubFreelancerRepo() *stubFreelancerRepo {
	return &stubFreelancerRepo{
		metrics:     make(map[uuid.UUID]models.FreelancerMetrics),
		preferences: make(map[uuid.UUID]models.FreelancerPreference),
	}
}

func (s *stubFreelancerRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubFreelancerRepo) FindMetrics(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerMetrics, error) {
	metrics, ok := s.metrics[freelancerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &metrics, nil
}

func (s *stubFreelancerRepo) FindMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error) {
	out := make(map[uuid.UUID]models.FreelancerMetrics)
	for _, id := range freelancerIDs {
		if metrics, ok := s.metrics[id]; ok {
			out[id] = metrics
		}
	}
	return out, nil
}

func (s *stubFreelancerRepo) UpsertMetrics(ctx context.Context, metrics *models.FreelancerMetrics) error {
	s.metrics[metrics.FreelancerID] = *metrics
	return nil
}

func (s *stubFreelancerRepo) BumpAssigned(ctx context.Context, freelancerID uuid.UUID) error {
	metrics := s.metrics[freelancerID]
	metrics.FreelancerID = freelancerID
	metrics.TotalAssigned++
	s.metrics[freelancerID] = metrics
	return nil
}

func (s *stubFreelancerRepo) FindPreference(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerPreference, error) {
	pref, ok := s.preferences[freelancerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &pref, nil
}

func (s *stubFreelancerRepo) FindPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error) {
	out := make(map[uuid.UUID]models.FreelancerPreference)
	for _, id := range freelancerIDs {
		if pref, ok := s.preferences[id]; ok {
			out[id] = pref
		}
	}
	return out, nil
}

func (s *stubFreelancerRepo) UpsertPreference(ctx context.Context, pref *models.FreelancerPreference) error {
	s.preferences[pref.FreelancerID] = *pref
	s.upserted = append(s.upserted, *pref)
	return nil
}

func TestGetPreferenceFallsBackToDefault(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()

	pref, err := svc.GetPreference(context.Background(), freelancerID)
	require.NoError(t, err)
	assert.Equal(t, freelancerID, pref.FreelancerID)
	assert.Equal(t, enums.AvailabilityStatusAvailable, pref.AvailabilityStatus)
	assert.Equal(t, enums.AvailabilityModeAlwaysOn, pref.AvailabilityMode)
	assert.Equal(t, "UTC", pref.Timezone)
	assert.Nil(t, pref.DailyMatchLimit)
	assert.True(t, pref.NotifyInApp)
	assert.True(t, pref.NotifyEmail)
	assert.False(t, pref.NotifySMS)
}

func TestGetPreferenceBatchFillsDefaults(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	stored := uuid.New()
	missing := uuid.New()
	repo.preferences[stored] = models.FreelancerPreference{
		FreelancerID:       stored,
		AvailabilityStatus: enums.AvailabilityStatusUnavailable,
		AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
		Timezone:           "America/Bogota",
	}

	batch, err := svc.GetPreferenceBatch(context.Background(), []uuid.UUID{stored, missing})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, enums.AvailabilityStatusUnavailable, batch[stored].AvailabilityStatus)
	assert.Equal(t, enums.AvailabilityStatusAvailable, batch[missing].AvailabilityStatus)
	assert.Equal(t, "UTC", batch[missing].Timezone)
}

func TestGetMetricsReportsAbsence(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()

	metrics, found, err := svc.GetMetrics(context.Background(), freelancerID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, freelancerID, metrics.FreelancerID)
	assert.Zero(t, metrics.TotalAssigned)

	repo.metrics[freelancerID] = models.FreelancerMetrics{FreelancerID: freelancerID, TotalAssigned: 4}
	metrics, found, err = svc.GetMetrics(context.Background(), freelancerID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, metrics.TotalAssigned)
}

func TestUpdatePreferenceValidation(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	negative := -1
	tooHigh := 1.5
	start := "22:00"

	cases := []struct {
		name string
		pref models.FreelancerPreference
	}{
		{
			name: "invalid availability status",
			pref: models.FreelancerPreference{
				FreelancerID:       uuid.New(),
				AvailabilityStatus: enums.AvailabilityStatus("busy"),
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
			},
		},
		{
			name: "invalid availability mode",
			pref: models.FreelancerPreference{
				FreelancerID:       uuid.New(),
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityMode("sometimes"),
			},
		},
		{
			name: "negative daily match limit",
			pref: models.FreelancerPreference{
				FreelancerID:       uuid.New(),
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				DailyMatchLimit:    &negative,
			},
		},
		{
			name: "auto accept threshold out of range",
			pref: models.FreelancerPreference{
				FreelancerID:        uuid.New(),
				AvailabilityStatus:  enums.AvailabilityStatusAvailable,
				AvailabilityMode:    enums.AvailabilityModeAlwaysOn,
				AutoAcceptThreshold: &tooHigh,
			},
		},
		{
			name: "unpaired quiet hours",
			pref: models.FreelancerPreference{
				FreelancerID:       uuid.New(),
				AvailabilityStatus: enums.AvailabilityStatusAvailable,
				AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
				QuietHoursStart:    &start,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdatePreference(context.Background(), tc.pref)
			apperr := apperrors.As(err)
			require.NotNil(t, apperr)
			assert.Equal(t, apperrors.CodeValidation, apperr.Code())
		})
	}
	assert.Empty(t, repo.upserted)
}

func TestUpdatePreferencePersistsAndDefaultsTimezone(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()
	limit := 3
	threshold := 0.85
	start := "22:00"
	end := "07:00"

	saved, err := svc.UpdatePreference(context.Background(), models.FreelancerPreference{
		FreelancerID:        freelancerID,
		AvailabilityStatus:  enums.AvailabilityStatusLimited,
		AvailabilityMode:    enums.AvailabilityModeScheduled,
		DailyMatchLimit:     &limit,
		AutoAcceptThreshold: &threshold,
		QuietHoursStart:     &start,
		QuietHoursEnd:       &end,
		NotifyInApp:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "UTC", saved.Timezone)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, enums.AvailabilityStatusLimited, repo.upserted[0].AvailabilityStatus)
	require.NotNil(t, repo.upserted[0].QuietHoursEnd)
	assert.Equal(t, "07:00", *repo.upserted[0].QuietHoursEnd)
}

func TestRecomputeRebuildsFromAggregates(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()
	rating := 4.6
	repo.metrics[freelancerID] = models.FreelancerMetrics{
		FreelancerID:  freelancerID,
		Rating:        &rating,
		TotalAssigned: 99,
	}
	lastAssigned := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	lastCompleted := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)

	err := svc.Recompute(context.Background(), repo, EntryStats{
		TotalAssigned:          10,
		TotalCompleted:         4,
		AcceptedCount:          6,
		LifetimeAssignedValue:  decimal.NewFromInt(1000),
		LifetimeCompletedValue: decimal.NewFromInt(400),
		LastAssignedAt:         &lastAssigned,
		LastCompletedAt:        &lastCompleted,
	}, freelancerID)
	require.NoError(t, err)

	stored := repo.metrics[freelancerID]
	require.NotNil(t, stored.Rating)
	assert.InDelta(t, 4.6, *stored.Rating, 0.0001)
	assert.Equal(t, 10, stored.TotalAssigned)
	assert.Equal(t, 4, stored.TotalCompleted)
	assert.InDelta(t, 0.4, stored.CompletionRate, 0.0001)
	// 1000 / 6 accepted offers, rounded to cents.
	assert.True(t, stored.AvgAssignedValue.Equal(decimal.RequireFromString("166.67")))
	require.NotNil(t, stored.LastCompletedAt)
	assert.True(t, stored.LastCompletedAt.Equal(lastCompleted))
}

func TestRecomputeClampsCompletedToAssigned(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()

	err := svc.Recompute(context.Background(), repo, EntryStats{
		TotalAssigned:  2,
		TotalCompleted: 5,
	}, freelancerID)
	require.NoError(t, err)

	stored := repo.metrics[freelancerID]
	assert.Equal(t, 2, stored.TotalAssigned)
	assert.Equal(t, 2, stored.TotalCompleted)
	assert.InDelta(t, 1.0, stored.CompletionRate, 0.0001)
	assert.True(t, stored.AvgAssignedValue.IsZero())
}

func TestRecomputeZeroActivityLeavesRates(t *testing.T) {
	repo := newStubFreelancerRepo()
	svc := NewService(repo)
	freelancerID := uuid.New()

	err := svc.Recompute(context.Background(), repo, EntryStats{}, freelancerID)
	require.NoError(t, err)

	stored := repo.metrics[freelancerID]
	assert.Zero(t, stored.TotalAssigned)
	assert.Zero(t, stored.CompletionRate)
	assert.Nil(t, stored.LastAssignedAt)
}
