package freelancers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
)

// Service reads and updates freelancer metrics and preferences. Missing rows
// resolve to documented defaults rather than errors: an unrated freelancer
// scores with neutral values and a freelancer without preferences is treated
// as available, always on, with no caps or quiet hours.
type Service struct {
	repo Repo
}

// Repo is the subset of Repository the service needs.
type Repo interface {
	FindMetrics(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerMetrics, error)
	FindMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error)
	FindPreference(ctx context.Context, freelancerID uuid.UUID) (*models.FreelancerPreference, error)
	FindPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error)
	UpsertPreference(ctx context.Context, pref *models.FreelancerPreference) error
}

// NewService builds a freelancers service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// GetMetrics returns the stored metrics and whether a row existed.
func (s *Service) GetMetrics(ctx context.Context, freelancerID uuid.UUID) (models.FreelancerMetrics, bool, error) {
	metrics, err := s.repo.FindMetrics(ctx, freelancerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FreelancerMetrics{FreelancerID: freelancerID}, false, nil
		}
		return models.FreelancerMetrics{}, false, apperrors.Wrap(apperrors.CodeInternal, err, "load freelancer metrics")
	}
	return *metrics, true, nil
}

// GetMetricsBatch returns stored metrics keyed by freelancer id. Absent
// freelancers are simply missing from the map.
func (s *Service) GetMetricsBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerMetrics, error) {
	batch, err := s.repo.FindMetricsBatch(ctx, freelancerIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load freelancer metrics batch")
	}
	return batch, nil
}

// DefaultPreference is the behavior assumed for freelancers without a stored
// preference row.
func DefaultPreference(freelancerID uuid.UUID) models.FreelancerPreference {
	return models.FreelancerPreference{
		FreelancerID:       freelancerID,
		AvailabilityStatus: enums.AvailabilityStatusAvailable,
		AvailabilityMode:   enums.AvailabilityModeAlwaysOn,
		Timezone:           "UTC",
		NotifyInApp:        true,
		NotifyEmail:        true,
	}
}

// GetPreference returns the stored preference or the default when absent.
func (s *Service) GetPreference(ctx context.Context, freelancerID uuid.UUID) (models.FreelancerPreference, error) {
	pref, err := s.repo.FindPreference(ctx, freelancerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultPreference(freelancerID), nil
		}
		return models.FreelancerPreference{}, apperrors.Wrap(apperrors.CodeInternal, err, "load freelancer preference")
	}
	return *pref, nil
}

// GetPreferenceBatch returns preferences for all requested freelancers,
// filling defaults for missing rows.
func (s *Service) GetPreferenceBatch(ctx context.Context, freelancerIDs []uuid.UUID) (map[uuid.UUID]models.FreelancerPreference, error) {
	batch, err := s.repo.FindPreferenceBatch(ctx, freelancerIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load freelancer preference batch")
	}
	for _, id := range freelancerIDs {
		if _, ok := batch[id]; !ok {
			batch[id] = DefaultPreference(id)
		}
	}
	return batch, nil
}

// UpdatePreference validates and persists a preference row.
func (s *Service) UpdatePreference(ctx context.Context, pref models.FreelancerPreference) (models.FreelancerPreference, error) {
	if !pref.AvailabilityStatus.IsValid() {
		return models.FreelancerPreference{}, apperrors.New(apperrors.CodeValidation, "invalid availability status")
	}
	if !pref.AvailabilityMode.IsValid() {
		return models.FreelancerPreference{}, apperrors.New(apperrors.CodeValidation, "invalid availability mode")
	}
	if pref.DailyMatchLimit != nil && *pref.DailyMatchLimit < 0 {
		return models.FreelancerPreference{}, apperrors.New(apperrors.CodeValidation, "daily match limit must be non-negative")
	}
	if pref.AutoAcceptThreshold != nil && (*pref.AutoAcceptThreshold < 0 || *pref.AutoAcceptThreshold > 1) {
		return models.FreelancerPreference{}, apperrors.New(apperrors.CodeValidation, "auto accept threshold must be within [0, 1]")
	}
	if (pref.QuietHoursStart == nil) != (pref.QuietHoursEnd == nil) {
		return models.FreelancerPreference{}, apperrors.New(apperrors.CodeValidation, "quiet hours require both start and end")
	}
	if pref.Timezone == "" {
		pref.Timezone = "UTC"
	}
	if err := s.repo.UpsertPreference(ctx, &pref); err != nil {
		return models.FreelancerPreference{}, apperrors.Wrap(apperrors.CodeInternal, err, "save freelancer preference")
	}
	return pref, nil
}
