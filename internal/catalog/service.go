package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
)

// Service answers catalog questions for the dispatch engine.
type Service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get fetches a target or a NOT_FOUND error.
func (s *Service) Get(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AssignmentTarget, error) {
	target, err := s.repo.Find(ctx, targetType, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "target not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load target")
	}
	return target, nil
}

// IsAutoAssignEnabled reports the live flag for a target.
func (s *Service) IsAutoAssignEnabled(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (bool, error) {
	target, err := s.Get(ctx, targetType, targetID)
	if err != nil {
		return false, err
	}
	return target.AutoAssignEnabled, nil
}

// ProjectValue returns the monetary value snapshot for a target.
func (s *Service) ProjectValue(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (decimal.Decimal, error) {
	target, err := s.Get(ctx, targetType, targetID)
	if err != nil {
		return decimal.Zero, err
	}
	return target.ProjectValue, nil
}

// MarkAssigned stamps the winning freelancer onto the target.
func (s *Service) MarkAssigned(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, freelancerID uuid.UUID, at time.Time) error {
	updated, err := s.repo.MarkAssigned(ctx, targetType, targetID, freelancerID, at)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "mark target assigned")
	}
	if !updated {
		return apperrors.New(apperrors.CodeConflict, "target already assigned")
	}
	return nil
}
