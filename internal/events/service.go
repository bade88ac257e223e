package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// Service appends target lifecycle events. Rows are append-only; nothing in
// the codebase updates or deletes them.
type Service struct {
	repo Repository
}

// NewService builds an events service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordInput describes one lifecycle event.
type RecordInput struct {
	TargetType enums.TargetType
	TargetID   uuid.UUID
	ActorID    *uuid.UUID
	EventType  enums.AssignmentEventType
	Payload    types.JSONMap
}

// RecordTx appends an event inside the caller's transaction so the log row
// commits atomically with the state change it describes.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if !input.EventType.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "invalid assignment event type")
	}
	event := models.AssignmentEvent{
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		ActorID:    input.ActorID,
		EventType:  input.EventType,
		Payload:    input.Payload,
	}
	if err := s.repo.WithTx(tx).Append(ctx, &event); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "append assignment event")
	}
	return nil
}

// History lists a target's events newest first with cursor pagination.
func (s *Service) History(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AssignmentEvent, *pagination.Cursor, error) {
	rows, next, err := s.repo.ListByTarget(ctx, targetType, targetID, limit, cursor)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "list assignment events")
	}
	return rows, next, nil
}
