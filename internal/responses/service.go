package responses

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/talentmatch-backend/internal/dispatch"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

// Decision is the candidate's answer to an offer.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

type entryReader interface {
	FindEntry(ctx context.Context, entryID uuid.UUID) (*models.AutoAssignQueueEntry, error)
}

type responseChecker interface {
	Exists(ctx context.Context, queueEntryID uuid.UUID) (bool, error)
}

type dispatchEngine interface {
	Accept(ctx context.Context, input dispatch.ResolveInput) error
	Decline(ctx context.Context, input dispatch.ResolveInput) error
}

// Service validates and records a candidate's decision exactly once per
// entry, then hands the transition to the dispatch engine. Validation lives
// here so the engine only ever sees well-formed resolutions.
type Service struct {
	entries   entryReader
	responses responseChecker
	engine    dispatchEngine
}

// NewService builds a response handler.
func NewService(entries entryReader, responses responseChecker, engine dispatchEngine) *Service {
	return &Service{
		entries:   entries,
		responses: responses,
		engine:    engine,
	}
}

// RecordInput carries one inbound response.
type RecordInput struct {
	EntryID      uuid.UUID
	FreelancerID uuid.UUID
	Decision     Decision
	// ActorID is who submitted the response; differs from FreelancerID for
	// delegated responses.
	ActorID     uuid.UUID
	Delegated   bool
	ReasonCode  *string
	ReasonLabel *string
	Notes       *string
	Metadata    types.JSONMap
}

// Record validates the response and drives the entry to its terminal state.
func (s *Service) Record(ctx context.Context, input RecordInput) error {
	if input.Decision != DecisionAccept && input.Decision != DecisionDecline {
		return apperrors.New(apperrors.CodeValidation, "decision must be accept or decline")
	}
	entry, err := s.entries.FindEntry(ctx, input.EntryID)
	if err != nil {
		if isNotFound(err) {
			return apperrors.New(apperrors.CodeNotFound, "queue entry not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "load queue entry")
	}
	if entry.FreelancerID != input.FreelancerID && !input.Delegated {
		return apperrors.New(apperrors.CodeForbidden, "entry belongs to another freelancer")
	}
	if entry.Status != enums.QueueEntryStatusNotified {
		return apperrors.New(apperrors.CodeInvalidTransition, "entry is not awaiting a response")
	}
	exists, err := s.responses.Exists(ctx, input.EntryID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "check existing response")
	}
	if exists {
		return apperrors.New(apperrors.CodeDuplicateResponse, "entry already has a response")
	}

	actorID := input.ActorID
	resolve := dispatch.ResolveInput{
		EntryID:     input.EntryID,
		RespondedBy: &actorID,
		ReasonCode:  input.ReasonCode,
		ReasonLabel: input.ReasonLabel,
		Notes:       input.Notes,
		Metadata:    input.Metadata,
	}
	if input.Decision == DecisionAccept {
		return s.engine.Accept(ctx, resolve)
	}
	return s.engine.Decline(ctx, resolve)
}
