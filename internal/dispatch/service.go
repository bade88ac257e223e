package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/internal/catalog"
	"github.com/angelmondragon/talentmatch-backend/internal/events"
	"github.com/angelmondragon/talentmatch-backend/internal/notify"
	dbpkg "github.com/angelmondragon/talentmatch-backend/pkg/db"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/metrics"
	"github.com/angelmondragon/talentmatch-backend/pkg/outbox"
	"github.com/angelmondragon/talentmatch-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
	"github.com/angelmondragon/talentmatch-backend/pkg/types"
)

const defaultOfferWindow = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type candidateSelector interface {
	Select(ctx context.Context, input SelectInput) ([]Candidate, error)
}

type targetCatalog interface {
	Get(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) (*models.AssignmentTarget, error)
}

type preferenceReader interface {
	GetPreference(ctx context.Context, freelancerID uuid.UUID) (models.FreelancerPreference, error)
}

type assignedBumper interface {
	BumpAssigned(ctx context.Context, freelancerID uuid.UUID) error
}

type eventRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input events.RecordInput) error
}

type notificationWriter interface {
	SendTx(ctx context.Context, tx *gorm.DB, input notify.Input) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams configure the dispatch engine.
type ServiceParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repo        Repository
	Selector    candidateSelector
	Catalog     targetCatalog
	CatalogRepo catalog.Repository
	Preferences preferenceReader
	Metrics     assignedBumper
	Events      eventRecorder
	Notifier    notificationWriter
	Outbox      outboxEmitter
	Dispatch    *metrics.DispatchMetrics
	OfferWindow time.Duration
	// CascadeSlop pads the reassignment iteration cap beyond the pool size.
	CascadeSlop int
}

// Service is the dispatch engine: it owns every queue entry status change
// and the reassignment cascade. All transitions are guarded compare-and-set
// updates; a lost race is a silent no-op, never a double resolution.
type Service struct {
	logg        *logger.Logger
	db          txRunner
	repo        Repository
	selector    candidateSelector
	catalog     targetCatalog
	catalogRepo catalog.Repository
	preferences preferenceReader
	metrics     assignedBumper
	events      eventRecorder
	notifier    notificationWriter
	outbox      outboxEmitter
	dispatch    *metrics.DispatchMetrics
	offerWindow time.Duration
	cascadeSlop int
	now         func() time.Time
}

// NewService builds the dispatch engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if params.Selector == nil {
		return nil, fmt.Errorf("candidate selector required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("target catalog required")
	}
	if params.CatalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Preferences == nil {
		return nil, fmt.Errorf("preference reader required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("metrics bumper required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	offerWindow := params.OfferWindow
	if offerWindow <= 0 {
		offerWindow = defaultOfferWindow
	}
	cascadeSlop := params.CascadeSlop
	if cascadeSlop < 1 {
		cascadeSlop = 1
	}
	return &Service{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		selector:    params.Selector,
		catalog:     params.Catalog,
		catalogRepo: params.CatalogRepo,
		preferences: params.Preferences,
		metrics:     params.Metrics,
		events:      params.Events,
		notifier:    params.Notifier,
		outbox:      params.Outbox,
		dispatch:    params.Dispatch,
		offerWindow: offerWindow,
		cascadeSlop: cascadeSlop,
		now:         time.Now,
	}, nil
}

// EnableAutoAssign flips the target's flag on and starts a dispatch run.
func (s *Service) EnableAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, actorID *uuid.UUID) error {
	target, err := s.catalog.Get(ctx, targetType, targetID)
	if err != nil {
		return err
	}
	if target.AssignedFreelancerID != nil {
		return apperrors.New(apperrors.CodeConflict, "target already assigned")
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		flipped, err := s.catalogRepo.WithTx(tx).SetAutoAssign(ctx, targetType, targetID, true)
		if err != nil {
			return err
		}
		if !flipped {
			return apperrors.New(apperrors.CodeConflict, "auto-assign already enabled")
		}
		return s.events.RecordTx(ctx, tx, events.RecordInput{
			TargetType: targetType,
			TargetID:   targetID,
			ActorID:    actorID,
			EventType:  enums.AssignmentEventEnabled,
		})
	})
	if err != nil {
		return err
	}
	target.AutoAssignEnabled = true
	return s.dispatchNext(ctx, target, true)
}

// DisableAutoAssign flips the flag off and cancels any open entry so no
// further reassignment happens for the target.
func (s *Service) DisableAutoAssign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, actorID *uuid.UUID) error {
	if _, err := s.catalog.Get(ctx, targetType, targetID); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		flipped, err := s.catalogRepo.WithTx(tx).SetAutoAssign(ctx, targetType, targetID, false)
		if err != nil {
			return err
		}
		if !flipped {
			return apperrors.New(apperrors.CodeConflict, "auto-assign already disabled")
		}
		now := s.now().UTC()
		open, err := repo.FindOpenEntry(ctx, targetType, targetID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if open != nil {
			won, err := repo.TransitionStatus(ctx, open.ID, open.Status, enums.QueueEntryStatusReassigned, map[string]any{
				"resolved_at":       now,
				"response_metadata": types.JSONMap{"reason": "auto_assign_disabled"},
			})
			if err != nil {
				return err
			}
			if won {
				reason := "auto_assign_disabled"
				response := models.AssignmentResponse{
					QueueEntryID: open.ID,
					FreelancerID: open.FreelancerID,
					Status:       enums.ResponseStatusReassigned,
					RespondedBy:  actorID,
					RespondedAt:  now,
					ReasonCode:   &reason,
				}
				if err := tx.WithContext(ctx).Create(&response).Error; err != nil && !dbpkg.IsUniqueViolation(err, "") {
					return err
				}
				s.observeTransition(enums.QueueEntryStatusReassigned)
			}
		}
		if err := s.events.RecordTx(ctx, tx, events.RecordInput{
			TargetType: targetType,
			TargetID:   targetID,
			ActorID:    actorID,
			EventType:  enums.AssignmentEventDisabled,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAutoAssignDisabled,
			AggregateType: enums.AggregateAssignmentTarget,
			AggregateID:   targetID,
			Version:       1,
			OccurredAt:    s.now().UTC(),
			Actor:         actorRef(actorID),
			Data: payloads.QueueLifecycleEvent{
				TargetType: targetType,
				TargetID:   targetID,
				OccurredAt: s.now().UTC(),
			},
		})
	})
}

// ResolveInput carries the details of a human or system resolution.
type ResolveInput struct {
	EntryID     uuid.UUID
	RespondedBy *uuid.UUID
	ReasonCode  *string
	ReasonLabel *string
	Notes       *string
	Metadata    types.JSONMap
}

// Accept resolves a notified entry as accepted, marks the target assigned,
// and ends the dispatch run.
func (s *Service) Accept(ctx context.Context, input ResolveInput) error {
	var accepted *models.AutoAssignQueueEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.resolveEntry(ctx, tx, input, enums.QueueEntryStatusAccepted, enums.ResponseStatusAccepted)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		assigned, err := s.catalogRepo.WithTx(tx).MarkAssigned(ctx, entry.TargetType, entry.TargetID, entry.FreelancerID, now)
		if err != nil {
			return err
		}
		if !assigned {
			return apperrors.New(apperrors.CodeConflict, "target already assigned")
		}
		if err := s.events.RecordTx(ctx, tx, events.RecordInput{
			TargetType: entry.TargetType,
			TargetID:   entry.TargetID,
			ActorID:    input.RespondedBy,
			EventType:  enums.AssignmentEventCompleted,
			Payload:    types.JSONMap{"freelancer_id": entry.FreelancerID.String()},
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferAccepted,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    now,
			Actor:         actorRef(input.RespondedBy),
			Data: payloads.OfferResolvedEvent{
				QueueEntryID: entry.ID,
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				Status:       enums.QueueEntryStatusAccepted,
				ResolvedAt:   now,
				AutoAccepted: input.RespondedBy == nil,
			},
		}); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTargetAssigned,
			AggregateType: enums.AggregateAssignmentTarget,
			AggregateID:   entry.TargetID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.TargetAssignedEvent{
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				ProjectValue: entry.ProjectValue,
				AssignedAt:   now,
			},
		}); err != nil {
			return err
		}
		accepted = entry
		return nil
	})
	if err != nil {
		return err
	}
	s.observeTransition(enums.QueueEntryStatusAccepted)
	logCtx := s.logg.WithEntryID(ctx, accepted.ID.String())
	s.logg.Info(logCtx, "offer accepted")
	return nil
}

// Decline resolves a notified entry as declined and continues the cascade
// with the next candidate.
func (s *Service) Decline(ctx context.Context, input ResolveInput) error {
	var declined *models.AutoAssignQueueEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entry, err := s.resolveEntry(ctx, tx, input, enums.QueueEntryStatusDeclined, enums.ResponseStatusDeclined)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferDeclined,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    now,
			Actor:         actorRef(input.RespondedBy),
			Data: payloads.OfferResolvedEvent{
				QueueEntryID: entry.ID,
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				Status:       enums.QueueEntryStatusDeclined,
				ResolvedAt:   now,
			},
		}); err != nil {
			return err
		}
		declined = entry
		return nil
	})
	if err != nil {
		return err
	}
	s.observeTransition(enums.QueueEntryStatusDeclined)
	return s.reassign(ctx, declined.TargetType, declined.TargetID)
}

// resolveEntry performs the guarded notified→terminal transition and records
// the response row, all inside the caller's transaction.
func (s *Service) resolveEntry(ctx context.Context, tx *gorm.DB, input ResolveInput, to enums.QueueEntryStatus, responseStatus enums.ResponseStatus) (*models.AutoAssignQueueEntry, error) {
	repo := s.repo.WithTx(tx)
	entry, err := repo.FindEntry(ctx, input.EntryID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.New(apperrors.CodeNotFound, "queue entry not found")
		}
		return nil, err
	}
	now := s.now().UTC()
	updates := map[string]any{"resolved_at": now}
	if len(input.Metadata) > 0 {
		updates["response_metadata"] = input.Metadata
	}
	won, err := repo.TransitionStatus(ctx, entry.ID, enums.QueueEntryStatusNotified, to, updates)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperrors.New(apperrors.CodeInvalidTransition, "queue entry already resolved")
	}
	response := models.AssignmentResponse{
		QueueEntryID:  entry.ID,
		FreelancerID:  entry.FreelancerID,
		Status:        responseStatus,
		RespondedBy:   input.RespondedBy,
		RespondedAt:   now,
		ReasonCode:    input.ReasonCode,
		ReasonLabel:   input.ReasonLabel,
		ResponseNotes: input.Notes,
		Metadata:      input.Metadata,
	}
	if err := tx.WithContext(ctx).Create(&response).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_assignment_responses_queue_entry") {
			return nil, apperrors.New(apperrors.CodeDuplicateResponse, "entry already has a response")
		}
		return nil, err
	}
	entry.Status = to
	entry.ResolvedAt = &now
	return entry, nil
}

// ExpireDue is the idempotent expiry sweep: every notified entry whose window
// has passed is transitioned to expired, racing responses win cleanly, and
// each expiry triggers the reassignment cascade.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.repo.ExpiredNotifiedEntries(ctx, now, 0)
	if err != nil {
		return 0, fmt.Errorf("query expired entries: %w", err)
	}
	expired := 0
	var errs error
	for _, entry := range due {
		won, err := s.expireEntry(ctx, entry)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire entry %s: %w", entry.ID, err))
			continue
		}
		if !won {
			continue
		}
		expired++
		if err := s.reassign(ctx, entry.TargetType, entry.TargetID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reassign %s %s: %w", entry.TargetType, entry.TargetID, err))
		}
	}
	return expired, errs
}

func (s *Service) expireEntry(ctx context.Context, entry models.AutoAssignQueueEntry) (bool, error) {
	var won bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.QueueEntryStatusNotified {
			return nil
		}
		now := s.now().UTC()
		won, err = repo.TransitionStatus(ctx, entry.ID, enums.QueueEntryStatusNotified, enums.QueueEntryStatusExpired, map[string]any{
			"resolved_at": now,
		})
		if err != nil || !won {
			return err
		}
		if err := s.notifier.SendTx(ctx, tx, notify.Input{
			RecipientID: entry.FreelancerID,
			Type:        enums.NotificationTypeOfferExpired,
			Title:       "Offer expired",
			Message:     "An offer expired before you responded.",
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferExpired,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OfferResolvedEvent{
				QueueEntryID: entry.ID,
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				Status:       enums.QueueEntryStatusExpired,
				ResolvedAt:   now,
			},
		})
	})
	if err != nil {
		return false, err
	}
	if won {
		s.observeTransition(enums.QueueEntryStatusExpired)
	}
	return won, nil
}

// reassign marks the expired/declined entry's slot free and offers the next
// candidate, unless the target has been disabled or assigned meanwhile.
func (s *Service) reassign(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID) error {
	target, err := s.catalog.Get(ctx, targetType, targetID)
	if err != nil {
		return err
	}
	if !target.AutoAssignEnabled || target.AssignedFreelancerID != nil {
		return nil
	}
	return s.dispatchNext(ctx, target, false)
}

// dispatchNext runs the cascade: pick the best remaining candidate, create a
// pending entry, and notify (or defer). The loop is bounded by the candidate
// list plus a slop margin; the exclusion set strictly grows each iteration so
// the cascade always terminates. newRun marks a fresh enable, which announces
// the generated queue alongside its first entry; continuation rounds never
// re-announce, no matter what the target's entry history looks like.
func (s *Service) dispatchNext(ctx context.Context, target *models.AssignmentTarget, newRun bool) error {
	offered, err := s.repo.OfferedFreelancerIDs(ctx, target.TargetType, target.TargetID)
	if err != nil {
		return fmt.Errorf("load offered freelancers: %w", err)
	}
	exclude := make(map[uuid.UUID]struct{}, len(offered))
	for _, id := range offered {
		exclude[id] = struct{}{}
	}

	candidates, err := s.selector.Select(ctx, SelectInput{
		TargetType:   target.TargetType,
		TargetID:     target.TargetID,
		ProjectValue: target.ProjectValue,
		Exclude:      exclude,
	})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return s.recordExhausted(ctx, target, len(offered))
	}

	maxAttempts := len(candidates) + s.cascadeSlop
	attempts := 0
	for _, candidate := range candidates {
		if attempts >= maxAttempts {
			break
		}
		attempts++
		done, err := s.offerCandidate(ctx, target, candidate, newRun && attempts == 1)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return s.recordExhausted(ctx, target, len(offered)+attempts)
}

// offerCandidate creates the pending entry and drives it to notified or
// deferred. Returns done=false when the candidate failed the notify-time
// eligibility re-check and the cascade should continue.
func (s *Service) offerCandidate(ctx context.Context, target *models.AssignmentTarget, candidate Candidate, firstRound bool) (bool, error) {
	entry := &models.AutoAssignQueueEntry{
		TargetType:     target.TargetType,
		TargetID:       target.TargetID,
		FreelancerID:   candidate.FreelancerID,
		Score:          candidate.Score,
		PriorityBucket: candidate.Bucket,
		Status:         enums.QueueEntryStatusPending,
		ProjectValue:   target.ProjectValue,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateEntry(ctx, entry); err != nil {
			return err
		}
		if firstRound {
			if err := s.events.RecordTx(ctx, tx, events.RecordInput{
				TargetType: target.TargetType,
				TargetID:   target.TargetID,
				EventType:  enums.AssignmentEventQueueGenerated,
				Payload:    types.JSONMap{"first_freelancer_id": candidate.FreelancerID.String()},
			}); err != nil {
				return err
			}
			if err := s.notifier.SendTx(ctx, tx, notify.Input{
				RecipientID: target.RequesterID,
				Type:        enums.NotificationTypeQueueGenerated,
				Title:       "Auto-assign queue generated",
				Message:     fmt.Sprintf("Candidates lined up for %s.", target.Title),
			}); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQueueGenerated,
				AggregateType: enums.AggregateAssignmentTarget,
				AggregateID:   target.TargetID,
				Version:       1,
				OccurredAt:    s.now().UTC(),
				Data: payloads.QueueLifecycleEvent{
					TargetType: target.TargetType,
					TargetID:   target.TargetID,
					OccurredAt: s.now().UTC(),
				},
			})
		}
		return nil
	})
	if err != nil {
		// A concurrent dispatcher holds the open slot for this target.
		if dbpkg.IsUniqueViolation(err, "ux_queue_entries_open_per_target") {
			return true, nil
		}
		return false, err
	}
	if s.dispatch != nil {
		s.dispatch.IncOfferCreated(string(target.TargetType))
	}

	if candidate.DeferUntil != nil {
		return true, s.deferEntry(ctx, target, entry, *candidate.DeferUntil, candidate.DeferReason)
	}
	return s.notifyEntry(ctx, target, entry)
}

// notifyEntry drives pending→notified: re-checks eligibility, sets the offer
// window, bumps the optimistic metrics counters, writes the candidate's
// notification, and honors the auto-accept threshold.
func (s *Service) notifyEntry(ctx context.Context, target *models.AssignmentTarget, entry *models.AutoAssignQueueEntry) (bool, error) {
	pref, err := s.preferences.GetPreference(ctx, entry.FreelancerID)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	if pref.AvailabilityStatus == enums.AvailabilityStatusUnavailable {
		return s.cancelIneligible(ctx, entry, "unavailable")
	}
	if until, reason := deferralFor(pref, now); until != nil {
		// Preference changed between selection and notify; defer instead
		// of burning the candidate.
		return true, s.deferEntry(ctx, target, entry, *until, reason)
	}

	expiresAt := now.Add(s.offerWindow)
	var won bool
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		won, err = s.repo.WithTx(tx).TransitionStatus(ctx, entry.ID, enums.QueueEntryStatusPending, enums.QueueEntryStatusNotified, map[string]any{
			"notified_at": now,
			"expires_at":  expiresAt,
		})
		if err != nil || !won {
			return err
		}
		if err := s.notifier.SendTx(ctx, tx, notify.Input{
			RecipientID: entry.FreelancerID,
			Type:        enums.NotificationTypeOfferReceived,
			Title:       "New offer",
			Message:     fmt.Sprintf("You have been matched with %s.", target.Title),
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferNotified,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    now,
			Data: payloads.OfferNotifiedEvent{
				QueueEntryID: entry.ID,
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				ProjectValue: entry.ProjectValue,
				ExpiresAt:    expiresAt,
			},
		})
	})
	if err != nil {
		return false, err
	}
	if !won {
		// Lost the race to a concurrent dispatcher; that dispatcher owns
		// the entry now.
		return true, nil
	}
	s.observeTransition(enums.QueueEntryStatusNotified)
	logCtx := s.logg.WithEntryID(ctx, entry.ID.String())
	logCtx = s.logg.WithFreelancerID(logCtx, entry.FreelancerID.String())
	s.logg.Info(logCtx, "candidate notified")

	// The counter bump is optimistic and deliberately outside the transition
	// transaction; the recompute job reconciles, so a miss is only log-worthy.
	if err := s.metrics.BumpAssigned(ctx, entry.FreelancerID); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "assigned counter bump failed")
	}

	if pref.AutoAcceptThreshold != nil && entry.Score >= *pref.AutoAcceptThreshold {
		if err := s.Accept(ctx, ResolveInput{
			EntryID:  entry.ID,
			Metadata: types.JSONMap{"responded_by": "system", "reason": "auto_accept_threshold"},
		}); err != nil {
			if apperr := apperrors.As(err); apperr != nil && apperr.Code() == apperrors.CodeInvalidTransition {
				return true, nil
			}
			return false, err
		}
	}
	return true, nil
}

// deferEntry leaves the entry pending (no expiry clock) and schedules a wake
// at the quiet-hour end or snooze lift.
func (s *Service) deferEntry(ctx context.Context, target *models.AssignmentTarget, entry *models.AutoAssignQueueEntry, wakeAt time.Time, reason string) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		wake := &models.DispatchWake{
			TargetType:   entry.TargetType,
			TargetID:     entry.TargetID,
			FreelancerID: entry.FreelancerID,
			WakeAt:       wakeAt,
		}
		if err := s.repo.WithTx(tx).CreateWake(ctx, wake); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_dispatch_wakes_pending") {
				return nil
			}
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferDeferred,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   entry.ID,
			Version:       1,
			OccurredAt:    s.now().UTC(),
			Data: payloads.OfferDeferredEvent{
				QueueEntryID: entry.ID,
				TargetType:   entry.TargetType,
				TargetID:     entry.TargetID,
				FreelancerID: entry.FreelancerID,
				WakeAt:       wakeAt,
			},
		})
	})
	if err != nil {
		return err
	}
	if s.dispatch != nil {
		s.dispatch.IncDeferral(reason)
	}
	logCtx := s.logg.WithEntryID(ctx, entry.ID.String())
	logCtx = s.logg.WithField(logCtx, "wake_at", wakeAt)
	s.logg.Info(logCtx, "offer deferred")
	return nil
}

// cancelIneligible retires a pending entry whose candidate failed the
// notify-time re-check and lets the cascade continue.
func (s *Service) cancelIneligible(ctx context.Context, entry *models.AutoAssignQueueEntry, reason string) (bool, error) {
	now := s.now().UTC()
	won, err := s.repo.TransitionStatus(ctx, entry.ID, enums.QueueEntryStatusPending, enums.QueueEntryStatusReassigned, map[string]any{
		"resolved_at":       now,
		"response_metadata": types.JSONMap{"reason": "eligibility_" + reason},
	})
	if err != nil {
		return false, err
	}
	if !won {
		return true, nil
	}
	s.observeTransition(enums.QueueEntryStatusReassigned)
	return false, nil
}

// recordExhausted ends the dispatch run without assignment.
func (s *Service) recordExhausted(ctx context.Context, target *models.AssignmentTarget, offeredCount int) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.events.RecordTx(ctx, tx, events.RecordInput{
			TargetType: target.TargetType,
			TargetID:   target.TargetID,
			EventType:  enums.AssignmentEventQueueExhausted,
			Payload:    types.JSONMap{"offered_count": offeredCount},
		}); err != nil {
			return err
		}
		if err := s.notifier.SendTx(ctx, tx, notify.Input{
			RecipientID: target.RequesterID,
			Type:        enums.NotificationTypeQueueExhausted,
			Title:       "No candidates left",
			Message:     fmt.Sprintf("Every candidate for %s was offered without an acceptance.", target.Title),
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQueueExhausted,
			AggregateType: enums.AggregateAssignmentTarget,
			AggregateID:   target.TargetID,
			Version:       1,
			OccurredAt:    s.now().UTC(),
			Data: payloads.QueueLifecycleEvent{
				TargetType:   target.TargetType,
				TargetID:     target.TargetID,
				OfferedCount: offeredCount,
				OccurredAt:   s.now().UTC(),
			},
		})
	})
	if err != nil {
		return err
	}
	if s.dispatch != nil {
		s.dispatch.IncQueueExhausted(string(target.TargetType))
	}
	logCtx := s.logg.WithTargetID(ctx, target.TargetID.String())
	s.logg.Warn(logCtx, "candidate pool exhausted")
	return nil
}

// RunWake consumes a due wake and retries the deferred notify. A failed
// retry puts the wake back, so the next sweep resumes the run instead of
// leaving the deferred entry stranded without an expiry clock.
func (s *Service) RunWake(ctx context.Context, wake models.DispatchWake) error {
	claimed, err := s.repo.ConsumeWake(ctx, wake.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	if err := s.resumeDeferred(ctx, wake); err != nil {
		requeue := &models.DispatchWake{
			TargetType:   wake.TargetType,
			TargetID:     wake.TargetID,
			FreelancerID: wake.FreelancerID,
			WakeAt:       wake.WakeAt,
		}
		if createErr := s.repo.CreateWake(ctx, requeue); createErr != nil && !dbpkg.IsUniqueViolation(createErr, "ux_dispatch_wakes_pending") {
			return multierr.Append(err, createErr)
		}
		return err
	}
	return nil
}

func (s *Service) resumeDeferred(ctx context.Context, wake models.DispatchWake) error {
	target, err := s.catalog.Get(ctx, wake.TargetType, wake.TargetID)
	if err != nil {
		if apperr := apperrors.As(err); apperr != nil && apperr.Code() == apperrors.CodeNotFound {
			return nil
		}
		return err
	}
	if !target.AutoAssignEnabled || target.AssignedFreelancerID != nil {
		return nil
	}
	open, err := s.repo.FindOpenEntry(ctx, wake.TargetType, wake.TargetID)
	if err != nil {
		if isNotFound(err) {
			return s.dispatchNext(ctx, target, false)
		}
		return err
	}
	if open.Status != enums.QueueEntryStatusPending || open.FreelancerID != wake.FreelancerID {
		return nil
	}
	_, err = s.notifyEntry(ctx, target, open)
	return err
}

// CurrentQueue returns the open entry (if any) plus the target's entry
// history, newest first.
func (s *Service) CurrentQueue(ctx context.Context, targetType enums.TargetType, targetID uuid.UUID, limit int, cursor *pagination.Cursor) (*models.AutoAssignQueueEntry, []models.AutoAssignQueueEntry, *pagination.Cursor, error) {
	open, err := s.repo.FindOpenEntry(ctx, targetType, targetID)
	if err != nil && !isNotFound(err) {
		return nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "load open entry")
	}
	history, next, err := s.repo.ListByTarget(ctx, targetType, targetID, limit, cursor)
	if err != nil {
		return nil, nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "list queue entries")
	}
	return open, history, next, nil
}

// FreelancerOffers lists a freelancer's own entries, newest first.
func (s *Service) FreelancerOffers(ctx context.Context, freelancerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.AutoAssignQueueEntry, *pagination.Cursor, error) {
	entries, next, err := s.repo.ListByFreelancer(ctx, freelancerID, limit, cursor)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, err, "list freelancer offers")
	}
	return entries, next, nil
}

func (s *Service) observeTransition(status enums.QueueEntryStatus) {
	if s.dispatch == nil {
		return
	}
	s.dispatch.IncTransition(string(status))
}

func actorRef(actorID *uuid.UUID) *outbox.ActorRef {
	if actorID == nil {
		return nil
	}
	return &outbox.ActorRef{ActorID: *actorID}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
