package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/pagination"
)

// Service writes in-app notification rows. Delivery to external channels
// happens through the outbox publisher; this service only records the in-app
// copy. Failures outside a transaction are logged, never propagated: a
// dispatch transition must not fail because a notification could not be
// written.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a notifier.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{
		repo: repo,
		logg: logg,
	}
}

// Input describes one notification.
type Input struct {
	RecipientID uuid.UUID
	Type        enums.NotificationType
	Title       string
	Message     string
	Link        *string
}

// SendTx writes the notification row inside the caller's transaction and
// returns any error so the caller can decide whether it is fatal.
func (s *Service) SendTx(ctx context.Context, tx *gorm.DB, input Input) error {
	notification := models.Notification{
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Link:        input.Link,
	}
	if err := s.repo.WithTx(tx).Create(ctx, &notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Send writes the notification outside any transaction, logging failures
// instead of returning them.
func (s *Service) Send(ctx context.Context, input Input) {
	notification := models.Notification{
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Link:        input.Link,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		logCtx := s.logg.WithField(ctx, "recipient_id", input.RecipientID.String())
		s.logg.Error(logCtx, "failed to write notification", err)
	}
}

// ListParams filter a recipient's notification feed.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
	UnreadOnly  bool
}

// List returns the recipient's notifications, newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]models.Notification, *pagination.Cursor, error) {
	return s.repo.List(ctx, params.RecipientID, params.Limit, params.Cursor, params.UnreadOnly)
}

// MarkRead stamps one notification as read. Returns NOT_FOUND when the row
// does not exist or belongs to another recipient; marking twice is a no-op.
func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	updated, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !updated {
		return apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	return nil
}
