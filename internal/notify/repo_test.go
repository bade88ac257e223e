package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	apperrors "github.com/angelmondragon/talentmatch-backend/pkg/errors"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

func setupNotifyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  recipient_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, recipientID uuid.UUID, read bool, created time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Type:        enums.NotificationTypeOfferReceived,
		Title:       "New offer",
		Message:     "You have been matched with a project",
		CreatedAt:   created,
	}
	if read {
		readAt := created.Add(time.Minute)
		notification.ReadAt = &readAt
	}
	require.NoError(t, db.Create(notification).Error)
	return notification
}

func TestSendTxWritesRow(t *testing.T) {
	db := setupNotifyTestDB(t)
	svc := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	recipientID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SendTx(context.Background(), tx, Input{
			RecipientID: recipientID,
			Type:        enums.NotificationTypeQueueGenerated,
			Title:       "Queue generated",
			Message:     "Candidates are being contacted",
		})
	})
	require.NoError(t, err)

	var stored models.Notification
	require.NoError(t, db.Where("recipient_id = ?", recipientID).First(&stored).Error)
	assert.Equal(t, enums.NotificationTypeQueueGenerated, stored.Type)
	assert.Nil(t, stored.ReadAt)
}

func TestListFiltersUnreadAndPaginates(t *testing.T) {
	db := setupNotifyTestDB(t)
	svc := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	ctx := context.Background()
	recipientID := uuid.New()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	seedNotification(t, db, recipientID, true, base)
	seedNotification(t, db, recipientID, false, base.Add(time.Minute))
	seedNotification(t, db, recipientID, false, base.Add(2*time.Minute))
	seedNotification(t, db, uuid.New(), false, base)

	unread, cursor, err := svc.List(ctx, ListParams{RecipientID: recipientID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 2)
	assert.Nil(t, cursor)

	page, cursor, err := svc.List(ctx, ListParams{RecipientID: recipientID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, cursor, err := svc.List(ctx, ListParams{RecipientID: recipientID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, cursor)
	assert.True(t, rest[0].CreatedAt.Equal(base))
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db := setupNotifyTestDB(t)
	svc := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	ctx := context.Background()
	recipientID := uuid.New()
	notification := seedNotification(t, db, recipientID, false, time.Now().UTC())

	require.NoError(t, svc.MarkRead(ctx, recipientID, notification.ID))

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", notification.ID).Error)
	require.NotNil(t, stored.ReadAt)
	firstRead := *stored.ReadAt

	// Marking again keeps the original read timestamp.
	require.NoError(t, svc.MarkRead(ctx, recipientID, notification.ID))
	require.NoError(t, db.First(&stored, "id = ?", notification.ID).Error)
	require.NotNil(t, stored.ReadAt)
	assert.True(t, stored.ReadAt.Equal(firstRead))
}

func TestMarkReadRejectsForeignRecipient(t *testing.T) {
	db := setupNotifyTestDB(t)
	svc := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "test"}))
	ctx := context.Background()
	notification := seedNotification(t, db, uuid.New(), false, time.Now().UTC())

	err := svc.MarkRead(ctx, uuid.New(), notification.ID)
	apperr := apperrors.As(err)
	require.NotNil(t, apperr)
	assert.Equal(t, apperrors.CodeNotFound, apperr.Code())

	err = svc.MarkRead(ctx, notification.RecipientID, uuid.New())
	apperr = apperrors.As(err)
	require.NotNil(t, apperr)
	assert.Equal(t, apperrors.CodeNotFound, apperr.Code())
}

func TestDeleteReadBeforeKeepsUnread(t *testing.T) {
	db := setupNotifyTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	recipientID := uuid.New()
	now := time.Now().UTC()

	seedNotification(t, db, recipientID, true, now.Add(-60*24*time.Hour))
	seedNotification(t, db, recipientID, false, now.Add(-60*24*time.Hour))
	seedNotification(t, db, recipientID, true, now.Add(-time.Hour))

	removed, err := repo.DeleteReadBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
