package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func outboxTestService(db *gorm.DB) *Service {
	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
	return NewService(NewRepository(db), logg)
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := outboxTestService(db)
	ctx := context.Background()
	aggregateID := uuid.New()
	actorID := uuid.New()
	occurred := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventOfferNotified,
			AggregateType: enums.AggregateQueueEntry,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{ActorID: actorID, Role: "requester"},
			Data:          map[string]string{"offerWindow": "24h"},
			Version:       1,
			OccurredAt:    occurred,
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.Where("aggregate_id = ?", aggregateID).First(&row).Error)
	assert.Equal(t, enums.EventOfferNotified, row.EventType)
	assert.Nil(t, row.PublishedAt)
	assert.Zero(t, row.AttemptCount)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.True(t, envelope.OccurredAt.Equal(occurred))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.ActorID)

	var data map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "24h", data["offerWindow"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := outboxTestService(db)

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOfferNotified,
		AggregateType: enums.AggregateQueueEntry,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}

func TestMarkFailedThenPublished(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOfferDeclined,
		AggregateType: enums.AggregateQueueEntry,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, db.Create(&row).Error)

	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("broker unavailable")))
	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("broker unavailable")))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, 2, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "broker unavailable", *stored.LastError)
	assert.Nil(t, stored.PublishedAt)

	require.NoError(t, repo.MarkPublishedTx(db, row.ID))
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.NotNil(t, stored.PublishedAt)
}

func TestDeletePublishedBeforeSparesRetryableRows(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	published := now.Add(-time.Hour)
	seed := func(created time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
		row := models.OutboxEvent{
			ID:            uuid.New(),
			EventType:     enums.EventQueueGenerated,
			AggregateType: enums.AggregateAssignmentTarget,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			CreatedAt:     created,
			PublishedAt:   publishedAt,
			AttemptCount:  attempts,
		}
		require.NoError(t, db.Create(&row).Error)
		return row.ID
	}

	seed(old, &published, 1)       // old and published: pruned
	seed(old, nil, 6)              // old, attempts exhausted: pruned
	retryable := seed(old, nil, 2) // old but still retryable: kept
	seed(now, &published, 1)       // recent: kept

	removed, err := repo.DeletePublishedBefore(ctx, db, now.Add(-30*24*time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.Contains(t, ids, retryable)
}
