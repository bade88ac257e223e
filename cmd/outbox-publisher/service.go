package main

import (
	"context"
	"fmt"
	"time"

	pubsubv2 "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/talentmatch-backend/pkg/config"
	"github.com/angelmondragon/talentmatch-backend/pkg/db/models"
	"github.com/angelmondragon/talentmatch-backend/pkg/enums"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error
}

type topicRouter interface {
	DispatchPublisher() *pubsubv2.Publisher
	NotificationPublisher() *pubsubv2.Publisher
}

// publisher and publishResult mirror the Pub/Sub publisher surface so tests
// can substitute their own.
type publisher interface {
	Publish(ctx context.Context, msg *pubsubv2.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type pubsubPublisher struct {
	inner *pubsubv2.Publisher
}

func (p pubsubPublisher) Publish(ctx context.Context, msg *pubsubv2.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}

// ServiceParams configure the outbox publisher. PublisherFactory overrides
// the aggregate-to-topic routing; leave nil outside tests.
type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               txRunner
	PubSub           topicRouter
	Repository       outboxRepository
	PublisherFactory func(aggregate enums.OutboxAggregateType) publisher
}

// Service drains the transactional outbox into Pub/Sub. Events stay in the
// table until published; rows exceeding the attempt budget are left for the
// retention job (every dispatch fact also lives in assignment_events, so a
// dropped event loses fan-out, not history).
type Service struct {
	cfg              *config.Config
	logg             *logger.Logger
	db               txRunner
	pubsub           topicRouter
	repo             outboxRepository
	publisherFactory func(aggregate enums.OutboxAggregateType) publisher
}

// NewService builds an outbox publisher.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.PubSub == nil {
		return nil, fmt.Errorf("pubsub client required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	service := &Service{
		cfg:              params.Config,
		logg:             params.Logger,
		db:               params.DB,
		pubsub:           params.PubSub,
		repo:             params.Repository,
		publisherFactory: params.PublisherFactory,
	}
	if service.publisherFactory == nil {
		service.publisherFactory = service.defaultPublisher
	}
	return service, nil
}

// Run polls the outbox until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Outbox.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.publishBatch(ctx); err != nil {
				s.logg.Error(ctx, "outbox batch failed", err)
			}
		}
	}
}

// publishBatch locks a batch of unpublished events and pushes each to its
// topic. Publish failures bump the attempt counter and keep the row for the
// next cycle.
func (s *Service) publishBatch(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.cfg.Outbox.BatchSize, s.cfg.Outbox.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch unpublished events: %w", err)
		}
		for _, event := range events {
			if err := s.publishEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) publishEvent(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	pub := s.publisherFactory(event.AggregateType)
	if pub == nil {
		return fmt.Errorf("no publisher for aggregate type %s", event.AggregateType)
	}
	result := pub.Publish(ctx, &pubsubv2.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":   event.ID.String(),
			"event_type": event.EventType,
			"attempt":    event.AttemptCount + 1,
		})
		s.logg.Warn(logCtx, "publish attempt failed")
		return s.repo.MarkFailedTx(tx, event.ID, err)
	}
	if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID.String(),
		"event_type": event.EventType,
	})
	s.logg.Info(logCtx, "outbox event published")
	return nil
}

func (s *Service) defaultPublisher(aggregate enums.OutboxAggregateType) publisher {
	var inner *pubsubv2.Publisher
	if aggregate == enums.AggregateNotification {
		inner = s.pubsub.NotificationPublisher()
	} else {
		inner = s.pubsub.DispatchPublisher()
	}
	if inner == nil {
		return nil
	}
	return pubsubPublisher{inner: inner}
}

var _ outboxRepository = (*outbox.Repository)(nil)
