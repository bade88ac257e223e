package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/talentmatch-backend/internal/catalog"
	"github.com/angelmondragon/talentmatch-backend/internal/cron"
	"github.com/angelmondragon/talentmatch-backend/internal/directory"
	"github.com/angelmondragon/talentmatch-backend/internal/dispatch"
	"github.com/angelmondragon/talentmatch-backend/internal/events"
	"github.com/angelmondragon/talentmatch-backend/internal/freelancers"
	"github.com/angelmondragon/talentmatch-backend/internal/notify"
	"github.com/angelmondragon/talentmatch-backend/internal/scoring"
	"github.com/angelmondragon/talentmatch-backend/pkg/config"
	"github.com/angelmondragon/talentmatch-backend/pkg/db"
	"github.com/angelmondragon/talentmatch-backend/pkg/instance"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/metrics"
	"github.com/angelmondragon/talentmatch-backend/pkg/migrate"
	"github.com/angelmondragon/talentmatch-backend/pkg/outbox"
	"github.com/angelmondragon/talentmatch-backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	dispatchRepo := dispatch.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	freelancerRepo := freelancers.NewRepository(gormDB)
	freelancerService := freelancers.NewService(freelancerRepo)
	eventService := events.NewService(events.NewRepository(gormDB))
	notifyService := notify.NewService(notify.NewRepository(gormDB), logg)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)

	selector := dispatch.NewSelector(
		directory.NewRepository(gormDB),
		freelancerService,
		dispatchRepo,
		scoring.NewScorer(cfg.Dispatch.RecencyLookback),
	)
	engine, err := dispatch.NewService(dispatch.ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Repo:        dispatchRepo,
		Selector:    selector,
		Catalog:     catalog.NewService(catalogRepo),
		CatalogRepo: catalogRepo,
		Preferences: freelancerService,
		Metrics:     freelancerRepo,
		Events:      eventService,
		Notifier:    notifyService,
		Outbox:      outboxService,
		Dispatch:    dispatchMetrics,
		OfferWindow: cfg.Dispatch.OfferWindow,
		CascadeSlop: cfg.Dispatch.ReassignCascadeSlop,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch engine", err)
		os.Exit(1)
	}

	sweepJob, err := cron.NewExpirySweepJob(cron.ExpirySweepJobParams{
		Logger: logg,
		Engine: engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry sweep job", err)
		os.Exit(1)
	}
	wakeJob, err := cron.NewDispatchWakeJob(cron.DispatchWakeJobParams{
		Logger: logg,
		Wakes:  dispatchRepo,
		Engine: engine,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch wake job", err)
		os.Exit(1)
	}
	recomputeJob, err := cron.NewMetricsRecomputeJob(cron.MetricsRecomputeJobParams{
		Logger:     logg,
		Aggregates: freelancers.NewRecomputeRepository(gormDB),
		Repository: freelancerRepo,
		Service:    freelancerService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create metrics recompute job", err)
		os.Exit(1)
	}
	wakeRetentionJob, err := cron.NewWakeRetentionJob(cron.WakeRetentionJobParams{
		Logger:    logg,
		Wakes:     dispatchRepo,
		Retention: cfg.Cron.WakeRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wake retention job", err)
		os.Exit(1)
	}
	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notify.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}
	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(gormDB),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(sweepJob, wakeJob, recomputeJob, wakeRetentionJob, notificationCleanupJob, outboxRetentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
