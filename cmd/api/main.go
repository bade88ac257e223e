package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/talentmatch-backend/api/routes"
	"github.com/angelmondragon/talentmatch-backend/internal/catalog"
	"github.com/angelmondragon/talentmatch-backend/internal/directory"
	"github.com/angelmondragon/talentmatch-backend/internal/dispatch"
	"github.com/angelmondragon/talentmatch-backend/internal/events"
	"github.com/angelmondragon/talentmatch-backend/internal/freelancers"
	"github.com/angelmondragon/talentmatch-backend/internal/notify"
	responsesvc "github.com/angelmondragon/talentmatch-backend/internal/responses"
	"github.com/angelmondragon/talentmatch-backend/internal/scoring"
	"github.com/angelmondragon/talentmatch-backend/pkg/config"
	"github.com/angelmondragon/talentmatch-backend/pkg/db"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
	"github.com/angelmondragon/talentmatch-backend/pkg/metrics"
	"github.com/angelmondragon/talentmatch-backend/pkg/migrate"
	"github.com/angelmondragon/talentmatch-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	responseService := responsesvc.NewService(dispatchRepo, responsesvc.NewRepository(gormDB), engine)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Dispatch:      engine,
			Offers:        engine,
			Preferences:   freelancerService,
			Responses:     responseService,
			Events:        eventService,
			Notifications: notifyService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
