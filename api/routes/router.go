package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/talentmatch-backend/api/controllers"
	"github.com/angelmondragon/talentmatch-backend/api/middleware"
	"github.com/angelmondragon/talentmatch-backend/pkg/config"
	"github.com/angelmondragon/talentmatch-backend/pkg/logger"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Dispatch      controllers.DispatchService
	Offers        controllers.OfferReader
	Preferences   controllers.PreferenceService
	Responses     controllers.ResponseRecorder
	Events        controllers.EventHistoryService
	Notifications controllers.NotificationService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/targets/{targetType}/{targetId}", func(r chi.Router) {
			r.Post("/auto-assign/enable", controllers.EnableAutoAssign(svcs.Dispatch, logg))
			r.Post("/auto-assign/disable", controllers.DisableAutoAssign(svcs.Dispatch, logg))
			r.Get("/queue", controllers.TargetQueue(svcs.Dispatch, logg))
			r.Get("/events", controllers.TargetEvents(svcs.Events, logg))
		})

		r.Post("/queue-entries/{entryId}/response", controllers.RecordQueueEntryResponse(svcs.Responses, logg))

		r.Route("/freelancers/{freelancerId}", func(r chi.Router) {
			r.Get("/offers", controllers.FreelancerOffers(svcs.Offers, logg))
			r.Get("/preferences", controllers.FreelancerPreferences(svcs.Preferences, logg))
			r.Put("/preferences", controllers.UpdateFreelancerPreferences(svcs.Preferences, logg))
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			})
		})
	})

	return r
}
