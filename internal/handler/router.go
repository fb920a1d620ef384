package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	activityHandler "github.com/zhouzirui/bookshelf/backend/internal/handler/activity"
	bookHandler "github.com/zhouzirui/bookshelf/backend/internal/handler/book"
	feedHandler "github.com/zhouzirui/bookshelf/backend/internal/handler/feed"
	middlewarePkg "github.com/zhouzirui/bookshelf/backend/internal/middleware"
	"github.com/zhouzirui/bookshelf/backend/internal/service/activity"
	"github.com/zhouzirui/bookshelf/backend/internal/service/feed"
	"github.com/zhouzirui/bookshelf/backend/internal/service/library"
	"github.com/zhouzirui/bookshelf/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(logger *zap.Logger, books *library.Service, hub *feed.Hub, recorder activity.Recorder, heartbeat time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(api chi.Router) {
		// Book requests made with ?username= show up under /api/activity/{username}.
		api.Group(func(tracked chi.Router) {
			tracked.Use(middlewarePkg.Activity(recorder, logger))
			bookHandler.New(books, logger).RegisterRoutes(tracked)
		})

		feedHandler.New(hub, heartbeat, logger).RegisterRoutes(api)
		activityHandler.New(recorder, logger).RegisterRoutes(api)
	})

	return r
}
