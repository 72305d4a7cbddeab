package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/config"
	"learnboard/interfaces/http/rest/handlers"
	"learnboard/interfaces/http/rest/middleware"
	"learnboard/pkg/auth"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/observability"
)

// Services bundles the application services the routes call.
type Services struct {
	Auth         *services.AuthService
	Content      *services.ContentService
	Progress     *services.ProgressService
	Leaderboards *services.LeaderboardService
}

// Router creates and configures the HTTP router
type Router struct {
	cfg           *config.Config
	services      Services
	authenticator *auth.Authenticator
	limiter       auth.RateLimiter
	store         handlers.Pinger
	metrics       *observability.Collector
	logger        *zap.Logger
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	cfg *config.Config,
	svcs Services,
	authenticator *auth.Authenticator,
	limiter auth.RateLimiter,
	store handlers.Pinger,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:           cfg,
		services:      svcs,
		authenticator: authenticator,
		limiter:       limiter,
		store:         store,
		metrics:       metrics,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	errs := apperrors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.Handle(w, r, apperrors.NewNotFoundError("route"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errs.Handle(w, r, apperrors.NewValidationError("method not allowed").WithCode("METHOD_NOT_ALLOWED"))
	})

	health := handlers.NewHealthHandler(rt.store, errs, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	authenticate := middleware.Authenticate(rt.authenticator, errs, rt.logger)
	adminOnly := middleware.RequireAdmin(errs)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			h := handlers.NewAuthHandler(rt.services.Auth, errs, rt.logger)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rt.limiter, rt.cfg.RateLimitRPM, errs, rt.logger))
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", h.Me)
				r.With(adminOnly).Get("/users", h.ListUsers)
				r.With(adminOnly).Patch("/users/{userID}/role", h.UpdateRole)
			})
		})

		content := handlers.NewContentHandler(rt.services.Content, errs, rt.logger)

		r.Route("/languages", func(r chi.Router) {
			r.Get("/", content.ListLanguages)
			r.Get("/{code}", content.GetLanguage)
			r.With(authenticate, adminOnly).Put("/{code}", content.PutLanguage)
		})

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", content.ListTopics)
			r.Get("/{topicID}", content.GetTopic)
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", content.CreateTopic)
				r.Put("/{topicID}", content.UpdateTopic)
				r.Delete("/{topicID}", content.DeleteTopic)
				r.Put("/{topicID}/translations/{lang}", content.PutTranslation(entities.ContentTopic, "topicID"))
			})
		})

		r.Route("/levels", func(r chi.Router) {
			r.Get("/topic/{topicID}", content.ListLevels)
			r.Get("/{levelID}", content.GetLevel)
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", content.CreateLevel)
				r.Put("/{levelID}", content.UpdateLevel)
				r.Delete("/{levelID}", content.DeleteLevel)
				r.Put("/{levelID}/translations/{lang}", content.PutTranslation(entities.ContentLevel, "levelID"))
			})
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/level/{levelID}", content.ListExercises)
			r.Get("/{exerciseID}", content.GetExercise)
			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", content.CreateExercise)
				r.Put("/{exerciseID}", content.UpdateExercise)
				r.Delete("/{exerciseID}", content.DeleteExercise)
				r.Put("/{exerciseID}/translations/{lang}", content.PutTranslation(entities.ContentExercise, "exerciseID"))
			})
		})

		r.Route("/progress", func(r chi.Router) {
			h := handlers.NewProgressHandler(rt.services.Progress, errs, rt.logger)
			r.Use(authenticate)
			r.Post("/submit", h.Submit)
			r.Get("/level/{levelID}", h.LevelProgress)
			r.Get("/exercise/{exerciseID}", h.ExerciseProgress)
			r.Get("/summary", h.Summary)
		})

		r.Route("/leaderboards", func(r chi.Router) {
			h := handlers.NewLeaderboardHandler(rt.services.Leaderboards, errs, rt.logger)
			r.Get("/global", h.Global)
			r.Get("/topic/{topicID}", h.Topic)
			r.Get("/level/{levelID}", h.Level)
			r.Get("/user/{userID}/rank", h.UserRank)
		})
	})

	return router
}
