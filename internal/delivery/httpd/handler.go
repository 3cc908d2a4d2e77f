package httpd

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/models"
	"github.com/rlsguard/stats-service/internal/repository"
	"github.com/rlsguard/stats-service/internal/service"
	"github.com/rlsguard/stats-service/internal/worker"
	"github.com/rlsguard/stats-service/pkg/utils"
)

// WorkerStatsProvider reports queue worker load for the readiness probe.
type WorkerStatsProvider interface {
	GetStats() worker.WorkerStats
}

type Handler struct {
	statistics service.StatisticsService
	store      repository.DataStore
	archive    repository.ArchiveRepository
	workers    WorkerStatsProvider
	logger     zerolog.Logger
	startTime  time.Time
}

// NewHandler builds the HTTP handlers. archive and workers may be nil.
func NewHandler(
	statistics service.StatisticsService,
	store repository.DataStore,
	archive repository.ArchiveRepository,
	workers WorkerStatsProvider,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		statistics: statistics,
		store:      store,
		archive:    archive,
		workers:    workers,
		logger:     logger,
		startTime:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadinessCheck)

	// Path used by the web application's edge function client.
	router.Post("/calculate-class-stats", h.CalculateClassStatistics)
	router.Options("/calculate-class-stats", h.Preflight)

	router.Route("/api/v1/statistics", func(r chi.Router) {
		r.Post("/calculate", h.CalculateClassStatistics)
		r.Options("/calculate", h.Preflight)
		r.Get("/{classroom_id}/latest", h.GetLatestStatistics)
		r.Options("/{classroom_id}/latest", h.Preflight)
		r.Get("/{classroom_id}/history", h.GetStatisticsHistory)
		r.Options("/{classroom_id}/history", h.Preflight)
	})
}

type RouterConfig struct {
	CORS           config.CORSConfig
	RequestTimeout time.Duration
}

// NewRouter returns the chi router with the middleware stack and all routes.
func NewRouter(handler *Handler, cfg RouterConfig, logger zerolog.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(logger))
	router.Use(Recovery(logger))
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
		// Preflights reach Preflight so they get the plain "ok" body.
		OptionsPassthrough: true,
	}))

	handler.RegisterRoutes(router)

	return router
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: message})
}

func (h *Handler) writeInternalError(w http.ResponseWriter, err error) {
	h.writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
	})
}
