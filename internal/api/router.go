// Package api provides the HTTP API for GrainGuard.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/api/handler"
	"github.com/grainguard/grainguard/internal/api/middleware"
	"github.com/grainguard/grainguard/internal/assessment"
	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/fusion"
	"github.com/grainguard/grainguard/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version          string
	BuildTime        string
	Logger           zerolog.Logger
	ServiceName      string
	Metrics          *middleware.Metrics
	OperatorSecret   []byte
	Orchestrator     *fusion.Orchestrator
	Assessments      *assessment.Service
	FeatureFlags     *featureflags.Service
	ProviderRegistry *resilience.Registry
	ReadinessChecks  map[string]handler.ReadinessCheckFunc
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "grainguard-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ProviderRegistry, cfg.ReadinessChecks)
	scoreHandler := handler.NewScoreHandler(cfg.Assessments)
	snapshotHandler := handler.NewSnapshotHandler(cfg.Orchestrator)
	assessmentHandler := handler.NewAssessmentHandler(cfg.Assessments)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlags)

	operatorMiddleware := middleware.Operator(cfg.OperatorSecret)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)       // 30 req/min
	standardRateLimit := middleware.RateLimitByOperator(middleware.StandardRateLimit)   // 100 req/min
	snapshotRateLimit := middleware.RateLimitByOperator(middleware.ExpensiveRateLimit)  // 30 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(operatorMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Scoring endpoints (authenticated)
		r.Route("/score", func(r chi.Router) {
			r.Use(operatorMiddleware)
			r.Use(expensiveRateLimit)
			r.Post("/insights", scoreHandler.ScoreInsights)
			r.Post("/detections", scoreHandler.ScoreDetections)
		})

		// Environmental snapshot (authenticated); refresh/retry fan out to
		// upstream providers and are rate-limited accordingly.
		r.Route("/snapshot", func(r chi.Router) {
			r.Use(operatorMiddleware)
			r.With(standardRateLimit).Get("/", snapshotHandler.GetSnapshot)
			r.With(snapshotRateLimit).Post("/refresh", snapshotHandler.Refresh)
			r.With(snapshotRateLimit).Post("/retry", snapshotHandler.Retry)
		})

		// Persisted assessments (authenticated)
		r.Route("/assessments", func(r chi.Router) {
			r.Use(operatorMiddleware)
			r.Use(standardRateLimit)
			r.Get("/", assessmentHandler.ListAssessments)
			r.Route("/{assessmentId}", func(r chi.Router) {
				r.Get("/", assessmentHandler.GetAssessment)
				r.Delete("/", assessmentHandler.DeleteAssessment)
			})
		})

		// Admin endpoints (authenticated)
		r.Route("/admin", func(r chi.Router) {
			r.Use(operatorMiddleware)
			r.Use(standardRateLimit)
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
