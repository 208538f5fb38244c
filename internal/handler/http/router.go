package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telubhanuprasad/firestore-item-showcase/pkg/health"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/middleware"
)

// RouterConfig holds the tunables of the HTTP surface.
type RouterConfig struct {
	CORS middleware.CORSConfig

	// ReviewRateLimitRPS and ReviewRateLimitBurst throttle review submissions
	// per client IP. A non-positive rate disables the limit.
	ReviewRateLimitRPS   float64
	ReviewRateLimitBurst int
}

// Deps are the collaborators the router serves.
type Deps struct {
	Items    ItemService
	Reviews  ReviewService
	Health   *health.Handler
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter creates a chi router with all showcase routes registered.
// Background work started for the router (rate limiter eviction) stops when
// ctx is done.
func NewRouter(ctx context.Context, deps Deps, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Health and metrics endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	itemHandler := NewItemHandler(deps.Items, deps.Logger)
	r.Route("/api/v1/items", func(r chi.Router) {
		r.Get("/", itemHandler.ListItems)
	})

	reviewHandler := NewReviewHandler(deps.Reviews, deps.Logger)
	limit := middleware.RateLimit(ctx, cfg.ReviewRateLimitRPS, cfg.ReviewRateLimitBurst, deps.Logger)

	r.Route("/api/v1/items/{itemId}/reviews", func(r chi.Router) {
		r.Use(middleware.ItemScope("itemId"))
		r.Use(middleware.ContentTypeJSON)

		r.Get("/", reviewHandler.ListReviews)
		r.With(limit).Post("/", reviewHandler.CreateReview)
	})

	return r
}
