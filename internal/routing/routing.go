// Package routing wires handlers, middleware, and instrumentation into the
// HTTP router.
package routing

import (
	"net/http"

	"rookery/internal/handlers"
	"rookery/internal/metrics"
	"rookery/internal/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger

	// TracingEnabled wraps the router in otelhttp instrumentation.
	TracingEnabled bool
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Viewer-facing JSON API
	mux.HandleFunc("GET /api/feed", h.HandleFeed)
	mux.HandleFunc("GET /api/thread", h.HandleThread)
	mux.HandleFunc("GET /api/notifications", h.HandleNotifications)

	// Internal endpoints (reached only over the private network)
	mux.HandleFunc("POST /internal/notifications/drain", h.HandleDrainDeliveries)
	mux.HandleFunc("GET /internal/stats", h.HandleStats)

	// Operational endpoints
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Limit request body size (innermost - runs first on request)
	handler = middleware.LimitBody(handler)

	// 2. Tracing, so spans cover handler time but not logging overhead
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "rookery",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + metrics.NormalizePath(r.URL.Path)
			}))
	}

	// 3. Apply logging middleware (outermost - wraps everything)
	handler = middleware.Logging(cfg.Logger)(handler)

	return handler
}
