package api

import (
	"net/http"

	"guidetrack/internal/health"
	"guidetrack/internal/observability"
	"guidetrack/internal/track"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Tracker       *track.Tracker
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
	APIKey        string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Tracker, cfg.HealthChecker)

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes) - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	// Guide endpoints - auth required
	authMiddleware := AuthMiddleware(cfg.APIKey)
	mux.Handle("POST /v1/guides", authMiddleware(http.HandlerFunc(handler.SubmitGuide)))
	mux.Handle("GET /v1/guides", authMiddleware(http.HandlerFunc(handler.ListGuides)))
	mux.Handle("GET /v1/guides/{localId}", authMiddleware(http.HandlerFunc(handler.GetGuide)))
	mux.Handle("POST /v1/guides/{localId}/refresh", authMiddleware(http.HandlerFunc(handler.RefreshGuide)))

	// Apply middleware chain (order matters: outermost first)
	var h http.Handler = mux
	h = CORSMiddleware()(h)
	if cfg.Metrics != nil {
		h = MetricsMiddleware(cfg.Metrics)(h)
	}
	h = LoggingMiddleware()(h)
	h = RecoveryMiddleware()(h)

	return h
}
