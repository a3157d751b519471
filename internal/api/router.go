package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bosves/bosves-api/internal/auth"
)

// healthCheckTimeout bounds each dependency probe in GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// No auth required
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", s.metrics.handler())
		r.Post("/auth/token", s.handleToken)
		if s.secCfg.DevTokens {
			r.Post("/auth/dev-token", s.handleDevToken)
		}

		// WebSocket auth is via ticket, validated in the handler
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.rateLimitMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.With(requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

			r.Route("/incoming/wagons", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(requirePermission(auth.PermWagonRead))
					r.Get("/", s.handleListWagons)
					r.Get("/by-date-time-nvag", s.handleFindWagons)
					r.Get("/{id}", s.handleGetWagon)
				})
				r.Group(func(r chi.Router) {
					r.Use(requirePermission(auth.PermWagonWrite))
					r.Post("/", s.handleCreateWagon)
					r.Patch("/{id}", s.handlePatchWagon)
					r.Delete("/{id}", s.handleDeleteWagon)
				})
			})
		})
	})

	return r
}

// handleHealth reports the server and dependency status. A failing database
// makes the service unavailable; MQTT and InfluxDB only degrade it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "unknown",
		"mqtt":     "disabled",
		"influxdb": "disabled",
	}
	if s.db != nil {
		checks["database"] = s.probe(r.Context(), s.db)
	}
	if hc, ok := s.events.(healthChecker); ok {
		checks["mqtt"] = s.probe(r.Context(), hc)
	}
	if hc, ok := s.telemetry.(healthChecker); ok {
		checks["influxdb"] = s.probe(r.Context(), hc)
	}

	status, code := "ok", http.StatusOK
	switch {
	case checks["database"] == "error":
		status, code = "unavailable", http.StatusServiceUnavailable
	case checks["mqtt"] == "error" || checks["influxdb"] == "error":
		status = "degraded"
	}

	writeJSON(w, code, map[string]any{
		"status":         status,
		"version":        s.version,
		"instance_id":    s.instanceID,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"checks":         checks,
	})
}

func (s *Server) probe(ctx context.Context, hc healthChecker) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		return "error"
	}
	return "ok"
}
