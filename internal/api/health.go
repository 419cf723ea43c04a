package api

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{
		"database": "unavailable",
		"cache":    "unavailable",
		"stream":   "disabled",
	}
	healthy := true

	if s.pool != nil {
		if err := s.pool.Ping(ctx); err == nil {
			services["database"] = "connected"
		} else {
			healthy = false
		}
	} else {
		healthy = false
	}

	// The cache and stream degrade gracefully, so they don't flip the
	// overall status.
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err == nil {
			services["cache"] = "connected"
		}
	}
	if s.upstream != nil {
		if s.upstream.Connected() {
			services["stream"] = "connected"
		} else {
			services["stream"] = "disconnected"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"services":  services,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
