package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency to probe
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// HealthHandler answers liveness probes with a per-dependency summary.
// The process serving the request is alive by definition, so the answer
// is always 200; degraded dependencies only change the reported status.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			checks[check.Name] = err.Error()
			status = "degraded"
			continue
		}
		checks[check.Name] = "ok"
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
