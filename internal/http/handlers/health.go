package handlers

import (
	"context"
	"net/http"

	"github.com/veldclinics/booking-platform/pkg/logging"
)

// Pinger checks a dependency's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health for load balancer probes.
type HealthHandler struct {
	db     Pinger
	logger *logging.Logger
}

// NewHealthHandler creates a health handler. A nil db skips the database
// probe.
func NewHealthHandler(db Pinger, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{db: db, logger: logger}
}

// Check responds 200 when the service and its database are reachable.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error("health check: database unreachable", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
