package api

import (
	"net/http"
	"time"

	respond "github.com/orma-app/orma/internal/api/respond"
	"github.com/orma-app/orma/internal/store"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store     store.Store
	isHealthy func() bool
}

// NewHealthHandler creates a new health handler. isHealthy reports the
// aggregated background-monitor state; nil means no monitor is running and
// /api/health only attests liveness.
func NewHealthHandler(s store.Store, isHealthy func() bool) *HealthHandler {
	return &HealthHandler{store: s, isHealthy: isHealthy}
}

// CheckHealth handles GET /api/health
// Always returns 200; the body reports healthy/unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.isHealthy != nil && !h.isHealthy() {
		status = "unhealthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CheckStorageHealth handles GET /api/health/db
// Pings the backing database; 503 when it is unreachable.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"message":   err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
