package api

import (
	"github.com/gorilla/mux"

	"github.com/orma-app/orma/internal/api/recovery"
	"github.com/orma-app/orma/internal/auth"
	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/services"
	"github.com/orma-app/orma/internal/store"
)

// NewRouter wires all HTTP routes over the given store, event bus and
// authorizer. isHealthy may be nil when no background health monitor runs.
func NewRouter(s store.Store, bus *events.Bus, authorizer auth.Authorizer, svc *services.MarkService, isHealthy func() bool) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler(s, isHealthy)
	markHandler := NewMarkHandler(svc, authorizer)
	liveHandler := NewLiveHandler(svc, bus, authorizer)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Mark endpoints. "live" registers before the {markId} route so the
	// literal path wins.
	router.HandleFunc("/api/segni", markHandler.CreateMark).Methods("POST")
	router.HandleFunc("/api/segni", markHandler.ListMarks).Methods("GET")
	router.HandleFunc("/api/segni/live", liveHandler.Serve).Methods("GET")
	router.HandleFunc("/api/segni/{markId:[0-9a-fA-F-]{36}}", markHandler.GetMark).Methods("GET")

	// Advisory quota endpoint
	router.HandleFunc("/api/quota", markHandler.QuotaStatus).Methods("GET")

	return router
}
