package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	respond "github.com/orma-app/orma/internal/api/respond"
	"github.com/orma-app/orma/internal/auth"
	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/services"
)

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	snapshotLimit = defaultListLimit
)

// SnapshotMessage is what the live socket pushes: the complete current set
// of marks, newest first. Consumers replace their rendered set wholesale
// rather than patching it, which makes reconnects and missed events benign.
type SnapshotMessage struct {
	Type  string        `json:"type"`
	Segni []*model.Mark `json:"segni"`
}

// LiveHandler upgrades GET /api/segni/live to a websocket and pushes a fresh
// snapshot whenever a mark is created.
type LiveHandler struct {
	svc        *services.MarkService
	bus        *events.Bus
	authorizer auth.Authorizer
	upgrader   websocket.Upgrader
}

func NewLiveHandler(svc *services.MarkService, bus *events.Bus, authorizer auth.Authorizer) *LiveHandler {
	return &LiveHandler{
		svc:        svc,
		bus:        bus,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Browser clients connect from the map origin; token auth covers
			// the rest.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve GET /api/segni/live
//
// The token rides in the query string because browser websocket clients
// cannot set an Authorization header on the upgrade request.
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var err error
		token, err = auth.ExtractBearer(r)
		if err != nil {
			respond.WriteUnauthorized(w, "Unauthorized: missing token")
			return
		}
	}
	if _, err := h.authorizer.Authorize(r.Context(), token); err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	go h.run(conn)
}

func (h *LiveHandler) run(conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	sub, cancel := h.bus.Subscribe()
	defer cancel()

	// Drain the read side so close frames and pongs are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Initial snapshot so a fresh subscriber renders without waiting for
	// the next event.
	if err := h.pushSnapshot(conn); err != nil {
		return
	}

	for {
		select {
		case _, ok := <-sub:
			if !ok {
				return
			}
			if err := h.pushSnapshot(conn); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) pushSnapshot(conn *websocket.Conn) error {
	// Read with a detached context: the upgrade request's context ended at
	// hijack time.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	segni, err := h.svc.ListRecent(ctx, snapshotLimit, model.OrderByCreatedAt)
	if err != nil {
		log.Error().Err(err).Msg("live snapshot query failed")
		return err
	}
	if segni == nil {
		segni = []*model.Mark{}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(SnapshotMessage{Type: "snapshot", Segni: segni})
}
