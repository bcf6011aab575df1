package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/webatelier/platform/internal/httputil"
)

const (
	availabilityPushInterval = 5 * time.Second
	wsWriteTimeout           = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer for browser clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// availabilityFeed streams seat availability for one event over a
// websocket. A snapshot is sent on connect and then on every tick until
// the client goes away.
func (h *handler) availabilityFeed(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	// Validate the event before upgrading so the client gets a proper
	// error response instead of a dropped socket.
	if _, err := h.cfg.Events.Get(r.Context(), eventID); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	ticker := time.NewTicker(availabilityPushInterval)
	defer ticker.Stop()

	for {
		a, err := h.cfg.Events.Availability(ctx, eventID)
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(a); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
