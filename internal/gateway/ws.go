package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// HealthSocket streams registry snapshots over a websocket. Clients get
// the current snapshot on connect and a fresh one after every poll
// cycle.
type HealthSocket struct {
	registry *Registry
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHealthSocket wires the /ws/health endpoint.
func NewHealthSocket(registry *Registry, log zerolog.Logger) *HealthSocket {
	return &HealthSocket{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Health snapshots carry no secrets; dashboards connect
			// cross-origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *HealthSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	updates, cancel := h.registry.Subscribe()
	defer cancel()

	// Drain client frames so close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.send(conn, h.registry.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(conn, snap); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *HealthSocket) send(conn *websocket.Conn, snap *Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(snap); err != nil {
		h.log.Debug().Err(err).Msg("health socket write failed")
		return err
	}
	return nil
}
