// Package wsbridge fans discovery events out to connected websocket
// clients, for a local control UI watching for toy connect/disconnect in
// real time. Ambient telemetry only — nothing downstream of the dongle or
// gamepad state machines depends on a client being attached.
package wsbridge

import (
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/nexus-edge/toycomm/internal/domain"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Bridge broadcasts every DiscoveryEvent it's fed to all currently
// connected websocket clients.
type Bridge struct {
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func New(logger zerolog.Logger) *Bridge {
	return &Bridge{
		logger:  logger.With().Str("component", "ws-bridge").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming HTTP requests to websocket connections and
// keeps them registered until they close.
func (b *Bridge) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go b.readUntilClose(conn)
}

// readUntilClose blocks on reads purely to detect client disconnects;
// toycommd never expects inbound messages on this socket.
func (b *Bridge) readUntilClose(conn *websocket.Conn) {
	defer b.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Bridge) remove(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

type wireEvent struct {
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

func kindName(kind domain.DiscoveryEventKind) string {
	switch kind {
	case domain.EventDeviceFound:
		return "device_found"
	case domain.EventDeviceDisconnected:
		return "device_disconnected"
	case domain.EventScanningFinished:
		return "scanning_finished"
	default:
		return "unknown"
	}
}

// Run broadcasts every event from events to all connected clients until
// events closes.
func (b *Bridge) Run(events <-chan domain.DiscoveryEvent) {
	for ev := range events {
		b.broadcast(ev)
	}
}

func (b *Bridge) broadcast(ev domain.DiscoveryEvent) {
	payload, err := json.Marshal(wireEvent{
		Kind:    kindName(ev.Kind),
		Name:    ev.Name,
		Address: ev.Address,
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to encode event for websocket bridge")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.logger.Debug().Err(err).Msg("dropping unresponsive websocket client")
			delete(b.clients, conn)
			conn.Close()
		}
	}
}
