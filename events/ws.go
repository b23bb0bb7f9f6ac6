package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// WSHub streams bus events to websocket clients (the GUI front end).
type WSHub struct {
	bus      *Bus
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewWSHub(bus *Bus) *WSHub {
	return &WSHub{
		bus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Handle(w, r)
}

// Handle upgrades the request and streams events until the client
// disconnects.
func (h *WSHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	log.WithFields(log.Fields{"client": conn.RemoteAddr().String()}).
		Debug("Event feed client connected")

	sub := h.bus.Subscribe()

	go h.readLoop(conn, sub)
	go h.writeLoop(conn, sub)
}

// ClientCount reports the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// readLoop drains client frames so pings and close messages are
// processed; any read error ends the subscription.
func (h *WSHub) readLoop(conn *websocket.Conn, sub chan Event) {
	defer h.closeConn(conn, sub)

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *WSHub) writeLoop(conn *websocket.Conn, sub chan Event) {
	for event := range sub {
		if err := conn.WriteJSON(event); err != nil {
			h.closeConn(conn, sub)
			return
		}
	}
}

func (h *WSHub) closeConn(conn *websocket.Conn, sub chan Event) {
	h.mu.Lock()
	_, known := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()

	if !known {
		return
	}

	h.bus.Unsubscribe(sub)
	conn.Close()

	log.WithFields(log.Fields{"client": conn.RemoteAddr().String()}).
		Debug("Event feed client disconnected")
}
