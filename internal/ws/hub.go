// Package ws pushes session state-change events to the UI over a
// websocket, replacing the in-process callbacks the store listeners
// would otherwise feed straight into a rendering layer.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ava19999/rtc/internal/observability"
	"github.com/ava19999/rtc/internal/session"
)

// Hub maintains the active UI websocket connections and fans session
// events out to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// AddClient registers a websocket connection.
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

// RemoveClient removes a websocket connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Broadcast sends a session event to every connected client.
func (h *Hub) Broadcast(event session.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal session event: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(conn)
			observability.IncWSEvent("ws_error")
		}
	}
	observability.IncWSEvent("broadcast")
}

// ClientCount returns the number of attached clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
