package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ava19999/rtc/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway upgrades UI connections and keeps them registered for event
// broadcasts until they close.
type Gateway struct {
	hub *Hub
}

// NewGateway constructs a Gateway over the hub.
func NewGateway(hub *Hub) *Gateway {
	return &Gateway{hub: hub}
}

// Handle upgrades the connection and registers the client.
func (g *Gateway) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	g.hub.AddClient(conn)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// Drain reads to detect the close; the UI never sends commands over
	// the socket, it uses the HTTP API.
	go func() {
		defer func() {
			g.hub.RemoveClient(conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
