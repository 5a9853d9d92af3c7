package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ava19999/rtc/internal/session"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(nil)
	require.Equal(t, 1, hub.ClientCount())

	hub.RemoveClient(nil)
	require.Equal(t, 0, hub.ClientCount())
}

func TestBroadcastWithoutClientsDoesNotPanic(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(session.Event{Type: "rooms"})
}

func TestGatewayDeliversBroadcasts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	gateway := NewGateway(hub)

	router := gin.New()
	router.GET("/ws", gateway.Handle)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	hub.Broadcast(session.Event{Type: "unread", Payload: map[string]any{"total": 3}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event session.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	require.Equal(t, "unread", event.Type)
}

func TestGatewayRemovesClientOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	gateway := NewGateway(hub)

	router := gin.New()
	router.GET("/ws", gateway.Handle)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)
}
