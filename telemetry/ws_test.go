package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *WebSocketHub) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		server.Close()
	}
}

func TestWebSocketHubBroadcastsToClient(t *testing.T) {
	hub := NewWebSocketHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Event{SessionID: "s1", SimTime: 42, Result: "SIGNAL"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(payload), `"session_id":"s1"`) || !strings.Contains(string(payload), `"sim_time":42`) {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestWebSocketHubUnregistersOnClose(t *testing.T) {
	hub := NewWebSocketHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	_ = conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestWebSocketHubDropsSlowClient(t *testing.T) {
	hub := NewWebSocketHub()
	_, cleanup := dialHub(t, hub)
	defer cleanup()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	// Flood far past the client's 64-slot send buffer without ever reading,
	// so Broadcast must drop rather than block.
	for i := 0; i < 500; i++ {
		hub.Broadcast(Event{SessionID: "flood", SimTime: int64(i)})
	}
	if hub.ClientDrops() == 0 {
		t.Fatalf("expected dropped broadcasts for the unread client")
	}
}
