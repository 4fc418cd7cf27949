package telemetry

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WebSocketHub fans a single Event stream out to every connected WebSocket
// client: one stream, n consumers, each with its own drop-on-full buffer.
type WebSocketHub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}

	clientDrops uint64
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketHub creates an empty hub ready to accept connections via
// ServeHTTP.
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{clients: make(map[*hubClient]struct{})}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it
// as a broadcast recipient until the connection closes.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry: websocket upgrade: %v", err)
		return
	}
	c := &hubClient{conn: conn, send: make(chan []byte, 64)}
	h.register(c)
	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *WebSocketHub) register(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *WebSocketHub) unregister(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readLoop only drains incoming frames to detect client-initiated closure;
// the feed is broadcast-only, so anything a client sends is discarded.
func (h *WebSocketHub) readLoop(c *hubClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHub) writeLoop(c *hubClient) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// Broadcast encodes e and fans it out to every connected client. A client
// whose send buffer is full is dropped from that broadcast rather than
// allowed to stall delivery to everyone else.
func (h *WebSocketHub) Broadcast(e Event) {
	payload, err := jsonAPI.Marshal(e)
	if err != nil {
		log.Printf("telemetry: marshal event: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.clientDrops++
		}
	}
}

// ClientCount reports the number of currently connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ClientDrops reports how many broadcasts were dropped for a slow client
// since the hub was created.
func (h *WebSocketHub) ClientDrops() uint64 {
	return h.clientDrops
}
