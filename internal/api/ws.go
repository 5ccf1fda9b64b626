package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/routecast/navrig/internal/monitoring"
)

// writeWait bounds how long a slow client can block a telemetry write.
const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The planning UI is served from another origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

var nextClientID atomic.Int64

// wsClient adapts one websocket connection into a hub subscriber. Writes
// are guarded by the mutex and a write deadline so one stuck client cannot
// wedge a broadcast.
type wsClient struct {
	id   int64
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send delivers one payload as a JSON frame.
func (c *wsClient) Send(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(payload)
}

// subscribeMessage is the only client-to-server message: a replacement
// topic list.
type subscribeMessage struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// handleWebSocket upgrades the connection, registers it with the hub, and
// consumes subscription updates until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{id: nextClientID.Add(1), conn: conn}
	s.hub.Add(client)
	s.metrics.SetHubClients(s.hub.Count())
	monitoring.Logf("WebSocket client connected [ID: %d]. Total clients: %d", client.id, s.hub.Count())

	defer func() {
		s.hub.Remove(client)
		conn.Close()
		s.metrics.SetHubClients(s.hub.Count())
		monitoring.Logf("WebSocket cleanup [ID: %d]. Remaining clients: %d", client.id, s.hub.Count())
	}()

	for {
		var msg subscribeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				monitoring.Logf("WebSocket error [ID: %d]: %v", client.id, err)
			}
			return
		}
		if msg.Type == "subscribe" && msg.Topics != nil {
			s.hub.UpdateTopics(client, msg.Topics)
			monitoring.Logf("WebSocket subscriptions updated [ID: %d] -> %v", client.id, msg.Topics)
		}
	}
}
