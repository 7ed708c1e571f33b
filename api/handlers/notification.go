package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsClient pairs a connection with its own write lock. gorilla/websocket
// supports at most one concurrent writer per connection, so every write
// must go through writeJSON.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// NotificationHub tracks connected doctors (doctorId -> client) so new
// notifications can be pushed as they happen
type NotificationHub struct {
	clients map[string]*wsClient
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*wsClient),
	}
}

// ServeWS upgrades the connection and registers the doctor for pushes
func (h *NotificationHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	doctorID := r.URL.Query().Get("doctorId")
	if doctorID == "" {
		conn.Close()
		return
	}

	client := &wsClient{conn: conn}
	h.mutex.Lock()
	h.clients[doctorID] = client
	h.mutex.Unlock()
	zap.S().Debugf("doctor %s connected to /ws/notifications", doctorID)

	// Drain the connection until the client goes away. The read error
	// covers both a clean close frame and an abrupt drop, so this is the
	// single deregistration point.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.deregister(doctorID, client)
	conn.Close()
	zap.S().Debugf("doctor %s disconnected from /ws/notifications", doctorID)
}

// Push delivers a notification to a connected doctor, if any
func (h *NotificationHub) Push(doctorID string, notification interface{}) {
	h.mutex.Lock()
	client, exists := h.clients[doctorID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := client.writeJSON(map[string]interface{}{
		"event": "new_notification",
		"data":  notification,
	})
	if err != nil {
		zap.S().Errorw("failed to push notification",
			"doctorId", doctorID,
			"error", err)
		h.deregister(doctorID, client)
		client.conn.Close()
	}
}

// deregister drops the client unless the doctor has already reconnected
// under the same id
func (h *NotificationHub) deregister(doctorID string, client *wsClient) {
	h.mutex.Lock()
	if h.clients[doctorID] == client {
		delete(h.clients, doctorID)
	}
	h.mutex.Unlock()
}
