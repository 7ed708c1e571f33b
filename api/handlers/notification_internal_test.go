package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *NotificationHub) clientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func waitForClientCount(t *testing.T, hub *NotificationHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.clientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func dialHub(t *testing.T, server *httptest.Server, doctorID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?doctorId=" + doctorID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestServeWSDeregistersOnCloseFrame(t *testing.T) {
	hub := NewNotificationHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server, primitive.NewObjectID().Hex())
	waitForClientCount(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitForClientCount(t, hub, 0)
}

func TestServeWSDeregistersOnAbruptDisconnect(t *testing.T) {
	hub := NewNotificationHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server, primitive.NewObjectID().Hex())
	waitForClientCount(t, hub, 1)

	// drop the TCP connection without a close frame
	conn.UnderlyingConn().Close()

	waitForClientCount(t, hub, 0)
}
