package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, sendBuffer),
	}
}

// startHub runs the hub until the test ends.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

// newTestServer serves the hub at /ws?session=<id>.
func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in session %s, got %d", want, sessionID, hub.ClientCount(sessionID))
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "s1")
	client2 := newTestClient(hub, "s1")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if len(hub.sessions["s1"]) != 2 {
		t.Fatalf("Expected 2 clients in session, got %d", len(hub.sessions["s1"]))
	}

	hub.unregisterClient(client1)
	if !hub.sessions["s1"][client2] || len(hub.sessions["s1"]) != 1 {
		t.Error("client2 should remain registered alone")
	}
	if _, open := <-client1.send; open {
		t.Error("Expected client1's send channel closed")
	}

	// A second unregister must not close the channel twice.
	hub.unregisterClient(client1)

	hub.unregisterClient(client2)
	if _, exists := hub.sessions["s1"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
}

func TestHubBroadcastDashboard(t *testing.T) {
	hub := startHub(t)
	client := newTestClient(hub, "dash")
	other := newTestClient(hub, "elsewhere")
	hub.register <- client
	hub.register <- other

	hub.BroadcastDashboard("dash", &engine.Dashboard{
		Flow:     engine.FlowGame,
		Money:    42,
		Position: citymap.Cell{Row: 3, Col: 4},
	})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != "dash" || message.Event != EventDashboard {
			t.Errorf("Unexpected envelope %+v", message)
		}
		if message.Dashboard == nil || message.Dashboard.Money != 42 || message.Dashboard.Position.Col != 4 {
			t.Errorf("Dashboard not correctly transmitted: %+v", message.Dashboard)
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Clients of other sessions must not receive the frame")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := startHub(t)
	client := newTestClient(hub, "event-test")
	hub.register <- client

	hub.BroadcastEvent("event-test", "session_deleted", map[string]string{"id": "event-test"})

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != "session_deleted" {
			t.Errorf("Expected event 'session_deleted', got %s", message.Event)
		}
		if message.Dashboard != nil {
			t.Error("Expected no dashboard on a custom event")
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: "a"})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: "b"})

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("Expected the full client to be dropped")
	}
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := newTestClient(hub, "bye")
	hub.register <- client
	cancel()
	<-hub.done

	if _, open := <-client.send; open {
		t.Error("Expected clients disconnected on shutdown")
	}

	// Calls after shutdown return instead of blocking.
	hub.BroadcastDashboard("bye", &engine.Dashboard{})
	if n := hub.ClientCount("bye"); n != 0 {
		t.Errorf("Expected 0 clients after shutdown, got %d", n)
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := startHub(t)
	server := newTestServer(t, hub)

	conn := dial(t, server, "ws-test")
	waitForClients(t, hub, "ws-test", 1)

	hub.BroadcastDashboard("ws-test", &engine.Dashboard{Flow: engine.FlowGarage, Fuel: 87.5})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.Dashboard == nil || message.Dashboard.Flow != engine.FlowGarage || message.Dashboard.Fuel != 87.5 {
		t.Errorf("Dashboard not correctly received: %+v", message.Dashboard)
	}

	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}
