package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amolgorithm/delivery-deluxe/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Per-client queue; a client that falls this far behind is dropped.
	sendBuffer = 256

	// Event name for per-frame dashboard pushes.
	EventDashboard = "dashboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame pushed to the clients of a session.
type Message struct {
	SessionID string            `json:"session_id"`
	Event     string            `json:"event"`
	Dashboard *engine.Dashboard `json:"dashboard,omitempty"`
	Data      any               `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub fans session updates out to the browsers watching that session. All
// bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	counts     chan countRequest
	done       chan struct{}
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run owns the hub state until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastDashboard pushes a dashboard frame to every client of a session.
func (h *Hub) BroadcastDashboard(sessionID string, dashboard *engine.Dashboard) {
	h.publish(&Message{SessionID: sessionID, Event: EventDashboard, Dashboard: dashboard})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data any) {
	h.publish(&Message{SessionID: sessionID, Event: event, Data: data})
}

// publish hands a message to the Run loop. After shutdown it is dropped.
func (h *Hub) publish(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// ClientCount returns the number of clients watching a session.
func (h *Hub) ClientCount(sessionID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{sessionID: sessionID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.Printf("Client registered for session %s (total clients: %d)",
		client.sessionID, len(h.sessions[client.sessionID]))
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	log.Printf("Client unregistered from session %s (remaining clients: %d)",
		client.sessionID, len(clients))
}

func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[message.SessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.unregisterClient(client)
		}
	}
}

// readPump discards client input and keeps the read deadline moving.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writePump writes one JSON document per WebSocket message and pings on
// an idle connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
