package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
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

	// Time allowed for an input action to complete.
	inputTimeout = 5 * time.Second
)

// Events sent to clients
const (
	EventStateUpdate = "state_update"
	EventGameOver    = "game_over"
	EventAck         = "ack"
	EventError       = "error"
)

// Actions accepted from clients
const (
	ActionTurn    = "turn"
	ActionRestart = "restart"
	ActionSpeed   = "speed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents a WebSocket message sent to clients
type Message struct {
	SessionID string           `json:"session_id"`
	Snapshot  *engine.Snapshot `json:"snapshot,omitempty"`
	Event     string           `json:"event,omitempty"`
	Data      interface{}      `json:"data,omitempty"`
}

// InputMessage is a player action received from a client
type InputMessage struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
	PeriodMs  int    `json:"period_ms,omitempty"`
}

// InputHandler applies player actions to a session. The returned value is sent
// back to the originating client as an ack.
type InputHandler interface {
	HandleInput(ctx context.Context, sessionID string, msg InputMessage) (interface{}, error)
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and fans snapshots out per session
type Hub struct {
	// Registered clients by session ID. Written only by Run.
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages for every client of a session
	broadcast chan *Message

	// Outbound messages for a single client
	direct chan directMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	input InputHandler
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, engine.WebSocketBufferSize),
		direct:     make(chan directMessage, engine.WebSocketBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetInputHandler sets where client actions are forwarded. Without one, input is ignored.
func (h *Hub) SetInputHandler(handler InputHandler) {
	h.input = handler
}

// Run starts the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case dm := <-h.direct:
			h.sendDirect(dm)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client connection
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// ServeWS upgrades the request and attaches the client to a session.
// initial, if non-nil, is sent before any later update.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *engine.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
	}

	// Queued before registration so it precedes every broadcast
	if initial != nil {
		data, err := json.Marshal(&Message{SessionID: sessionID, Snapshot: initial, Event: eventFor(initial)})
		if err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Render queues a snapshot for every client of the session. It never blocks the
// caller; when the queue is full the frame is dropped.
func (h *Hub) Render(sessionID string, snap *engine.Snapshot) {
	h.publish(&Message{
		SessionID: sessionID,
		Snapshot:  snap,
		Event:     eventFor(snap),
	})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.publish(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) publish(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		log.Printf("[WS] Broadcast queue full, dropping %s for session %s", message.Event, message.SessionID)
	}
}

// sendTo queues a message for one client through the hub loop
func (h *Hub) sendTo(client *Client, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return
	}
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

func eventFor(snap *engine.Snapshot) string {
	if snap != nil && snap.GameOver() {
		return EventGameOver
	}
	return EventStateUpdate
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.Printf("[WS] Client registered for session %s (total clients: %d)",
		client.sessionID, len(h.sessions[client.sessionID]))
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			log.Printf("[WS] Client unregistered from session %s (remaining clients: %d)",
				client.sessionID, len(clients))
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Client's send channel is full, drop it
	for _, client := range slow {
		h.unregisterClient(client)
	}
}

func (h *Hub) sendDirect(dm directMessage) {
	h.mu.RLock()
	registered := h.sessions[dm.client.sessionID][dm.client]
	full := false
	if registered {
		select {
		case dm.client.send <- dm.data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		h.unregisterClient(dm.client)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	var all []*Client
	for _, clients := range h.sessions {
		for client := range clients {
			all = append(all, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range all {
		h.unregisterClient(client)
	}
}

// readPump decodes client actions and forwards them to the input handler
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Read error: %v", err)
			}
			break
		}
		c.handleInput(data)
	}
}

func (c *Client) handleInput(data []byte) {
	var msg InputMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.sendTo(c, &Message{SessionID: c.sessionID, Event: EventError, Data: "invalid message: " + err.Error()})
		return
	}

	if c.hub.input == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), inputTimeout)
	defer cancel()

	reply, err := c.hub.input.HandleInput(ctx, c.sessionID, msg)
	if err != nil {
		c.hub.sendTo(c, &Message{SessionID: c.sessionID, Event: EventError, Data: err.Error()})
		return
	}
	c.hub.sendTo(c, &Message{SessionID: c.sessionID, Event: EventAck, Data: reply})
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame so clients can decode each message directly
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
