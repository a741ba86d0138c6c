package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
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
)

// Event names sent to subscribers
const (
	EventSolveComplete = "solve_complete"
	EventRunDeleted    = "run_deleted"
	EventSceneSaved    = "scene_saved"
)

// AllScenes is the subscription key for clients that want every event
const AllScenes = ""

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	SceneID string           `json:"scene_id"`
	RunID   string           `json:"run_id,omitempty"`
	Event   string           `json:"event,omitempty"`
	Run     *service.RunInfo `json:"run,omitempty"`
	Data    interface{}      `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	sceneID string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by scene ID
	scenes map[string]map[*Client]bool
	mu     sync.RWMutex

	// Outbound messages for subscribers
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		scenes:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS handles WebSocket requests from clients. An empty sceneID
// subscribes to every scene.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sceneID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		sceneID: sceneID,
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastSolve announces a finished run to clients watching its scene
func (h *Hub) BroadcastSolve(info *service.RunInfo) {
	if info == nil {
		return
	}
	h.broadcast <- &Message{
		SceneID: info.SceneID,
		RunID:   info.ID,
		Event:   EventSolveComplete,
		Run:     info,
	}
}

// BroadcastRunDeleted tells a scene's clients that a run was removed
func (h *Hub) BroadcastRunDeleted(sceneID, runID string) {
	h.broadcast <- &Message{
		SceneID: sceneID,
		RunID:   runID,
		Event:   EventRunDeleted,
	}
}

// BroadcastEvent sends a custom event to all clients watching a scene
func (h *Hub) BroadcastEvent(sceneID string, event string, data interface{}) {
	message := &Message{
		SceneID: sceneID,
		Event:   event,
		Data:    data,
	}

	h.broadcast <- message
}

// ClientCount returns the number of clients subscribed to sceneID
func (h *Hub) ClientCount(sceneID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scenes[sceneID])
}

// registerClient adds a client to a scene
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scenes[client.sceneID] == nil {
		h.scenes[client.sceneID] = make(map[*Client]bool)
	}
	h.scenes[client.sceneID][client] = true

	log.Printf("Client registered for scene %q (total clients: %d)",
		client.sceneID, len(h.scenes[client.sceneID]))
}

// unregisterClient removes a client from a scene
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient drops client and closes its send channel. Callers hold h.mu.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.scenes[client.sceneID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	// Clean up empty scenes
	if len(clients) == 0 {
		delete(h.scenes, client.sceneID)
	}

	log.Printf("Client unregistered from scene %q (remaining clients: %d)",
		client.sceneID, len(clients))
}

// broadcastMessage sends a message to the scene's clients and to clients
// subscribed to every scene
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := []string{message.SceneID}
	if message.SceneID != AllScenes {
		targets = append(targets, AllScenes)
	}

	for _, sceneID := range targets {
		for client := range h.scenes[sceneID] {
			select {
			case client.send <- data:
			default:
				// Client's send channel is full, drop it
				h.removeClient(client)
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the pong handler running
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
