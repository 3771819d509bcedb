package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/justinabrahms/padchess/internal/table"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// WebSocket upgrader with reasonable settings
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Display clients run on the local network
		return true
	},
}

// EventEnvelope tags an output event with its type for JSON consumers
type EventEnvelope struct {
	Type chess.EventType `json:"type"`
	Data chess.Event     `json:"data"`
}

// GameUpdate is the message pushed to display and audio observers
type GameUpdate struct {
	Type     string          `json:"type"` // "update", "snapshot", "pong"
	ID       string          `json:"id,omitempty"`
	Seq      uint64          `json:"seq"`
	Request  string          `json:"request,omitempty"`
	Events   []EventEnvelope `json:"events,omitempty"`
	Snapshot *chess.Snapshot `json:"snapshot,omitempty"`
}

func newGameUpdate(u table.Update) GameUpdate {
	snapshot := u.Snapshot
	return GameUpdate{
		Type:     "update",
		ID:       u.ID,
		Seq:      u.Seq,
		Request:  u.Request,
		Events:   envelopes(u.Events),
		Snapshot: &snapshot,
	}
}

func envelopes(events []chess.Event) []EventEnvelope {
	out := make([]EventEnvelope, 0, len(events))
	for _, ev := range events {
		out = append(out, EventEnvelope{Type: ev.Type(), Data: ev})
	}
	return out
}

// hubMessage is an encoded update and the table sequence it reflects
type hubMessage struct {
	seq  uint64
	data []byte
}

// readyRequest releases a registered client once its initial snapshot
// at seq is encoded
type readyRequest struct {
	client   *Client
	seq      uint64
	snapshot []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	clients map[*Client]bool

	// Broadcast channel for encoded updates
	broadcast chan hubMessage

	// Register requests from clients
	register chan *Client

	// Ready requests from clients whose snapshot is taken
	ready chan readyRequest

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// Client represents a WebSocket connection. Until it is ready the hub
// holds its updates in pending; afterwards updates at or below since are
// already covered by the snapshot it was sent.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	pong chan struct{}

	// owned by the hub's Run loop
	ready   bool
	since   uint64
	pending []hubMessage
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan hubMessage, 64),
		register:   make(chan *Client),
		ready:      make(chan readyRequest),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			log.Info().Str("client", client.id).Msg("Observer connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

			log.Info().Str("client", client.id).Msg("Observer disconnected")

		case req := <-h.ready:
			h.mu.Lock()
			if _, ok := h.clients[req.client]; ok {
				client := req.client
				client.ready = true
				client.since = req.seq
				pending := client.pending
				client.pending = nil
				if h.deliver(client, hubMessage{seq: req.seq, data: req.snapshot}) {
					for _, message := range pending {
						if message.seq > client.since && !h.deliver(client, message) {
							break
						}
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.ready {
					if len(client.pending) >= sendBuffer {
						h.drop(client)
						continue
					}
					client.pending = append(client.pending, message)
					continue
				}
				if message.seq <= client.since {
					continue
				}
				h.deliver(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver queues a message for client, dropping the client if it cannot
// keep up. Callers hold h.mu.
func (h *Hub) deliver(client *Client, message hubMessage) bool {
	select {
	case client.send <- message.data:
		return true
	default:
		h.drop(client)
		return false
	}
}

func (h *Hub) drop(client *Client) {
	close(client.send)
	delete(h.clients, client)
	log.Warn().Str("client", client.id).Msg("Observer too slow, disconnected")
}

// ClientCount returns the number of connected observers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastGameUpdate sends an update to all observers
func (h *Hub) BroadcastGameUpdate(update GameUpdate) {
	message, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal game update")
		return
	}

	select {
	case h.broadcast <- hubMessage{seq: update.Seq, data: message}:
	default:
		log.Warn().Str("update", update.ID).Msg("Broadcast channel full, dropping update")
	}
}

// Forward relays table updates to observers until the subscription closes
// or ctx is done
func (h *Hub) Forward(ctx context.Context, updates <-chan table.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.BroadcastGameUpdate(newGameUpdate(update))
		}
	}
}

// WebSocketHandler handles WebSocket upgrade requests. The client is
// registered before the snapshot is read so no update can fall between
// the two; the hub releases it with the snapshot first.
func (s *Service) WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := &Client{
			id:   uuid.NewString(),
			hub:  hub,
			send: make(chan []byte, sendBuffer),
			pong: make(chan struct{}, 1),
		}

		// Register client
		select {
		case hub.register <- client:
		case <-hub.done:
			http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
			return
		case <-r.Context().Done():
			return
		}

		state, err := s.table.State(r.Context())
		if err != nil {
			hub.release(client)
			s.tableError(w, err, "snapshot")
			return
		}
		initial, err := json.Marshal(GameUpdate{Type: "snapshot", Seq: state.Seq, Snapshot: &state.Snapshot})
		if err != nil {
			hub.release(client)
			log.Error().Err(err).Msg("Failed to marshal snapshot")
			http.Error(w, "Failed to encode snapshot", http.StatusInternalServerError)
			return
		}

		// Upgrade connection
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.release(client)
			log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
			return
		}
		client.conn = conn

		select {
		case hub.ready <- readyRequest{client: client, seq: state.Seq, snapshot: initial}:
		case <-hub.done:
			conn.Close()
			return
		}

		// Start client goroutines
		go client.writePump()
		go client.readPump()
	}
}

// release unregisters a client that never started its pumps
func (h *Hub) release(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// readPump handles incoming messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("client", c.id).Msg("WebSocket error")
			}
			break
		}

		// Observers only ever ping; game input goes through the API
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err == nil && msg.Type == "ping" {
			select {
			case c.pong <- struct{}{}:
			default:
			}
		}
	}
}

// writePump handles sending messages to the WebSocket
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

		case <-c.pong:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(GameUpdate{Type: "pong"}); err != nil {
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
