// Package dashboard implements the optional, purely observational
// HTTP+WebSocket live-progress server, adapted from the teacher's
// internal/server hub (the register/unregister/broadcast channel loop).
// Each frame is either one Statistics snapshot (BroadcastStats) or one
// blackboard event (SubscribeBus). It carries no state needed to reproduce
// or resume a run.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/events"
)

const broadcastBufferSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected WebSocket viewer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket clients watching live Statistics and event updates.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

// NewHub creates an empty Hub. Call Run in its own goroutine to start the
// dispatch loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBufferSize),
	}
}

// Run is the hub's main loop; it never returns, matching the teacher's
// hub.Run (the caller simply stops feeding it once the run ends).
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastStats sends one Statistics snapshot to every connected client.
// A failed send never blocks or panics the caller — the worst case is a
// dropped frame, never a hung supervisor round.
func (h *Hub) BroadcastStats(stats blackboard.Statistics) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// SubscribeBus forwards every event published on bus's "dashboard" target to
// connected viewers, running its own goroutine until ctx is cancelled. This
// is the richer alternative to BroadcastStats: one frame per blackboard
// mutation instead of one per supervisor round.
func (h *Hub) SubscribeBus(ctx context.Context, bus *events.Bus) {
	ch := bus.Subscribe("dashboard", nil)
	go func() {
		defer bus.Unsubscribe("dashboard", ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				select {
				case h.broadcast <- data:
				default:
				}
			}
		}
	}()
}

// ClientCount returns the number of currently connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Router builds the HTTP router serving the WebSocket upgrade endpoint.
func (h *Hub) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", h.serveWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, broadcastBufferSize)}
	h.register <- c

	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
