// internal/httpserver/hub.go
//
// Websocket event hub: fans dispatcher events (question timeouts, solo
// queue promotions) out to subscribed connections. Subscriptions are keyed
// by room id and, optionally, by user id for direct events.

package httpserver

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rdren0/literate-waddle/internal/command"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The engine carries no credentials; rooms are unguessable uuids.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one live websocket subscription.
type client struct {
	conn   *websocket.Conn
	roomID string
	userID string

	mu sync.Mutex // serializes writes to conn
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks subscriptions and implements command.Sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish fans an event out to every matching subscription. Safe to call
// from timer goroutines; a failed write drops that client.
func (h *Hub) Publish(ev command.Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if ev.RoomID != "" && c.roomID == ev.RoomID {
			targets = append(targets, c)
		} else if ev.UserID != "" && c.userID == ev.UserID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(ev); err != nil {
			log.Debug().Err(err).Str("room", c.roomID).Msg("event write failed, dropping client")
			h.drop(c)
		}
	}
}

// Subscribe upgrades the request and parks the connection until it closes.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, roomID, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, roomID: roomID, userID: userID}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	// Reader loop exists only to notice the close.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}
