// Package chat содержит WebSocket-хаб для комнат гостевых домов и личных диалогов.
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"bezero/internal/metrics"
)

// Hub keeps the rooms→clients registry and fans messages out to every
// connection subscribed to a room. Rooms are plain string keys
// ("gh:<id>", "dm:<room_id>", "user:<id>").
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *zerolog.Logger
}

func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register subscribes the client to the given rooms.
func (h *Hub) Register(c *Client, rooms ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][c] = struct{}{}
		c.rooms = append(c.rooms, room)
	}
}

// Unregister drops the client from all its rooms and closes its send
// channel, which stops the write pump.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for _, room := range c.rooms {
		if clients, ok := h.rooms[room]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = nil
	h.mu.Unlock()
	c.closeSend()
}

// Broadcast marshals the payload once and delivers it to every client in
// the room. Clients whose send buffer is full are evicted: a reader that
// cannot keep up must reconnect and refetch history.
func (h *Hub) Broadcast(room string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("room", room).Msg("broadcast marshal failed")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
			metrics.IncWSMessage("out")
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Int64("user_id", c.userID).Str("room", room).Msg("slow websocket client evicted")
		h.Unregister(c)
	}
}

// ClientCount returns the number of clients subscribed to a room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
