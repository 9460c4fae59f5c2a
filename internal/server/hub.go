package server

import "sync"

// Hub tracks which connections are in which game room. Connection
// lifecycle is owned by the clients themselves; the hub only routes.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

// join moves a client into a game room, leaving its previous room.
func (h *Hub) join(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.gameID != "" && c.gameID != gameID {
		h.removeLocked(c)
	}
	c.gameID = gameID
	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
}

// leave removes a client from its room.
func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if c.gameID == "" {
		return
	}
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.gameID)
		}
	}
	c.gameID = ""
}

// clientsIn snapshots the members of a room.
func (h *Hub) clientsIn(gameID string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[gameID]
	out := make([]*client, 0, len(room))
	for c := range room {
		out = append(out, c)
	}
	return out
}
