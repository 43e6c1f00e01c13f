package ws

import (
	"sync"

	"dm-messenger/backend/pkg/logger"
)

// Hub is the in-memory connection registry. It maps live connections to
// identities (several connections may share one identity), to the
// identity's personal channel, and to the pair rooms the connection has
// joined. All state is rebuilt from scratch on process restart.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	identities map[uint]map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}

	// onDrop runs after a blocked connection has been evicted, outside
	// the hub lock. last reports whether it was the identity's final
	// live connection.
	onDrop func(c *Client, last bool)

	log *logger.Logger
}

// NewHub creates an empty connection registry.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		identities: make(map[uint]map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		log:        log,
	}
}

// SetOnDrop installs the eviction callback. Must be called before the
// first connection is bound.
func (h *Hub) SetOnDrop(fn func(c *Client, last bool)) {
	h.onDrop = fn
}

// Bind associates a connection with its authenticated identity and
// subscribes it to the identity's personal channel. Returns true when
// this is the identity's first live connection.
func (h *Hub) Bind(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}

	set, ok := h.identities[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.identities[c.UserID] = set
	}
	set[c] = struct{}{}

	h.log.Debug("connection bound", "user_id", c.UserID, "connections", len(set))
	return len(set) == 1
}

// Unbind removes a connection from the registry. Idempotent: removed is
// false when the connection was already evicted. last reports whether
// the identity has no live connections left.
func (h *Hub) Unbind(c *Client) (removed, last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) (removed, last bool) {
	if _, ok := h.clients[c]; !ok {
		return false, false
	}
	delete(h.clients, c)
	close(c.send)

	for key := range c.rooms {
		if members, ok := h.rooms[key]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, key)
			}
		}
	}

	if set, ok := h.identities[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.identities, c.UserID)
			return true, true
		}
	}
	return true, false
}

// JoinRoom subscribes a connection to a pair room. Repeated joins to the
// same room are no-ops.
func (h *Hub) JoinRoom(c *Client, key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, ok := c.rooms[key]; ok {
		return
	}
	c.rooms[key] = struct{}{}

	members, ok := h.rooms[key]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[key] = members
	}
	members[c] = struct{}{}
}

// Connections returns the number of live connections for an identity.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.identities[userID])
}

// RoomSize returns the number of connections subscribed to a room.
func (h *Hub) RoomSize(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

// EmitToRoom delivers a frame to every room member, optionally skipping
// one connection (used by typing signals to exclude the sender).
func (h *Hub) EmitToRoom(key string, data []byte, except *Client) {
	h.emit(func() []*Client {
		members := h.rooms[key]
		targets := make([]*Client, 0, len(members))
		for c := range members {
			if c != except {
				targets = append(targets, c)
			}
		}
		return targets
	}, data)
}

// EmitToUser delivers a frame to every connection on an identity's
// personal channel.
func (h *Hub) EmitToUser(userID uint, data []byte) {
	h.emit(func() []*Client {
		set := h.identities[userID]
		targets := make([]*Client, 0, len(set))
		for c := range set {
			targets = append(targets, c)
		}
		return targets
	}, data)
}

// EmitToClient delivers a frame to a single connection, if it is still
// registered.
func (h *Hub) EmitToClient(c *Client, data []byte) {
	h.emit(func() []*Client {
		if _, ok := h.clients[c]; ok {
			return []*Client{c}
		}
		return nil
	}, data)
}

// Broadcast delivers a frame to every live connection.
func (h *Hub) Broadcast(data []byte) {
	h.emit(func() []*Client {
		targets := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
		return targets
	}, data)
}

// emit sends to the targets selected under the lock. A connection whose
// send queue is full is evicted rather than allowed to stall the others;
// the onDrop callback then runs outside the lock so presence can settle.
func (h *Hub) emit(pick func() []*Client, data []byte) {
	type drop struct {
		client *Client
		last   bool
	}
	var dropped []drop

	h.mu.Lock()
	for _, c := range pick() {
		if !c.enqueue(data) {
			if removed, last := h.removeLocked(c); removed {
				h.log.Warn("evicting connection with blocked send queue", "user_id", c.UserID)
				dropped = append(dropped, drop{client: c, last: last})
			}
		}
	}
	h.mu.Unlock()

	for _, d := range dropped {
		if h.onDrop != nil {
			h.onDrop(d.client, d.last)
		}
	}
}
