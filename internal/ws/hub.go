package ws

import (
	"sync"
)

// Hub is the membership tracker: it owns the connection registry and the
// connection-to-room relation. A connection belongs to at most one room;
// Join enforces that by removing any prior membership first. Member counts
// are always derived from the room's live connection set, never from a
// separately maintained counter.
type Hub struct {
	mu         sync.Mutex
	conns      map[string]*clientConn // connID -> conn
	membership map[string]string      // connID -> roomKey
	rooms      map[string]*room       // roomKey -> member set
}

func NewHub() *Hub {
	return &Hub{
		conns:      make(map[string]*clientConn),
		membership: make(map[string]string),
		rooms:      make(map[string]*room),
	}
}

// Track registers a freshly accepted connection. It is not in any room yet.
func (h *Hub) Track(c *clientConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// Untrack removes the connection from its room (if any) and from the
// registry. It returns the room the connection was in. Idempotent: a second
// call for the same ID reports no room.
func (h *Hub) Untrack(connID string) (roomKey string, wasMember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	return h.leaveLocked(connID)
}

// Join moves the connection into roomKey, removing it from any previous
// room first. The previous room key is returned so the caller can notify
// its remaining members.
func (h *Hub) Join(connID, roomKey string) (prevRoom string, hadPrev bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return "", false
	}
	prevRoom, hadPrev = h.leaveLocked(connID)

	r, ok := h.rooms[roomKey]
	if !ok {
		r = newRoom()
		h.rooms[roomKey] = r
	}
	r.conns[connID] = c
	h.membership[connID] = roomKey
	return prevRoom, hadPrev
}

// Leave removes the connection's membership, returning the room it was in.
func (h *Hub) Leave(connID string) (roomKey string, wasMember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(connID)
}

func (h *Hub) leaveLocked(connID string) (string, bool) {
	roomKey, ok := h.membership[connID]
	if !ok {
		return "", false
	}
	delete(h.membership, connID)
	if r, ok := h.rooms[roomKey]; ok {
		delete(r.conns, connID)
		if len(r.conns) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	return roomKey, true
}

// Count reports the live member count, derived from the room's connection
// set. Unknown rooms count zero.
func (h *Hub) Count(roomKey string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[roomKey]; ok {
		return len(r.conns)
	}
	return 0
}

// Members returns the connection IDs currently in the room.
func (h *Hub) Members(roomKey string) []string {
	return h.OtherMembers(roomKey, "")
}

// OtherMembers returns the room's member IDs with `excluding` filtered out.
func (h *Hub) OtherMembers(roomKey, excluding string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomKey]
	if !ok {
		return []string{}
	}
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		if id != excluding {
			ids = append(ids, id)
		}
	}
	return ids
}

// RoomOf returns the room the connection is currently a member of.
func (h *Hub) RoomOf(connID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	roomKey, ok := h.membership[connID]
	return roomKey, ok
}

// Conn looks a connection up by ID, for targeted relay delivery.
func (h *Hub) Conn(connID string) (*clientConn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	return c, ok
}

// ForwardOrdered runs mutate (may be nil) and fans the envelope out to
// every room member except `excluding` (empty excludes nobody), under the
// room's order lock: concurrent senders to the same room are applied to the
// store and delivered to each member in one and the same order. With no
// live room the mutation still runs (the store treats unknown keys as
// no-ops) and nothing is sent.
func (h *Hub) ForwardOrdered(roomKey, excluding string, mutate func(), event string, body any) {
	h.mu.Lock()
	r, ok := h.rooms[roomKey]
	h.mu.Unlock()
	if !ok {
		if mutate != nil {
			mutate()
		}
		return
	}

	r.seq.Lock()
	defer r.seq.Unlock()

	h.mu.Lock()
	conns := make([]*clientConn, 0, len(r.conns))
	for id, c := range r.conns {
		if id != excluding {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	if mutate != nil {
		mutate()
	}
	broadcast(conns, event, body)
}
