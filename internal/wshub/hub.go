package wshub

import (
	"context"
	"sync"

	"github.com/coder/websocket"
)

// Client represents a single WebSocket connection in the hub. GuestID
// is empty until the connection joins a room.
type Client struct {
	ConnID  string
	GuestID string
	Conn    *websocket.Conn
	Send    chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks connections and their room membership. Frames handed to
// the broadcast methods are already encoded; delivery is non-blocking
// and drops when a client's channel is full.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // conn id → client
	byGuest map[string]string             // guest id → conn id
	members map[string]map[string]*Client // room id → conn id → client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byGuest: make(map[string]string),
		members: make(map[string]map[string]*Client),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ConnID] = c
}

// JoinRoom binds a connection to a room's broadcast group and records
// its guest identity. A connection belongs to at most one room;
// joining again moves it, so no frames from the previous room keep
// arriving.
func (h *Hub) JoinRoom(connID, roomID, guestID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	for id, room := range h.members {
		if id == roomID {
			continue
		}
		if _, in := room[connID]; in {
			delete(room, connID)
			if len(room) == 0 {
				delete(h.members, id)
			}
		}
	}
	if c.GuestID != "" && c.GuestID != guestID && h.byGuest[c.GuestID] == connID {
		delete(h.byGuest, c.GuestID)
	}
	c.GuestID = guestID
	h.byGuest[guestID] = connID

	room, ok := h.members[roomID]
	if !ok {
		room = make(map[string]*Client)
		h.members[roomID] = room
	}
	room[connID] = c
}

// Unregister removes a connection, its room membership, and closes its
// Send channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	if c.GuestID != "" && h.byGuest[c.GuestID] == connID {
		delete(h.byGuest, c.GuestID)
	}
	for roomID, room := range h.members {
		if _, in := room[connID]; in {
			delete(room, connID)
			if len(room) == 0 {
				delete(h.members, roomID)
			}
		}
	}
	close(c.Send)
}

// Broadcast sends a frame to every member of a room.
func (h *Hub) Broadcast(roomID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.members[roomID] {
		h.send(c, frame)
	}
}

// BroadcastExcept sends a frame to every member of a room except one
// connection.
func (h *Hub) BroadcastExcept(roomID, exceptConnID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, c := range h.members[roomID] {
		if connID == exceptConnID {
			continue
		}
		h.send(c, frame)
	}
}

// SendTo forwards a frame to one connection, addressed by conn id or
// guest id. Unknown targets are a silent no-op; the return value exists
// for observability only.
func (h *Hub) SendTo(target string, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[target]
	if !ok {
		if connID, found := h.byGuest[target]; found {
			c, ok = h.clients[connID]
		}
	}
	if !ok {
		return false
	}
	h.send(c, frame)
	return true
}

// RoomSize reports how many connections are in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[roomID])
}

func (h *Hub) send(c *Client, frame []byte) {
	select {
	case c.Send <- frame:
	default:
		// Drop message if channel full
	}
}
