// internal/handlers/rooms.go
package handlers

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Conn is a single websocket client's presence. Seat is the player number
// the connection authenticated as (-1 for spectators); Out is drained by
// the connection's write pump.
type Conn struct {
	ID   uuid.UUID
	Seat int
	Out  chan []byte
}

// Send pushes a pre-marshaled frame non-blockingly. A full channel drops
// the frame rather than stalling the room; snapshot frames are
// self-contained so a dropped one is repaired by the next.
func (c *Conn) Send(frame []byte) {
	select {
	case c.Out <- frame:
	default:
		log.Printf("Conn %s: outbound channel full, dropped frame.", c.ID)
	}
}

// Rooms implements draft-scoped fan-out: every connection that joined a
// draft's room receives every snapshot published for that draft.
type Rooms struct {
	mu    sync.Mutex
	rooms map[string]map[uuid.UUID]*Conn
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[string]map[uuid.UUID]*Conn)}
}

// Join adds the connection to a draft's room. Re-joining is a no-op, which
// makes reconnect handling idempotent.
func (r *Rooms) Join(draftID string, conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[draftID]
	if !ok {
		room = make(map[uuid.UUID]*Conn)
		r.rooms[draftID] = room
	}
	room[conn.ID] = conn
}

// Leave removes the connection from every room it joined; empty rooms are
// deleted.
func (r *Rooms) Leave(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for draftID, room := range r.rooms {
		if _, ok := room[conn.ID]; ok {
			delete(room, conn.ID)
			if len(room) == 0 {
				delete(r.rooms, draftID)
			}
		}
	}
}

// Publish fans a frame out to every member of a draft's room.
func (r *Rooms) Publish(draftID string, frame []byte) {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.rooms[draftID]))
	for _, c := range r.rooms[draftID] {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.Send(frame)
	}
}

// Size reports a room's membership, for logging and tests.
func (r *Rooms) Size(draftID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[draftID])
}
