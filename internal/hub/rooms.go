package hub

import (
	"fmt"
	"log/slog"
	"sync"

	"matcha/backend/internal/models"
)

// UserRoom names the per-user notification room; its only members are that
// user's own connections.
func UserRoom(userID uint64) string {
	return fmt.Sprintf("user_%d", userID)
}

// ConversationRoom names the broadcast room of one conversation.
func ConversationRoom(conversationID uint64) string {
	return fmt.Sprintf("conversation_%d", conversationID)
}

// Rooms tracks named broadcast groups over live connections. Authorization
// is the caller's job; Rooms only manages membership and fan-out.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]Client
	joined  map[string]map[string]struct{}
	log     *slog.Logger
}

func NewRooms(log *slog.Logger) *Rooms {
	return &Rooms{
		members: make(map[string]map[string]Client),
		joined:  make(map[string]map[string]struct{}),
		log:     log,
	}
}

// Join adds the connection to the room. Joining twice is a no-op.
func (r *Rooms) Join(c Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.members[room]
	if !ok {
		conns = make(map[string]Client)
		r.members[room] = conns
	}
	conns[c.GetConnectionID()] = c

	rooms, ok := r.joined[c.GetConnectionID()]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[c.GetConnectionID()] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes the connection from the room. Leaving a room that was never
// joined is a no-op.
func (r *Rooms) Leave(c Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c.GetConnectionID(), room)
}

// LeaveAll removes the connection from every room it joined, part of the
// disconnect cleanup.
func (r *Rooms) LeaveAll(c Client) {
	connID := c.GetConnectionID()

	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[connID] {
		r.leaveLocked(connID, room)
	}
}

func (r *Rooms) leaveLocked(connID, room string) {
	if conns, ok := r.members[room]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.members, room)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

// IsMember reports whether the connection is currently in the room.
func (r *Rooms) IsMember(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.joined[connID][room]
	return ok
}

// HasUser reports whether any of the user's connections is in the room.
func (r *Rooms) HasUser(room string, userID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.members[room] {
		if c.GetUserID() == userID {
			return true
		}
	}
	return false
}

// Broadcast delivers the event to every member of the room except the
// excluded connection ids. An empty room is a no-op. A member that cannot
// accept the event (closed or saturated) is dropped from the room; the
// broadcast itself never fails.
func (r *Rooms) Broadcast(room string, evt models.Event, exclude ...string) {
	r.mu.RLock()
	targets := make([]Client, 0, len(r.members[room]))
	for connID, c := range r.members[room] {
		if contains(exclude, connID) {
			continue
		}
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	var dropped []Client
	for _, c := range targets {
		if !c.Send(evt) {
			dropped = append(dropped, c)
		}
	}

	if len(dropped) > 0 {
		r.mu.Lock()
		for _, c := range dropped {
			r.leaveLocked(c.GetConnectionID(), room)
		}
		r.mu.Unlock()
		for _, c := range dropped {
			r.log.Warn("dropped unresponsive connection from room",
				"room", room, "conn", c.GetConnectionID(), "user", c.GetUserID())
		}
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
