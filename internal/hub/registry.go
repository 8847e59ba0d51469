package hub

import (
	"sync"

	apperr "matcha/backend/internal/errors"
)

// Registry is the authoritative map from user identity to live connections.
// A user may hold zero, one or several connections at once (multi-device),
// so the value is a set keyed by connection id, never a single slot.
//
// All mutation goes through one mutex, which linearizes register/unregister
// for any given user; reads work on the same lock in shared mode and return
// snapshots.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uint64]map[string]Client
	owners map[string]uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[uint64]map[string]Client),
		owners: make(map[string]uint64),
	}
}

// Register adds the connection under its owner. It reports whether this is
// the user's first live connection, so the caller can announce presence
// exactly once. A connection without a resolvable identity is refused.
func (r *Registry) Register(c Client) (first bool, err error) {
	userID := c.GetUserID()
	if userID == 0 {
		return false, apperr.ErrUnauthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[string]Client)
		r.byUser[userID] = conns
	}
	first = len(conns) == 0
	conns[c.GetConnectionID()] = c
	r.owners[c.GetConnectionID()] = userID
	return first, nil
}

// Unregister removes exactly the given connection, leaving the user's other
// devices intact. last is true when the user has no connections left.
func (r *Registry) Unregister(connID string) (userID uint64, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok = r.owners[connID]
	if !ok {
		return 0, false, false
	}
	delete(r.owners, connID)

	conns := r.byUser[userID]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byUser, userID)
		last = true
	}
	return userID, last, true
}

// ConnectionsOf returns a snapshot of the user's live connections.
func (r *Registry) ConnectionsOf(userID uint64) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	out := make([]Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// OwnerOf resolves a connection id back to its user.
func (r *Registry) OwnerOf(connID string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.owners[connID]
	return userID, ok
}

// AllConnections returns a snapshot of every live connection, used for
// presence broadcasts.
func (r *Registry) AllConnections() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.owners))
	for _, conns := range r.byUser {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}
