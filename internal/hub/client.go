package hub

import "matcha/backend/internal/models"

// Client is one live connection, whatever the underlying transport. The hub
// manages websocket clients and test doubles through the same interface.
type Client interface {
	// GetUserID returns the authenticated owner of the connection.
	GetUserID() uint64
	// GetConnectionID returns the unique id of this connection. A user on
	// several devices holds several ids.
	GetConnectionID() string

	// Send queues an event for delivery without blocking. It returns false
	// when the connection is closed or its buffer is full; the event is
	// dropped in that case, delivery is best effort.
	Send(evt models.Event) bool

	// Run starts the connection's read and write loops.
	Run()
	// Close shuts the connection down. Safe to call more than once.
	Close()
}
