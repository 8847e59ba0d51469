package hub_test

import (
	"sync"

	"matcha/backend/internal/hub"
	"matcha/backend/internal/models"
)

// mockClient implements hub.Client with an inspectable inbox.
type mockClient struct {
	userID uint64
	connID string

	mu       sync.Mutex
	inbox    []models.Event
	rejected bool
	closed   bool
}

func newMockClient(userID uint64, connID string) *mockClient {
	return &mockClient{userID: userID, connID: connID}
}

func (m *mockClient) GetUserID() uint64       { return m.userID }
func (m *mockClient) GetConnectionID() string { return m.connID }

func (m *mockClient) Send(evt models.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejected || m.closed {
		return false
	}
	m.inbox = append(m.inbox, evt)
	return true
}

func (m *mockClient) Run() {}

func (m *mockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// reject makes every subsequent Send fail, simulating a saturated buffer.
func (m *mockClient) reject() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = true
}

func (m *mockClient) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, len(m.inbox))
	copy(out, m.inbox)
	return out
}

func (m *mockClient) eventsOfType(eventType string) []models.Event {
	var out []models.Event
	for _, evt := range m.events() {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

var _ hub.Client = (*mockClient)(nil)
