package hub_test

import (
	"testing"

	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/hub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_MultiDevice(t *testing.T) {
	r := hub.NewRegistry()

	phone := newMockClient(1, "conn-phone")
	laptop := newMockClient(1, "conn-laptop")

	first, err := r.Register(phone)
	require.NoError(t, err)
	assert.True(t, first)

	first, err = r.Register(laptop)
	require.NoError(t, err)
	assert.False(t, first, "second device is not a presence change")

	assert.Len(t, r.ConnectionsOf(1), 2)

	owner, ok := r.OwnerOf("conn-laptop")
	require.True(t, ok)
	assert.Equal(t, uint64(1), owner)

	// disconnecting one device leaves the other intact
	userID, last, ok := r.Unregister("conn-phone")
	require.True(t, ok)
	assert.Equal(t, uint64(1), userID)
	assert.False(t, last)
	assert.Len(t, r.ConnectionsOf(1), 1)

	_, last, ok = r.Unregister("conn-laptop")
	require.True(t, ok)
	assert.True(t, last)
	assert.Empty(t, r.ConnectionsOf(1))
}

func TestRegistry_RejectsAnonymous(t *testing.T) {
	r := hub.NewRegistry()

	_, err := r.Register(newMockClient(0, "conn-x"))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Empty(t, r.AllConnections())
}

func TestRegistry_UnregisterUnknownConn(t *testing.T) {
	r := hub.NewRegistry()

	_, _, ok := r.Unregister("never-registered")
	assert.False(t, ok)

	// cleanup detected twice only takes effect once
	c := newMockClient(2, "conn-a")
	_, err := r.Register(c)
	require.NoError(t, err)
	_, _, ok = r.Unregister("conn-a")
	assert.True(t, ok)
	_, _, ok = r.Unregister("conn-a")
	assert.False(t, ok)
}

func TestRegistry_AllConnections(t *testing.T) {
	r := hub.NewRegistry()

	for _, c := range []*mockClient{
		newMockClient(1, "a"), newMockClient(1, "b"), newMockClient(2, "c"),
	} {
		_, err := r.Register(c)
		require.NoError(t, err)
	}
	assert.Len(t, r.AllConnections(), 3)
}
