package hub_test

import (
	"testing"
	"time"

	"matcha/backend/internal/hub"
	"matcha/backend/internal/logger"
	"matcha/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) (*hub.Dispatcher, *hub.Registry, *hub.Rooms, *mockStorage) {
	t.Helper()
	store := new(mockStorage)
	store.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	registry := hub.NewRegistry()
	rooms := hub.NewRooms(logger.L())
	d := hub.NewDispatcher(registry, rooms, store, "instance-a", logger.L())
	return d, registry, rooms, store
}

func decodeNotification(t *testing.T, evt models.Event) models.Notification {
	t.Helper()
	var n models.Notification
	require.NoError(t, evt.Decode(&n))
	return n
}

func TestDispatcher_DirectDeliveryToEveryDevice(t *testing.T) {
	d, registry, _, _ := newDispatcher(t)

	phone := newMockClient(2, "conn-phone")
	laptop := newMockClient(2, "conn-laptop")
	for _, c := range []*mockClient{phone, laptop} {
		_, err := registry.Register(c)
		require.NoError(t, err)
	}

	d.Notify(2, models.Notification{Kind: models.NotificationNewLike, SenderID: 1})

	for _, c := range []*mockClient{phone, laptop} {
		events := c.eventsOfType(models.EventNewNotification)
		require.Len(t, events, 1)
		n := decodeNotification(t, events[0])
		assert.Equal(t, models.NotificationNewLike, n.Kind)
		assert.Equal(t, uint64(1), n.SenderID)
		assert.Equal(t, uint64(2), n.TargetUserID)
		assert.False(t, n.Timestamp.IsZero())
	}
}

func TestDispatcher_UserRoomFallback(t *testing.T) {
	d, _, rooms, _ := newDispatcher(t)

	// connection is in the user room but missing from the registry;
	// the room is the single fallback path
	c := newMockClient(3, "conn-a")
	rooms.Join(c, hub.UserRoom(3))

	d.Notify(3, models.Notification{Kind: models.NotificationNewMatch, SenderID: 1})

	assert.Len(t, c.eventsOfType(models.EventNewNotification), 1)
}

func TestDispatcher_OfflineTargetIsSilentlyDropped(t *testing.T) {
	d, _, _, _ := newDispatcher(t)

	// no connections anywhere; must not panic or error
	d.Notify(404, models.Notification{Kind: models.NotificationNewLike, SenderID: 1})
}

func TestDispatcher_BusEventSkipsOwnOrigin(t *testing.T) {
	d, registry, _, _ := newDispatcher(t)

	c := newMockClient(2, "conn-a")
	_, err := registry.Register(c)
	require.NoError(t, err)

	evt, err := models.NewEvent(models.EventNewNotification, models.Notification{TargetUserID: 2})
	require.NoError(t, err)

	d.HandleBusEvent(models.BusEvent{Origin: "instance-a", TargetUserID: 2, Event: evt})
	assert.Empty(t, c.events(), "own events were already delivered locally")

	d.HandleBusEvent(models.BusEvent{Origin: "instance-b", TargetUserID: 2, Event: evt})
	assert.Len(t, c.events(), 1, "peer events reach local connections")
}

func TestDispatcher_BusRoomEvent(t *testing.T) {
	d, _, rooms, _ := newDispatcher(t)

	c := newMockClient(5, "conn-a")
	rooms.Join(c, hub.ConversationRoom(9))

	evt, err := models.NewEvent(models.EventNewMessage, models.Message{ConversationID: 9})
	require.NoError(t, err)
	d.HandleBusEvent(models.BusEvent{Origin: "instance-b", Room: hub.ConversationRoom(9), Event: evt})

	assert.Len(t, c.eventsOfType(models.EventNewMessage), 1)
}

func TestDispatcher_BroadcastPublishesToBus(t *testing.T) {
	store := new(mockStorage)
	published := make(chan models.BusEvent, 1)
	store.On("PublishEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published <- args.Get(1).(models.BusEvent)
		}).
		Return(nil)

	registry := hub.NewRegistry()
	rooms := hub.NewRooms(logger.L())
	d := hub.NewDispatcher(registry, rooms, store, "instance-a", logger.L())

	c := newMockClient(1, "conn-a")
	rooms.Join(c, hub.ConversationRoom(3))

	evt, err := models.NewEvent(models.EventUserTyping, models.TypingPayload{ConversationID: 3})
	require.NoError(t, err)
	d.Broadcast(hub.ConversationRoom(3), evt)

	assert.Len(t, c.eventsOfType(models.EventUserTyping), 1)

	// the bus publish runs async
	select {
	case bus := <-published:
		assert.Equal(t, "instance-a", bus.Origin)
		assert.Equal(t, hub.ConversationRoom(3), bus.Room)
		assert.Equal(t, models.EventUserTyping, bus.Event.Type)
	case <-time.After(time.Second):
		t.Fatal("event never reached the bus")
	}
}

func TestDispatcher_RoomHasUser(t *testing.T) {
	d, _, rooms, _ := newDispatcher(t)

	c := newMockClient(8, "conn-a")
	rooms.Join(c, hub.ConversationRoom(2))

	assert.True(t, d.RoomHasUser(hub.ConversationRoom(2), 8))
	assert.False(t, d.RoomHasUser(hub.ConversationRoom(2), 9))
}
