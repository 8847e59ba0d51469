package hub

import (
	"context"
	"log/slog"
	"time"

	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"
)

// Dispatcher delivers events to users and rooms. Local connections are
// served through the presence registry and room manager; a copy of every
// event also goes on the Redis bus so peer instances can serve theirs.
//
// Delivery is fire-and-forget: a dispatcher call never fails the caller and
// never blocks its request cycle. Losing a live event is recoverable (the
// durable state will be seen on the next fetch), losing the caller's write
// is not.
type Dispatcher struct {
	registry   *Registry
	rooms      *Rooms
	store      storage.Storage
	instanceID string
	log        *slog.Logger
}

func NewDispatcher(registry *Registry, rooms *Rooms, store storage.Storage, instanceID string, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		rooms:      rooms,
		store:      store,
		instanceID: instanceID,
		log:        log,
	}
}

// Notify sends a new_notification event to the target user: directly to
// every live connection if the registry knows any, otherwise to the per-user
// room as the single fallback. An offline target is silently skipped.
func (d *Dispatcher) Notify(targetUserID uint64, n models.Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	n.TargetUserID = targetUserID

	evt, err := models.NewEvent(models.EventNewNotification, n)
	if err != nil {
		d.log.Error("failed to encode notification", "err", err)
		return
	}

	d.deliverToUser(targetUserID, evt)
	go d.publish(models.BusEvent{
		Origin:       d.instanceID,
		TargetUserID: targetUserID,
		Event:        evt,
	})
}

// Broadcast fans the event out to the local room and to the same room on
// every peer instance.
func (d *Dispatcher) Broadcast(room string, evt models.Event, exclude ...string) {
	d.rooms.Broadcast(room, evt, exclude...)
	go d.publish(models.BusEvent{
		Origin: d.instanceID,
		Room:   room,
		Event:  evt,
	})
}

// RoomHasUser reports whether any of the user's local connections is in the
// room. Used by the chat coordinator to suppress redundant notifications.
func (d *Dispatcher) RoomHasUser(room string, userID uint64) bool {
	return d.rooms.HasUser(room, userID)
}

// HandleBusEvent delivers an envelope received from the Redis bus to local
// connections. Events published by this instance were already delivered and
// are skipped.
func (d *Dispatcher) HandleBusEvent(evt models.BusEvent) {
	if evt.Origin == d.instanceID {
		return
	}
	if evt.Room != "" {
		d.rooms.Broadcast(evt.Room, evt.Event)
		return
	}
	d.deliverToUser(evt.TargetUserID, evt.Event)
}

func (d *Dispatcher) deliverToUser(userID uint64, evt models.Event) {
	conns := d.registry.ConnectionsOf(userID)
	if len(conns) == 0 {
		// fallback path; a no-op when the user is offline here
		d.rooms.Broadcast(UserRoom(userID), evt)
		d.log.Debug("no live connection for target", "user", userID, "event", evt.Type)
		return
	}
	for _, c := range conns {
		if !c.Send(evt) {
			d.log.Warn("delivery failed, dropping event",
				"user", userID, "conn", c.GetConnectionID(), "event", evt.Type)
		}
	}
}

func (d *Dispatcher) publish(evt models.BusEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.PublishEvent(ctx, evt); err != nil {
		d.log.Warn("event bus publish failed", "event", evt.Event.Type, "err", err)
	}
}
