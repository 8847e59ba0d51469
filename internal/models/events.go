package models

import (
	"encoding/json"
	"time"
)

// Client -> server event types.
const (
	EventJoinChat         = "join_chat"
	EventLeaveChat        = "leave_chat"
	EventSendMessage      = "send_message"
	EventTyping           = "typing"
	EventJoinRoom         = "join_room"
	EventNotificationRead = "notification_read"
)

// Server -> client event types.
const (
	EventUserConnected    = "user_connected"
	EventUserDisconnected = "user_disconnected"
	EventNewMessage       = "new_message"
	EventUserTyping       = "user_typing"
	EventNewNotification  = "new_notification"

	// EventBroadcastNotification is part of the historical event catalogue.
	// The server no longer emits it: notifications go straight to the
	// target's connections, with the per-user room as the only fallback.
	EventBroadcastNotification = "broadcast_notification"
)

// Notification payload kinds carried inside a new_notification event.
const (
	NotificationNewLike    = "new_like"
	NotificationNewMatch   = "new_match"
	NotificationUnmatch    = "unmatch"
	NotificationNewMessage = "new_message"
)

// Event is the envelope every websocket frame carries, in both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(eventType string, payload any) (Event, error) {
	if payload == nil {
		return Event{Type: eventType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, dst)
}

// JoinChatPayload carries join_chat / leave_chat requests.
type JoinChatPayload struct {
	ConversationID uint64 `json:"conversation_id"`
}

// SendMessagePayload carries a chat message sent over the socket.
type SendMessagePayload struct {
	ConversationID uint64 `json:"conversation_id"`
	Body           string `json:"body"`
}

// TypingPayload carries a typing indicator. Never persisted.
type TypingPayload struct {
	ConversationID uint64 `json:"conversation_id"`
	UserID         uint64 `json:"user_id,omitempty"`
	IsTyping       bool   `json:"is_typing"`
}

// JoinRoomPayload carries an explicit room join by name.
type JoinRoomPayload struct {
	Room string `json:"room"`
}

// PresencePayload announces a user going online or offline.
type PresencePayload struct {
	UserID uint64 `json:"user_id"`
}

// Notification is the transient payload delivered through new_notification
// events. It is never persisted; delivery is best effort and an offline
// target simply misses it.
type Notification struct {
	Kind           string    `json:"kind"`
	SenderID       uint64    `json:"sender_id,omitempty"`
	TargetUserID   uint64    `json:"target_user_id"`
	ConversationID uint64    `json:"conversation_id,omitempty"`
	Body           string    `json:"body,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// BusEvent is the envelope published on the Redis event bus so that peer
// server instances can deliver to their own local connections. Origin is the
// publishing instance id; consumers skip their own events.
//
// Exactly one of Room or TargetUserID is set: room events are re-broadcast
// into the named room, user events go through the local presence registry.
type BusEvent struct {
	Origin       string `json:"origin"`
	Room         string `json:"room,omitempty"`
	TargetUserID uint64 `json:"target_user_id,omitempty"`
	Event        Event  `json:"event"`
}
