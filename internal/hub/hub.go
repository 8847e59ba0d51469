package hub

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"

	"github.com/google/uuid"
)

// handlerTimeout bounds the store work done on behalf of one socket event.
const handlerTimeout = 10 * time.Second

// Inbound is one decoded client event together with its origin connection.
type Inbound struct {
	Client Client
	Event  models.Event
}

// ChatService is the slice of the chat coordinator the hub needs to serve
// socket-borne messages and typing indicators. Wired in after construction
// to keep the dependency one-way.
type ChatService interface {
	Post(ctx context.Context, conversationID, senderID uint64, body string) (*models.Message, error)
	Typing(ctx context.Context, conversationID, userID uint64, isTyping bool, excludeConns ...string) error
}

// Hub owns the connection lifecycle. Registration, disconnection and
// inbound events arrive over channels from the transport goroutines; the
// run loop serializes lifecycle handling while queries go straight to the
// registry and room manager under their own locks.
type Hub struct {
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound

	registry   *Registry
	rooms      *Rooms
	dispatcher *Dispatcher
	store      storage.Storage
	chat       ChatService
	instanceID string
	log        *slog.Logger
	done       chan struct{}
}

func New(store storage.Storage, log *slog.Logger) *Hub {
	instanceID := uuid.New().String()
	registry := NewRegistry()
	rooms := NewRooms(log)
	return &Hub{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan Inbound, 64),
		registry:     registry,
		rooms:        rooms,
		dispatcher:   NewDispatcher(registry, rooms, store, instanceID, log),
		store:        store,
		instanceID:   instanceID,
		log:          log,
		done:         make(chan struct{}),
	}
}

// SetChatService wires the chat coordinator in. Must be called before Run.
func (h *Hub) SetChatService(chat ChatService) { h.chat = chat }

func (h *Hub) Registry() *Registry     { return h.registry }
func (h *Hub) Rooms() *Rooms           { return h.rooms }
func (h *Hub) Dispatcher() *Dispatcher { return h.dispatcher }

// Run processes lifecycle and inbound events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.RegisterCh:
			h.handleRegister(c)
		case c := <-h.UnregisterCh:
			h.handleUnregister(c)
		case in := <-h.IncomingCh:
			go h.handleInbound(in)
		case <-h.done:
			return
		}
	}
}

// Stop terminates the run loop and closes every live connection.
func (h *Hub) Stop() {
	close(h.done)
	for _, c := range h.registry.AllConnections() {
		c.Close()
	}
}

// StartEventBusListener consumes the Redis bus and hands peer-instance
// events to the dispatcher. Returns once the subscription is established.
func (h *Hub) StartEventBusListener(ctx context.Context) error {
	events, err := h.store.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	go func() {
		for evt := range events {
			h.dispatcher.HandleBusEvent(evt)
		}
	}()
	return nil
}

func (h *Hub) handleRegister(c Client) {
	first, err := h.registry.Register(c)
	if err != nil {
		h.log.Warn("refusing connection without identity", "conn", c.GetConnectionID())
		c.Close()
		return
	}

	// every connection sits in its owner's notification room
	h.rooms.Join(c, UserRoom(c.GetUserID()))

	h.log.Info("client connected",
		"user", c.GetUserID(), "conn", c.GetConnectionID(), "first", first)

	if first {
		go h.markOnline(c.GetUserID(), true)
		h.broadcastPresence(models.EventUserConnected, c.GetUserID())
	}
}

func (h *Hub) handleUnregister(c Client) {
	userID, last, ok := h.registry.Unregister(c.GetConnectionID())
	if !ok {
		// already cleaned up by another path
		return
	}
	h.rooms.LeaveAll(c)
	c.Close()

	h.log.Info("client disconnected", "user", userID, "conn", c.GetConnectionID(), "last", last)

	if last {
		go h.markOnline(userID, false)
		h.broadcastPresence(models.EventUserDisconnected, userID)
	}
}

// broadcastPresence announces a presence change to every live connection.
func (h *Hub) broadcastPresence(eventType string, userID uint64) {
	evt, err := models.NewEvent(eventType, models.PresencePayload{UserID: userID})
	if err != nil {
		h.log.Error("failed to encode presence event", "err", err)
		return
	}
	for _, c := range h.registry.AllConnections() {
		if !c.Send(evt) {
			h.log.Debug("presence event dropped", "conn", c.GetConnectionID())
		}
	}
}

// markOnline mirrors presence into the shared Redis set, best effort.
func (h *Hub) markOnline(userID uint64, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if online {
		err = h.store.SetUserOnline(ctx, userID)
	} else {
		err = h.store.SetUserOffline(ctx, userID)
	}
	if err != nil {
		h.log.Warn("failed to update online set", "user", userID, "err", err)
	}
}

func (h *Hub) handleInbound(in Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	c := in.Client
	switch in.Event.Type {
	case models.EventJoinChat:
		var p models.JoinChatPayload
		if err := in.Event.Decode(&p); err != nil {
			h.log.Debug("malformed join_chat", "conn", c.GetConnectionID(), "err", err)
			return
		}
		h.joinConversation(ctx, c, p.ConversationID)

	case models.EventLeaveChat:
		var p models.JoinChatPayload
		if err := in.Event.Decode(&p); err != nil {
			return
		}
		h.rooms.Leave(c, ConversationRoom(p.ConversationID))

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if err := in.Event.Decode(&p); err != nil {
			return
		}
		if h.chat == nil {
			return
		}
		if _, err := h.chat.Post(ctx, p.ConversationID, c.GetUserID(), p.Body); err != nil {
			h.log.Warn("socket message rejected",
				"user", c.GetUserID(), "conversation", p.ConversationID, "err", err)
		}

	case models.EventTyping:
		var p models.TypingPayload
		if err := in.Event.Decode(&p); err != nil {
			return
		}
		if h.chat == nil {
			return
		}
		if err := h.chat.Typing(ctx, p.ConversationID, c.GetUserID(), p.IsTyping, c.GetConnectionID()); err != nil {
			h.log.Debug("typing rejected",
				"user", c.GetUserID(), "conversation", p.ConversationID, "err", err)
		}

	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if err := in.Event.Decode(&p); err != nil {
			return
		}
		h.joinNamedRoom(ctx, c, p.Room)

	case models.EventNotificationRead:
		// relay to the user's other devices so badges stay in sync;
		// nothing is persisted
		h.rooms.Broadcast(UserRoom(c.GetUserID()), in.Event, c.GetConnectionID())

	default:
		h.log.Debug("unknown socket event", "type", in.Event.Type, "conn", c.GetConnectionID())
	}
}

// joinConversation puts the connection into a conversation room after
// verifying the owner is one of the two participants. Unauthorized joins
// change nothing.
func (h *Hub) joinConversation(ctx context.Context, c Client, conversationID uint64) {
	participants, err := h.store.ListParticipants(ctx, conversationID)
	if err != nil {
		h.log.Debug("join_chat for unknown conversation",
			"conversation", conversationID, "conn", c.GetConnectionID(), "err", err)
		return
	}
	for _, id := range participants {
		if id == c.GetUserID() {
			h.rooms.Join(c, ConversationRoom(conversationID))
			return
		}
	}
	h.log.Warn("forbidden conversation join",
		"user", c.GetUserID(), "conversation", conversationID)
}

// joinNamedRoom handles the generic join_room operation. Only the caller's
// own notification room and conversations the caller participates in are
// legal targets.
func (h *Hub) joinNamedRoom(ctx context.Context, c Client, room string) {
	switch {
	case room == UserRoom(c.GetUserID()):
		h.rooms.Join(c, room)
	case strings.HasPrefix(room, "conversation_"):
		raw := strings.TrimPrefix(room, "conversation_")
		conversationID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.log.Debug("malformed room name", "room", room)
			return
		}
		h.joinConversation(ctx, c, conversationID)
	default:
		h.log.Warn("forbidden room join", "user", c.GetUserID(), "room", room)
	}
}
