package chat

import (
	"context"
	"log/slog"
	"strings"

	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/hub"
	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"
)

const defaultHistoryLimit = 200

// Realtime is the slice of the hub dispatcher the coordinator needs:
// room fan-out, direct notification, and the membership probe behind the
// notification suppression rule.
type Realtime interface {
	Broadcast(room string, evt models.Event, exclude ...string)
	Notify(targetUserID uint64, n models.Notification)
	RoomHasUser(room string, userID uint64) bool
}

// Service persists chat messages and fans them out to the conversation room
// and, when needed, to the other participant's notification path.
type Service struct {
	store storage.Storage
	rt    Realtime
	log   *slog.Logger
}

func New(store storage.Storage, rt Realtime, log *slog.Logger) *Service {
	return &Service{store: store, rt: rt, log: log}
}

// Post persists the message, broadcasts new_message to the conversation
// room, and notifies the other participant unless one of their connections
// already sits in that room (the room broadcast delivered it).
//
// The persistence write is the only step that can fail; fan-out losses are
// logged inside the dispatcher and never surface here.
func (s *Service) Post(ctx context.Context, conversationID, senderID uint64, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	other, ok := conv.Other(senderID)
	if !ok {
		return nil, apperr.ErrForbidden
	}

	msg, err := s.store.InsertMessage(ctx, conversationID, senderID, body)
	if err != nil {
		return nil, err
	}

	room := hub.ConversationRoom(conversationID)
	if evt, err := models.NewEvent(models.EventNewMessage, msg); err == nil {
		s.rt.Broadcast(room, evt)
	} else {
		s.log.Error("failed to encode message event", "err", err)
	}

	if !s.rt.RoomHasUser(room, other) {
		s.rt.Notify(other, models.Notification{
			Kind:           models.NotificationNewMessage,
			SenderID:       senderID,
			ConversationID: conversationID,
			Body:           msg.Body,
		})
	}

	return msg, nil
}

// Typing validates membership and broadcasts a user_typing event to the
// conversation room, excluding the sender's own connection. Indicators are
// never stored and never retried.
func (s *Service) Typing(ctx context.Context, conversationID, userID uint64, isTyping bool, excludeConns ...string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if _, ok := conv.Other(userID); !ok {
		return apperr.ErrForbidden
	}

	evt, err := models.NewEvent(models.EventUserTyping, models.TypingPayload{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	})
	if err != nil {
		return err
	}
	s.rt.Broadcast(hub.ConversationRoom(conversationID), evt, excludeConns...)
	return nil
}

// History returns the conversation's messages in send order, for
// participants only.
func (s *Service) History(ctx context.Context, conversationID, userID uint64, limit int) ([]models.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, ok := conv.Other(userID); !ok {
		return nil, apperr.ErrForbidden
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.ListMessages(ctx, conversationID, limit)
}
