package hub_test

import (
	"context"

	"matcha/backend/internal/models"
	"matcha/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// mockStorage is a testify mock over the full storage.Storage interface.
// Hub tests only exercise a few methods; the rest exist to satisfy the
// contract.
type mockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*mockStorage)(nil)

func (m *mockStorage) UpsertInteraction(ctx context.Context, actorID, targetID uint64, kind models.InteractionKind) error {
	args := m.Called(ctx, actorID, targetID, kind)
	return args.Error(0)
}

func (m *mockStorage) MutualLikeExists(ctx context.Context, a, b uint64) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) CreateConversationIfAbsent(ctx context.Context, a, b uint64) (*models.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockStorage) DeleteMatch(ctx context.Context, a, b uint64) (*models.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockStorage) ListLikers(ctx context.Context, userID uint64, limit int) ([]models.Interaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Interaction), args.Error(1)
}

func (m *mockStorage) CountLikers(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStorage) GetConversation(ctx context.Context, id uint64) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockStorage) ListParticipants(ctx context.Context, conversationID uint64) ([]uint64, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *mockStorage) InsertMessage(ctx context.Context, conversationID, senderID uint64, body string) (*models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockStorage) ListMessages(ctx context.Context, conversationID uint64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockStorage) SaveReport(ctx context.Context, r *models.Report) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockStorage) DeleteReport(ctx context.Context, id, reporterID uint64) error {
	args := m.Called(ctx, id, reporterID)
	return args.Error(0)
}

func (m *mockStorage) PublishEvent(ctx context.Context, evt models.BusEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *mockStorage) SubscribeEvents(ctx context.Context) (<-chan models.BusEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan models.BusEvent), args.Error(1)
}

func (m *mockStorage) SetUserOnline(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) SetUserOffline(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) OnlineUsers(ctx context.Context) ([]uint64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *mockStorage) IncrLikeCount(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) DecrLikeCount(ctx context.Context, userID uint64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockStorage) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}
