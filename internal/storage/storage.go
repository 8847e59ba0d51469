package storage

import (
	"context"
	"errors"

	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the persistence contract consumed by the realtime core.
// The durable half is backed by Postgres, the volatile half (event bus,
// online set, like counters) by Redis.
type Storage interface {
	// Interactions and matches
	UpsertInteraction(ctx context.Context, actorID, targetID uint64, kind models.InteractionKind) error
	MutualLikeExists(ctx context.Context, a, b uint64) (bool, error)
	CreateConversationIfAbsent(ctx context.Context, a, b uint64) (*models.Conversation, error)
	DeleteMatch(ctx context.Context, a, b uint64) (*models.Conversation, error)
	ListLikers(ctx context.Context, userID uint64, limit int) ([]models.Interaction, error)
	CountLikers(ctx context.Context, userID uint64) (int64, error)

	// Conversations and messages
	GetConversation(ctx context.Context, id uint64) (*models.Conversation, error)
	ListParticipants(ctx context.Context, conversationID uint64) ([]uint64, error)
	InsertMessage(ctx context.Context, conversationID, senderID uint64, body string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uint64, limit int) ([]models.Message, error)

	// Reports
	SaveReport(ctx context.Context, r *models.Report) error
	DeleteReport(ctx context.Context, id, reporterID uint64) error

	// Realtime side
	PublishEvent(ctx context.Context, evt models.BusEvent) error
	SubscribeEvents(ctx context.Context) (<-chan models.BusEvent, error)
	SetUserOnline(ctx context.Context, userID uint64) error
	SetUserOffline(ctx context.Context, userID uint64) error
	OnlineUsers(ctx context.Context) ([]uint64, error)
	IncrLikeCount(ctx context.Context, userID uint64) error
	DecrLikeCount(ctx context.Context, userID uint64) error
	GetLikeCount(ctx context.Context, userID uint64) (int64, bool, error)
	SetLikeCount(ctx context.Context, userID uint64, count int64) error
}

// Service implements Storage on gorm + go-redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

// Migrate creates or updates the schema for every model the core owns.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.Interaction{},
		&models.Conversation{},
		&models.Message{},
		&models.Report{},
	)
}

// UpsertInteraction records actor -> target with last-write-wins semantics.
// The composite primary key on (actor_id, target_id) makes the overwrite a
// single ON CONFLICT statement rather than a read-modify-write.
func (s *Service) UpsertInteraction(ctx context.Context, actorID, targetID uint64, kind models.InteractionKind) error {
	row := models.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		Kind:     kind,
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "updated_at"}),
		}).
		Create(&row).Error
}

// MutualLikeExists reports whether both directed likes a->b and b->a exist.
func (s *Service) MutualLikeExists(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Interaction{}).
		Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)", a, b, b, a).
		Where("kind = ?", models.InteractionLike).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 2, nil
}

// CreateConversationIfAbsent inserts the canonical conversation row for the
// pair, or fetches the existing one. The insert goes through ON CONFLICT DO
// NOTHING against the unique pair index, so two concurrent mutual likes
// converge on exactly one row without a check-then-insert race.
func (s *Service) CreateConversationIfAbsent(ctx context.Context, a, b uint64) (*models.Conversation, error) {
	u1, u2 := models.CanonicalPair(a, b)

	conv := models.Conversation{User1ID: u1, User2ID: u2}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Create(&conv).Error
	if err != nil {
		return nil, err
	}

	// On conflict the insert reports nothing back; fetch the winning row.
	var out models.Conversation
	err = s.DB.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMatch removes the conversation for the pair together with its
// messages and both directed interaction rows, all in one transaction.
// Returns the deleted conversation, or ErrNoSuchMatch.
func (s *Service) DeleteMatch(ctx context.Context, a, b uint64) (*models.Conversation, error) {
	u1, u2 := models.CanonicalPair(a, b)

	var conv models.Conversation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNoSuchMatch
			}
			return err
		}
		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Conversation{}, conv.ID).Error; err != nil {
			return err
		}
		return tx.
			Where("(actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)", u1, u2, u2, u1).
			Delete(&models.Interaction{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListLikers returns the newest interactions of users who liked userID,
// excluding anyone userID has explicitly disliked.
func (s *Service) ListLikers(ctx context.Context, userID uint64, limit int) ([]models.Interaction, error) {
	var likers []models.Interaction
	err := s.DB.WithContext(ctx).
		Table("interactions i").
		Where("i.target_id = ? AND i.kind = ?", userID, models.InteractionLike).
		Where(`NOT EXISTS (
			SELECT 1 FROM interactions i2
			WHERE i2.actor_id = ?
			  AND i2.target_id = i.actor_id
			  AND i2.kind = ?
		)`, userID, models.InteractionDislike).
		Order("i.updated_at DESC, i.actor_id DESC").
		Limit(limit).
		Find(&likers).Error
	return likers, err
}

// CountLikers counts users who liked userID, with the same dislike exclusion
// as ListLikers. Callers cache the result in Redis.
func (s *Service) CountLikers(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Table("interactions i").
		Where("i.target_id = ? AND i.kind = ?", userID, models.InteractionLike).
		Where(`NOT EXISTS (
			SELECT 1 FROM interactions i2
			WHERE i2.actor_id = ?
			  AND i2.target_id = i.actor_id
			  AND i2.kind = ?
		)`, userID, models.InteractionDislike).
		Count(&count).Error
	return count, err
}

func (s *Service) GetConversation(ctx context.Context, id uint64) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.DB.WithContext(ctx).First(&conv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNoSuchConversation
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Service) ListParticipants(ctx context.Context, conversationID uint64) ([]uint64, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return []uint64{conv.User1ID, conv.User2ID}, nil
}

func (s *Service) InsertMessage(ctx context.Context, conversationID, senderID uint64, body string) (*models.Message, error) {
	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) ListMessages(ctx context.Context, conversationID uint64, limit int) ([]models.Message, error) {
	var msgs []models.Message
	q := s.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&msgs).Error
	return msgs, err
}

func (s *Service) SaveReport(ctx context.Context, r *models.Report) error {
	return s.DB.WithContext(ctx).Create(r).Error
}

// DeleteReport removes a report, but only for the user who filed it.
func (s *Service) DeleteReport(ctx context.Context, id, reporterID uint64) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND reporter_id = ?", id, reporterID).
		Delete(&models.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNoSuchReport
	}
	return nil
}
