package models

import "time"

// InteractionKind is the type of a directed swipe decision.
type InteractionKind string

const (
	InteractionLike    InteractionKind = "like"
	InteractionDislike InteractionKind = "dislike"
)

// Interaction is a directed edge actor -> target. The composite primary key
// guarantees a single row per ordered pair; a later decision overwrites the
// kind and timestamp (last write wins).
//
// Indexes:
//   - idx_target_kind(target_id, kind) for "who liked me" lists and the
//     reverse-like lookup on match detection.
type Interaction struct {
	ActorID   uint64          `gorm:"primaryKey" json:"actor_id"`
	TargetID  uint64          `gorm:"primaryKey;index:idx_target_kind,priority:1" json:"target_id"`
	Kind      InteractionKind `gorm:"size:16;not null;index:idx_target_kind,priority:2" json:"kind"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Conversation is keyed by the canonical user pair. The unique index on
// (user1_id, user2_id) is what makes concurrent mutual likes converge on a
// single row: creation goes through an insert-or-fetch on that constraint,
// never a separate existence check.
type Conversation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	User1ID   uint64    `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1" json:"user1_id"`
	User2ID   uint64    `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2" json:"user2_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Participants reports both members of the conversation.
func (c *Conversation) Participants() (uint64, uint64) {
	return c.User1ID, c.User2ID
}

// Other returns the participant that is not userID, and whether userID is a
// participant at all.
func (c *Conversation) Other(userID uint64) (uint64, bool) {
	switch userID {
	case c.User1ID:
		return c.User2ID, true
	case c.User2ID:
		return c.User1ID, true
	}
	return 0, false
}

// CanonicalPair orders an unordered user pair as (min, max) so that a pair
// maps to exactly one conversation row.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Message belongs to exactly one conversation, is ordered by SentAt and is
// immutable once created.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"not null;index:idx_conversation_sent,priority:1" json:"conversation_id"`
	SenderID       uint64    `gorm:"not null" json:"sender_id"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time `gorm:"autoCreateTime;index:idx_conversation_sent,priority:2" json:"sent_at"`
}

// Report is a user-filed report against another profile. Filing and undoing
// are the only moderation features the realtime core carries; review itself
// happens elsewhere.
type Report struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ReporterID uint64    `gorm:"not null;index" json:"reporter_id"`
	TargetID   uint64    `gorm:"not null;index" json:"target_id"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
