package models

import (
	"time"

	"github.com/lib/pq"
)

// User is the profile row owned by the account/profile subsystem. The
// realtime core only ever reads it; registration, photos and profile
// editing live behind a separate service.
type User struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Interests pq.StringArray `gorm:"type:text[]" json:"interests"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
}
