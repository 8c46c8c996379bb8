package models

import (
	"time"

	"github.com/google/uuid"
)

// MagicLinkToken is a single-use login token with a 15-minute expiry.
type MagicLinkToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"type:text;not null;index"`
	Token     string    `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MagicLinkToken) TableName() string { return "magic_link_tokens" }
