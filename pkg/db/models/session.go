package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer credential with a 30-day expiry. Expired rows
// are treated as invalid on lookup rather than actively purged.
// AnonymousUserID records the anonymous identifier the session originated
// from so the merge step can find and reassign it after authentication.
type Session struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	AnonymousUserID *string   `gorm:"column:anonymous_user_id;index"`
	Token           string    `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt       time.Time `gorm:"column:expires_at;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string { return "sessions" }
