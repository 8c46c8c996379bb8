package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical identity entity. PasswordHash is nil for accounts
// created through magic-link or OAuth; AppleUserID/GoogleUserID hold the
// providers' subject claims and are unique when present. Anonymous callers
// are represented as shadow rows keyed by a synthetic email so that
// return-item ownership always references a valid user id.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	Name          *string    `gorm:"column:name"`
	AppleUserID   *string    `gorm:"column:apple_user_id;uniqueIndex"`
	GoogleUserID  *string    `gorm:"column:google_user_id;uniqueIndex"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Settings *UserSettings `gorm:"foreignKey:UserID"`
}

func (User) TableName() string { return "users" }
