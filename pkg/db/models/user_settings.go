package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSettings holds per-user preferences. A row with defaults is created at
// every account-creation path (register, magic link, Apple, Google).
type UserSettings struct {
	ID                        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	PreferredCurrency         string    `gorm:"column:preferred_currency;not null;default:USD"`
	NotificationsEnabled      bool      `gorm:"column:notifications_enabled;not null;default:true"`
	EmailNotificationsEnabled bool      `gorm:"column:email_notifications_enabled;not null;default:true"`
	PushNotificationsEnabled  bool      `gorm:"column:push_notifications_enabled;not null;default:true"`
	CreatedAt                 time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserSettings) TableName() string { return "user_settings" }
