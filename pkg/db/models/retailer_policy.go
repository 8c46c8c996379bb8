package models

import (
	"time"

	"github.com/google/uuid"
)

// RetailerPolicy is a named return policy. ReturnWindowDays of zero encodes
// "returns accepted indefinitely"; the deadline engine maps it to a
// far-future deadline so downstream arithmetic never special-cases it.
type RetailerPolicy struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string     `gorm:"type:text;not null;uniqueIndex"`
	ReturnWindowDays int        `gorm:"column:return_window_days;not null"`
	WebsiteURL       *string    `gorm:"column:website_url"`
	ReturnPortalURL  *string    `gorm:"column:return_portal_url"`
	HasFreeReturns   bool       `gorm:"column:has_free_returns;not null;default:false"`
	IsCustom         bool       `gorm:"column:is_custom;not null;default:false"`
	CreatedBy        *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (RetailerPolicy) TableName() string { return "retailer_policies" }
