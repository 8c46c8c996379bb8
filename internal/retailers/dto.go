package retailers

import (
	"time"

	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

// RetailerDTO is the transport shape for a retailer policy.
type RetailerDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ReturnWindowDays int       `json:"return_window_days"`
	WebsiteURL       *string   `json:"website_url,omitempty"`
	ReturnPortalURL  *string   `json:"return_portal_url,omitempty"`
	HasFreeReturns   bool      `json:"has_free_returns"`
	IsCustom         bool      `json:"is_custom"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateRetailerRequest is the payload for creating a custom retailer.
type CreateRetailerRequest struct {
	Name             string  `json:"name" validate:"required,max=200"`
	ReturnWindowDays *int    `json:"return_window_days" validate:"required,min=0,max=3650"`
	WebsiteURL       *string `json:"website_url" validate:"omitempty,url"`
	ReturnPortalURL  *string `json:"return_portal_url" validate:"omitempty,url"`
	HasFreeReturns   bool    `json:"has_free_returns"`
}

func FromModel(p *models.RetailerPolicy) *RetailerDTO {
	if p == nil {
		return nil
	}
	return &RetailerDTO{
		ID:               p.ID,
		Name:             p.Name,
		ReturnWindowDays: p.ReturnWindowDays,
		WebsiteURL:       p.WebsiteURL,
		ReturnPortalURL:  p.ReturnPortalURL,
		HasFreeReturns:   p.HasFreeReturns,
		IsCustom:         p.IsCustom,
		CreatedAt:        p.CreatedAt,
	}
}

func FromModels(policies []models.RetailerPolicy) []RetailerDTO {
	out := make([]RetailerDTO, 0, len(policies))
	for i := range policies {
		out = append(out, *FromModel(&policies[i]))
	}
	return out
}
