package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          *string   `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  *string
	Name          *string
	AppleUserID   *string
	GoogleUserID  *string
	EmailVerified bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash:  c.PasswordHash,
		Name:          c.Name,
		AppleUserID:   c.AppleUserID,
		GoogleUserID:  c.GoogleUserID,
		EmailVerified: c.EmailVerified,
	}
}
