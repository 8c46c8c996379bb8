package auth

import (
	"time"

	"github.com/retoro-app/retoro-backend/internal/users"
)

// RegisterRequest creates a password account.
type RegisterRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=8"`
	Name            *string `json:"name" validate:"omitempty,max=200"`
	AnonymousUserID *string `json:"anonymous_user_id" validate:"omitempty,max=128"`
}

// LoginRequest authenticates a password account.
type LoginRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required"`
	AnonymousUserID *string `json:"anonymous_user_id" validate:"omitempty,max=128"`
}

// MagicLinkRequest asks for a sign-in link over email.
type MagicLinkRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Name            *string `json:"name" validate:"omitempty,max=200"`
	AnonymousUserID *string `json:"anonymous_user_id" validate:"omitempty,max=128"`
}

// MagicLinkVerifyRequest redeems an emailed token.
type MagicLinkVerifyRequest struct {
	Token           string  `json:"token" validate:"required"`
	AnonymousUserID *string `json:"anonymous_user_id" validate:"omitempty,max=128"`
}

// AppleSignInRequest carries the identity token minted by Sign in with
// Apple. UserData is only populated on the very first authorization, so the
// name inside it is backfilled rather than trusted on every call.
type AppleSignInRequest struct {
	IdentityToken   string         `json:"identity_token" validate:"required"`
	UserData        *AppleUserData `json:"user_data"`
	AnonymousUserID *string        `json:"anonymous_user_id" validate:"omitempty,max=128"`
}

// AppleUserData is the one-time profile payload from Apple's first consent.
type AppleUserData struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// SessionDTO is the credential part of an auth response.
type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponse is the uniform success body for every auth path.
type AuthResponse struct {
	User    *users.UserDTO `json:"user"`
	Session SessionDTO     `json:"session"`
}

// SessionInfo describes who the current request acts as.
type SessionInfo struct {
	Authenticated   bool           `json:"authenticated"`
	User            *users.UserDTO `json:"user,omitempty"`
	AnonymousUserID *string        `json:"anonymous_user_id,omitempty"`
}
