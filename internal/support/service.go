// Package support forwards in-app help requests to the support mailbox.
package support

import (
	"context"
	"strings"

	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const (
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// Request is a help message from the app.
type Request struct {
	Subject string  `json:"subject" validate:"required,max=200"`
	Message string  `json:"message" validate:"required,max=5000"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

// Service relays support requests.
type Service interface {
	Submit(ctx context.Context, userEmail string, req Request) error
}

type sender interface {
	SendSupportRequest(ctx context.Context, fromEmail, subject, body string) error
}

type service struct {
	mailer sender
}

// NewService builds the support service. A nil sender is allowed; submits
// then fail with a dependency error instead of at startup.
func NewService(mailer sender) Service {
	return &service{mailer: mailer}
}

func (s *service) Submit(ctx context.Context, userEmail string, req Request) error {
	if s.mailer == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "email delivery is not configured")
	}

	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject and message are required")
	}
	if len(subject) > maxSubjectLength || len(message) > maxMessageLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject or message is too long")
	}

	// The reply address prefers the explicit one over the account email.
	from := strings.TrimSpace(userEmail)
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		from = strings.TrimSpace(*req.Email)
	}
	if from == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a contact email is required")
	}

	if err := s.mailer.SendSupportRequest(ctx, from, subject, message); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send support email")
	}
	return nil
}
