package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/users"
	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const invalidLinkMessage = "invalid or expired link"

// RequestMagicLink issues a single-use token and emails it. The account is
// created up front when the email is unknown so the redeem step only ever
// resolves existing users.
func (s *service) RequestMagicLink(ctx context.Context, req MagicLinkRequest) error {
	if s.mailer == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "email delivery is not configured")
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	token, err := NewLinkToken()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate link token")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.findOrCreateByEmail(ctx, tx, email, trimmedPtr(req.Name), false); err != nil {
			return err
		}
		expiresAt := s.now().Add(s.sessionCfg.MagicLinkTTL())
		if _, err := s.tokens(tx).Create(ctx, email, token, expiresAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store link token")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.mailer.SendMagicLink(ctx, email, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send magic link email")
	}
	return nil
}

// VerifyMagicLink redeems a token. Used, expired, and unknown tokens all
// fail the same way so the response never leaks token state.
func (s *service) VerifyMagicLink(ctx context.Context, req MagicLinkVerifyRequest) (*AuthResponse, error) {
	var resp *AuthResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		tokensRepo := s.tokens(tx)

		row, err := tokensRepo.FindByToken(ctx, req.Token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidLinkMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup link token")
		}
		if row.Used || !row.ExpiresAt.After(s.now()) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidLinkMessage)
		}

		affected, err := tokensRepo.MarkUsed(ctx, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark link token used")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidLinkMessage)
		}

		user, err := s.findOrCreateByEmail(ctx, tx, row.Email, nil, true)
		if err != nil {
			return err
		}
		// Redeeming the link proves control of the mailbox.
		if !user.EmailVerified {
			if err := s.userRepo(tx).UpdateFields(ctx, user.ID, map[string]any{"email_verified": true}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
			}
			user.EmailVerified = true
		}

		resp, err = s.finalize(ctx, tx, user, req.AnonymousUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// findOrCreateByEmail resolves an email to its user, creating a
// passwordless account (with default settings) when none exists.
func (s *service) findOrCreateByEmail(ctx context.Context, tx *gorm.DB, email string, name *string, verified bool) (*models.User, error) {
	usersRepo := s.userRepo(tx)

	user, err := usersRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	user, err = usersRepo.Create(ctx, users.CreateUserDTO{
		Email:         email,
		Name:          name,
		EmailVerified: verified,
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			user, err = usersRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
			}
			return user, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if _, err := s.settings(tx).CreateDefaults(ctx, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default settings")
	}
	return user, nil
}
