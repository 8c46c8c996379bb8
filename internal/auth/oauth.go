package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/users"
	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/oauth"
)

type oauthProvider string

const (
	providerApple  oauthProvider = "apple"
	providerGoogle oauthProvider = "google"
)

func (p oauthProvider) subjectColumn() string {
	if p == providerApple {
		return "apple_user_id"
	}
	return "google_user_id"
}

// SignInWithApple verifies the identity token against Apple's JWKS and
// resolves the identity. The optional first-consent user data only
// backfills fields the token itself lacks, a missing display name or an
// email Apple omitted from the claims.
func (s *service) SignInWithApple(ctx context.Context, req AppleSignInRequest) (*AuthResponse, error) {
	if s.apple == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "apple sign in is not configured")
	}

	ident, err := s.apple.Verify(ctx, req.IdentityToken)
	if err != nil {
		return nil, err
	}
	if ident.Name == "" && req.UserData != nil && req.UserData.Name != nil {
		ident.Name = strings.TrimSpace(*req.UserData.Name)
	}
	if ident.Email == "" && req.UserData != nil && req.UserData.Email != nil {
		ident.Email = strings.TrimSpace(*req.UserData.Email)
	}

	return s.completeOAuth(ctx, providerApple, ident, req.AnonymousUserID)
}

// SignInWithGoogle exchanges the authorization code for the Google profile
// and resolves the identity.
func (s *service) SignInWithGoogle(ctx context.Context, code string, anonymousID *string) (*AuthResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google sign in is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}

	ident, err := s.google.ResolveCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.completeOAuth(ctx, providerGoogle, ident, anonymousID)
}

func (s *service) completeOAuth(ctx context.Context, provider oauthProvider, ident *oauth.Identity, anonymousID *string) (*AuthResponse, error) {
	var resp *AuthResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.resolveOAuth(ctx, tx, provider, ident)
		if err != nil {
			return err
		}
		resp, err = s.finalize(ctx, tx, user, anonymousID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// resolveOAuth maps a provider identity onto one durable user row. Subject
// match wins; otherwise the email either links the subject to an existing
// account or creates a new one. An email already bound to a different
// subject of the same provider is a conflict and mutates nothing.
func (s *service) resolveOAuth(ctx context.Context, tx *gorm.DB, provider oauthProvider, ident *oauth.Identity) (*models.User, error) {
	if ident.Subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider did not supply a subject")
	}
	email := normalizeEmail(ident.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider did not supply an email")
	}

	usersRepo := s.userRepo(tx)

	user, err := s.findBySubject(ctx, usersRepo, provider, ident.Subject)
	if err == nil {
		return s.backfillName(ctx, usersRepo, user, ident.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup by subject")
	}

	user, err = usersRepo.FindByEmail(ctx, email)
	if err == nil {
		existing := subjectOf(user, provider)
		if existing != nil && *existing != ident.Subject {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("email is already linked to a different %s account", provider))
		}

		fields := map[string]any{provider.subjectColumn(): ident.Subject}
		if !user.EmailVerified && ident.EmailVerified {
			fields["email_verified"] = true
		}
		if err := usersRepo.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link provider subject")
		}
		applySubject(user, provider, ident.Subject)
		user.EmailVerified = user.EmailVerified || ident.EmailVerified

		return s.backfillName(ctx, usersRepo, user, ident.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup by email")
	}

	subject := ident.Subject
	dto := users.CreateUserDTO{
		Email:         email,
		Name:          trimmedPtr(&ident.Name),
		EmailVerified: ident.EmailVerified,
	}
	if provider == providerApple {
		dto.AppleUserID = &subject
	} else {
		dto.GoogleUserID = &subject
	}

	user, err = usersRepo.Create(ctx, dto)
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "account already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	if _, err := s.settings(tx).CreateDefaults(ctx, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default settings")
	}
	return user, nil
}

func (s *service) findBySubject(ctx context.Context, repo userRepository, provider oauthProvider, subject string) (*models.User, error) {
	if provider == providerApple {
		return repo.FindByAppleID(ctx, subject)
	}
	return repo.FindByGoogleID(ctx, subject)
}

func (s *service) backfillName(ctx context.Context, repo userRepository, user *models.User, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || user.Name != nil {
		return user, nil
	}
	if err := repo.UpdateFields(ctx, user.ID, map[string]any{"name": name}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "backfill display name")
	}
	user.Name = &name
	return user, nil
}

func subjectOf(user *models.User, provider oauthProvider) *string {
	if provider == providerApple {
		return user.AppleUserID
	}
	return user.GoogleUserID
}

func applySubject(user *models.User, provider oauthProvider, subject string) {
	if provider == providerApple {
		user.AppleUserID = &subject
		return
	}
	user.GoogleUserID = &subject
}
