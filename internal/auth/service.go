// Package auth reconciles every sign-in path onto one durable user row.
// Password, magic-link, Apple, and Google authentication all end in the
// same place: resolve the user, merge any anonymous data, issue a session.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/users"
	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/oauth"
	"github.com/retoro-app/retoro-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid email or password"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RequestMagicLink(ctx context.Context, req MagicLinkRequest) error
	VerifyMagicLink(ctx context.Context, req MagicLinkVerifyRequest) (*AuthResponse, error)
	SignInWithApple(ctx context.Context, req AppleSignInRequest) (*AuthResponse, error)
	SignInWithGoogle(ctx context.Context, code string, anonymousID *string) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error)
	EnsureAnonymousUser(ctx context.Context, anonymousID string) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByAppleID(ctx context.Context, subject string) (*models.User, error)
	FindByGoogleID(ctx context.Context, subject string) (*models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type sessionRepository interface {
	Create(ctx context.Context, userID uuid.UUID, anonymousID *string, expiresAt time.Time) (*models.Session, error)
	FindValidByToken(ctx context.Context, token string, now time.Time) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	ReassignAnonymous(ctx context.Context, anonymousID string, userID uuid.UUID) (int64, error)
}

type settingsRepository interface {
	CreateDefaults(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
}

type returnItemRepository interface {
	ReassignOwner(ctx context.Context, fromUserID, toUserID uuid.UUID) (int64, error)
}

type tokenRepository interface {
	Create(ctx context.Context, email, token string, expiresAt time.Time) (*models.MagicLinkToken, error)
	FindByToken(ctx context.Context, token string) (*models.MagicLinkToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (int64, error)
}

type mailSender interface {
	SendMagicLink(ctx context.Context, to, token string) error
}

type appleVerifier interface {
	Verify(ctx context.Context, identityToken string) (*oauth.Identity, error)
}

type googleResolver interface {
	ResolveCode(ctx context.Context, code string) (*oauth.Identity, error)
}

// Repo factories bind a repository to a transaction handle; a nil handle
// means the base connection.
type (
	UserRepoFactory     func(tx *gorm.DB) userRepository
	SessionRepoFactory  func(tx *gorm.DB) sessionRepository
	SettingsRepoFactory func(tx *gorm.DB) settingsRepository
	ItemRepoFactory     func(tx *gorm.DB) returnItemRepository
	TokenRepoFactory    func(tx *gorm.DB) tokenRepository
)

// ServiceParams bundles the dependencies required to build the auth service.
// Apple, Google, and Mailer may be nil when the corresponding provider is
// not configured; the matching operations then fail with a dependency error.
type ServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory UserRepoFactory
	SessionFactory  SessionRepoFactory
	SettingsFactory SettingsRepoFactory
	ItemFactory     ItemRepoFactory
	TokenFactory    TokenRepoFactory
	Mailer          mailSender
	Apple           appleVerifier
	Google          googleResolver
	PasswordConfig  config.PasswordConfig
	SessionConfig   config.SessionConfig
	Now             func() time.Time
}

type service struct {
	tx          txRunner
	userRepo    UserRepoFactory
	sessions    SessionRepoFactory
	settings    SettingsRepoFactory
	items       ItemRepoFactory
	tokens      TokenRepoFactory
	mailer      mailSender
	apple       appleVerifier
	google      googleResolver
	passwordCfg config.PasswordConfig
	sessionCfg  config.SessionConfig
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if params.UserRepoFactory == nil || params.SessionFactory == nil ||
		params.SettingsFactory == nil || params.ItemFactory == nil || params.TokenFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "all repository factories are required")
	}
	s := &service{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		sessions:    params.SessionFactory,
		settings:    params.SettingsFactory,
		items:       params.ItemFactory,
		tokens:      params.TokenFactory,
		mailer:      params.Mailer,
		apple:       params.Apple,
		google:      params.Google,
		passwordCfg: params.PasswordConfig,
		sessionCfg:  params.SessionConfig,
		now:         params.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var resp *AuthResponse
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.userRepo(tx)

		if _, err := usersRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}

		user, err := usersRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: &hash,
			Name:         trimmedPtr(req.Name),
		})
		if err != nil {
			if pkgdb.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if _, err := s.settings(tx).CreateDefaults(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create default settings")
		}

		resp, err = s.finalize(ctx, tx, user, req.AnonymousUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.userRepo(nil).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.PasswordHash == nil {
		// Passwordless account; password login never confirms it exists.
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	var resp *AuthResponse
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		resp, err = s.finalize(ctx, tx, user, req.AnonymousUserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token")
	}
	if err := s.sessions(nil).DeleteByToken(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete session")
	}
	return nil
}

// Authenticate resolves a bearer token to its user. Expired and unknown
// tokens are indistinguishable to the caller.
func (s *service) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token")
	}

	session, err := s.sessions(nil).FindValidByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired session")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup session")
	}

	user, err := s.userRepo(nil).FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired session")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session user")
	}
	return user, session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
