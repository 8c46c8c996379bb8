package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/users"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgdb "github.com/retoro-app/retoro-backend/pkg/db"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const anonymousEmailDomain = "anonymous.retoro.app"

// AnonymousEmail returns the synthetic address that keys the shadow user
// for an anonymous identifier.
func AnonymousEmail(anonymousID string) string {
	return fmt.Sprintf("%s@%s", strings.ToLower(strings.TrimSpace(anonymousID)), anonymousEmailDomain)
}

// EnsureAnonymousUser resolves an anonymous identifier to its shadow user,
// creating the row on first use. The synthetic email's unique index makes
// the operation idempotent under concurrent first requests.
func (s *service) EnsureAnonymousUser(ctx context.Context, anonymousID string) (*models.User, error) {
	anonID := strings.TrimSpace(anonymousID)
	if anonID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "anonymous user id is required")
	}

	usersRepo := s.userRepo(nil)
	email := AnonymousEmail(anonID)

	user, err := usersRepo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup shadow user")
	}

	user, err = usersRepo.Create(ctx, users.CreateUserDTO{Email: email})
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			// Concurrent bootstrap won the race; use its row.
			user, err = usersRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload shadow user")
			}
			return user, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shadow user")
	}
	return user, nil
}
