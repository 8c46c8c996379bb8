package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/retoro-app/retoro-backend/internal/users"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

// finalize completes an authentication inside the caller's transaction:
// any anonymous data is merged onto the resolved user, then a fresh session
// is issued. The merge and the session share one transaction so a failure
// in either leaves the anonymous data untouched and reusable.
func (s *service) finalize(ctx context.Context, tx *gorm.DB, user *models.User, anonymousID *string) (*AuthResponse, error) {
	if anonID := trimmedAnonymousID(anonymousID); anonID != "" {
		if err := s.mergeAnonymous(ctx, tx, user, anonID); err != nil {
			return nil, err
		}
	}

	session, err := s.sessions(tx).Create(ctx, user.ID, trimmedPtr(anonymousID), s.now().Add(s.sessionCfg.TokenTTL()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}

	return &AuthResponse{
		User: users.FromModel(user),
		Session: SessionDTO{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
		},
	}, nil
}

// mergeAnonymous moves everything owned under an anonymous identifier to
// the resolved user: sessions keyed by the identifier, and return items
// owned by the shadow user row, which is deleted once emptied.
func (s *service) mergeAnonymous(ctx context.Context, tx *gorm.DB, user *models.User, anonID string) error {
	if _, err := s.sessions(tx).ReassignAnonymous(ctx, anonID, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reassign anonymous sessions")
	}

	usersRepo := s.userRepo(tx)
	shadow, err := usersRepo.FindByEmail(ctx, AnonymousEmail(anonID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup shadow user")
	}
	if shadow.ID == user.ID {
		return nil
	}

	if _, err := s.items(tx).ReassignOwner(ctx, shadow.ID, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reassign anonymous return items")
	}
	if err := usersRepo.Delete(ctx, shadow.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete shadow user")
	}
	return nil
}

func trimmedAnonymousID(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
