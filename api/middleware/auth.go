package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

// AnonymousIDHeader carries the caller's pre-account identifier.
const AnonymousIDHeader = "X-Anonymous-User-Id"

// SessionAuthenticator resolves bearer tokens and anonymous identifiers to
// user rows.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error)
	EnsureAnonymousUser(ctx context.Context, anonymousID string) (*models.User, error)
}

// RequireSession rejects requests without a valid bearer session and seeds
// the context with the resolved user.
func RequireSession(authn SessionAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, session, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = WithSession(ctx, session)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionOrAnonymous accepts either a bearer session or an anonymous
// identifier header. Anonymous callers are resolved to their shadow user so
// downstream handlers always see an owner. Requests presenting neither are
// rejected.
func SessionOrAnonymous(authn SessionAuthenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				user, session, err := authn.Authenticate(r.Context(), token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				ctx := WithUser(r.Context(), user)
				ctx = WithSession(ctx, session)
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()})
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			anonID := strings.TrimSpace(r.Header.Get(AnonymousIDHeader))
			if anonID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			user, err := authn.EnsureAnonymousUser(r.Context(), anonID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = WithAnonymousID(ctx, anonID)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":   user.ID.String(),
					"anonymous": true,
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
