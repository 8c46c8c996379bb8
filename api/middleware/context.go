package middleware

import (
	"context"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
)

type contextKey string

const (
	ctxUser        contextKey = "current_user"
	ctxSession     contextKey = "current_session"
	ctxAnonymousID contextKey = "anonymous_user_id"
)

// UserFromContext returns the resolved user for the request. For anonymous
// callers this is the shadow user, so handlers never branch on auth mode.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(ctxUser).(*models.User); ok {
		return u
	}
	return nil
}

// SessionFromContext returns the bearer session, nil for anonymous callers.
func SessionFromContext(ctx context.Context) *models.Session {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(ctxSession).(*models.Session); ok {
		return s
	}
	return nil
}

// AnonymousIDFromContext returns the anonymous identifier the request
// presented, empty when the caller holds a session.
func AnonymousIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAnonymousID).(string); ok {
		return v
	}
	return ""
}

// WithUser injects the resolved user, used by tests and the auth middleware.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// WithSession injects the resolved session.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}

// WithAnonymousID records the anonymous identifier on the context.
func WithAnonymousID(ctx context.Context, anonymousID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAnonymousID, anonymousID)
}
