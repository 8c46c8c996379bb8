package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

type stubAuthenticator struct {
	user    *models.User
	session *models.Session
	authErr error

	shadow    *models.User
	shadowErr error
	bootstrap []string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if s.authErr != nil {
		return nil, nil, s.authErr
	}
	return s.user, s.session, nil
}

func (s *stubAuthenticator) EnsureAnonymousUser(ctx context.Context, anonymousID string) (*models.User, error) {
	if s.shadowErr != nil {
		return nil, s.shadowErr
	}
	s.bootstrap = append(s.bootstrap, anonymousID)
	return s.shadow, nil
}

func captureUser(t *testing.T, captured **models.User) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireSessionResolvesUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "ok@example.com"}
	authn := &stubAuthenticator{user: user, session: &models.Session{ID: uuid.New(), UserID: user.ID}}

	var seen *models.User
	handler := RequireSession(authn, nil)(captureUser(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
	if seen == nil || seen.ID != user.ID {
		t.Fatal("expected user seeded in context")
	}
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	handler := RequireSession(&stubAuthenticator{}, nil)(captureUser(t, new(*models.User)))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireSessionRejectsInvalidToken(t *testing.T) {
	authn := &stubAuthenticator{authErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired session")}
	handler := RequireSession(authn, nil)(captureUser(t, new(*models.User)))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSessionOrAnonymousBootstrapsShadowUser(t *testing.T) {
	shadow := &models.User{ID: uuid.New(), Email: "device-1@anonymous.retoro.app"}
	authn := &stubAuthenticator{shadow: shadow}

	var seen *models.User
	handler := SessionOrAnonymous(authn, nil)(captureUser(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/return-items", nil)
	req.Header.Set(AnonymousIDHeader, "device-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rr.Code)
	}
	if seen == nil || seen.ID != shadow.ID {
		t.Fatal("expected shadow user seeded in context")
	}
	if len(authn.bootstrap) != 1 || authn.bootstrap[0] != "device-1" {
		t.Fatalf("expected bootstrap call, got %v", authn.bootstrap)
	}
}

func TestSessionOrAnonymousPrefersBearerToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "real@example.com"}
	authn := &stubAuthenticator{user: user, session: &models.Session{UserID: user.ID}}

	var seen *models.User
	handler := SessionOrAnonymous(authn, nil)(captureUser(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/return-items", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	req.Header.Set(AnonymousIDHeader, "device-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen == nil || seen.ID != user.ID {
		t.Fatal("expected the session user, not the shadow user")
	}
	if len(authn.bootstrap) != 0 {
		t.Fatal("anonymous bootstrap must not run for session holders")
	}
}

func TestSessionOrAnonymousRejectsNeither(t *testing.T) {
	handler := SessionOrAnonymous(&stubAuthenticator{}, nil)(captureUser(t, new(*models.User)))

	req := httptest.NewRequest(http.MethodGet, "/return-items", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
