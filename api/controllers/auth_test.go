package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/internal/auth"
	"github.com/retoro-app/retoro-backend/internal/users"
	"github.com/retoro-app/retoro-backend/pkg/db/models"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

type stubAuthService struct {
	resp      *auth.AuthResponse
	err       error
	loggedOut []string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) RequestMagicLink(ctx context.Context, req auth.MagicLinkRequest) error {
	return s.err
}

func (s *stubAuthService) VerifyMagicLink(ctx context.Context, req auth.MagicLinkVerifyRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) SignInWithApple(ctx context.Context, req auth.AppleSignInRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) SignInWithGoogle(ctx context.Context, code string, anonymousID *string) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return s.err
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	return nil, nil, s.err
}

func (s *stubAuthService) EnsureAnonymousUser(ctx context.Context, anonymousID string) (*models.User, error) {
	return nil, s.err
}

func authResponseFixture() *auth.AuthResponse {
	user := &models.User{ID: uuid.New(), Email: "kay@example.com", EmailVerified: true}
	return &auth.AuthResponse{
		User: users.FromModel(user),
		Session: auth.SessionDTO{
			Token:     "session-token",
			ExpiresAt: time.Now().Add(30 * 24 * time.Hour),
		},
	}
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &stubAuthService{resp: authResponseFixture()}
	handler := AuthRegister(svc, nil)

	payload := `{"email":"kay@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			User    *users.UserDTO  `json:"user"`
			Session auth.SessionDTO `json:"session"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "kay@example.com" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
	if envelope.Data.Session.Token != "session-token" {
		t.Fatalf("expected session token in payload got %q", envelope.Data.Session.Token)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	svc := &stubAuthService{resp: authResponseFixture()}
	handler := AuthRegister(svc, nil)

	payload := `{"email":"kay@example.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp.Body); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", code)
	}
}

func TestAuthLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")}
	handler := AuthLogin(svc, nil)

	payload := `{"email":"kay@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp.Body); code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized code got %s", code)
	}
}

func TestAuthGoogleCallbackRequiresCode(t *testing.T) {
	svc := &stubAuthService{resp: authResponseFixture()}
	handler := AuthGoogleCallback(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLogoutUsesSessionToken(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	ctx := middleware.WithSession(req.Context(), &models.Session{Token: "session-token"})
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req.WithContext(ctx))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "session-token" {
		t.Fatalf("expected logout with session token, got %v", svc.loggedOut)
	}
}

func TestAuthSessionEchoesAnonymousID(t *testing.T) {
	handler := AuthSession(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
	ctx := middleware.WithAnonymousID(req.Context(), "device-123")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req.WithContext(ctx))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data auth.SessionInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Authenticated {
		t.Fatal("expected unauthenticated session info")
	}
	if envelope.Data.AnonymousUserID == nil || *envelope.Data.AnonymousUserID != "device-123" {
		t.Fatalf("expected anonymous id echoed, got %v", envelope.Data.AnonymousUserID)
	}
}
