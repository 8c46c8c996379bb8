package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

func googleTestConfig() config.GoogleConfig {
	return config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://api.retoro.app/api/v1/auth/google/callback",
	}
}

func TestNewGoogleClientRequiresConfig(t *testing.T) {
	_, err := NewGoogleClient(config.GoogleConfig{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGoogleResolveCodeSuccess(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "g-42",
			"email":          "Person@Example.com",
			"verified_email": true,
			"name":           "Pat Person",
		})
	}))
	defer userSrv.Close()

	client, err := NewGoogleClient(googleTestConfig(), WithGoogleURLs(tokenSrv.URL, userSrv.URL))
	if err != nil {
		t.Fatalf("NewGoogleClient: %v", err)
	}

	identity, err := client.ResolveCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ResolveCode returned error: %v", err)
	}
	if identity.Subject != "g-42" {
		t.Fatalf("unexpected subject %q", identity.Subject)
	}
	if identity.Email != "person@example.com" {
		t.Fatalf("expected lowercased email, got %q", identity.Email)
	}
	if !identity.EmailVerified {
		t.Fatal("expected verified email")
	}
	if identity.Name != "Pat Person" {
		t.Fatalf("unexpected name %q", identity.Name)
	}
}

func TestGoogleResolveCodeExchangeFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	client, err := NewGoogleClient(googleTestConfig(), WithGoogleURLs(tokenSrv.URL, ""))
	if err != nil {
		t.Fatalf("NewGoogleClient: %v", err)
	}

	_, err = client.ResolveCode(context.Background(), "bad-code")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGoogleResolveCodeEmptyCode(t *testing.T) {
	client, err := NewGoogleClient(googleTestConfig())
	if err != nil {
		t.Fatalf("NewGoogleClient: %v", err)
	}
	_, err = client.ResolveCode(context.Background(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGoogleResolveCodeMissingProfileFields(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
		})
	}))
	defer tokenSrv.Close()

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "No Email"})
	}))
	defer userSrv.Close()

	client, err := NewGoogleClient(googleTestConfig(), WithGoogleURLs(tokenSrv.URL, userSrv.URL))
	if err != nil {
		t.Fatalf("NewGoogleClient: %v", err)
	}

	_, err = client.ResolveCode(context.Background(), "auth-code")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing profile fields, got %v", err)
	}
}
