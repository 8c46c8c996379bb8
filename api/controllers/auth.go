package controllers

import (
	"net/http"
	"strings"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/api/validators"
	"github.com/retoro-app/retoro-backend/internal/auth"
	"github.com/retoro-app/retoro-backend/internal/users"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthMagicLinkRequest always answers with the same message so callers
// cannot probe which addresses have accounts.
func AuthMagicLinkRequest(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.MagicLinkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RequestMagicLink(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"message": "if the address is valid, a sign-in link is on its way",
		})
	}
}

func AuthMagicLinkVerify(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.MagicLinkVerifyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyMagicLink(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AuthApple(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.AppleSignInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignInWithApple(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthGoogleCallback completes the Google OAuth redirect. The state value is
// the anonymous user id the client started the flow with, if any.
func AuthGoogleCallback(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := r.URL.Query().Get("code")
		if strings.TrimSpace(code) == "" {
			err := pkgerrors.New(pkgerrors.CodeValidation, "missing authorization code")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var anonymousID *string
		if state := strings.TrimSpace(r.URL.Query().Get("state")); state != "" {
			anonymousID = &state
		}

		result, err := svc.SignInWithGoogle(r.Context(), code, anonymousID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session := middleware.SessionFromContext(r.Context())
		if session == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), session.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "signed out"})
	}
}

// AuthSession reports who the request acts as. Authenticated sessions echo
// the user profile, anonymous requests echo the device id they presented.
func AuthSession(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := auth.SessionInfo{}

		if session := middleware.SessionFromContext(r.Context()); session != nil {
			info.Authenticated = true
			info.User = users.FromModel(middleware.UserFromContext(r.Context()))
		} else if anonymousID := middleware.AnonymousIDFromContext(r.Context()); anonymousID != "" {
			info.AnonymousUserID = &anonymousID
		}

		responses.WriteSuccess(w, info)
	}
}
