package controllers

import (
	"net/http"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/api/validators"
	"github.com/retoro-app/retoro-backend/internal/settings"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

func SettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body settings.UpdateSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), user.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
