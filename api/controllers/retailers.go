package controllers

import (
	"net/http"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/api/validators"
	"github.com/retoro-app/retoro-backend/internal/retailers"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

func RetailersList(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "retailers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		search := validators.SanitizeString(r.URL.Query().Get("search"), 200)
		result, err := svc.List(r.Context(), search)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"retailers": result})
	}
}

func RetailersGet(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "retailers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailerID, err := pathUUID(r, "retailerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func RetailersCreate(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "retailers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body retailers.CreateRetailerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), user.ID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
