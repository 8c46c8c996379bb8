package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/api/validators"
	"github.com/retoro-app/retoro-backend/internal/returns"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
	"github.com/retoro-app/retoro-backend/pkg/pagination"
)

func ReturnItemsList(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := statusFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		result, err := svc.List(r.Context(), user.ID, status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ReturnItemsCreate(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body returns.CreateReturnItemRequest
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

func ReturnItemsGet(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), user.ID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ReturnItemsUpdate(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body returns.UpdateReturnItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), user.ID, itemID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func ReturnItemsDelete(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "returns service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := pathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), user.ID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "item deleted"})
	}
}

// statusFilterFromQuery maps listing query params onto a lifecycle filter.
// include_history=true widens an unfiltered listing to every state.
func statusFilterFromQuery(r *http.Request) (returns.StatusFilter, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	if raw == "" {
		if strings.EqualFold(r.URL.Query().Get("include_history"), "true") {
			return returns.StatusAll, nil
		}
		return returns.StatusActive, nil
	}

	switch returns.StatusFilter(raw) {
	case returns.StatusAll, returns.StatusActive, returns.StatusReturned, returns.StatusKept:
		return returns.StatusFilter(raw), nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "status must be one of all, active, returned, kept")
	}
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path")
	}
	return id, nil
}
