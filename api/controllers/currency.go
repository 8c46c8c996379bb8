package controllers

import (
	"net/http"

	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/api/validators"
	"github.com/retoro-app/retoro-backend/internal/currency"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

func CurrencyConvert(svc currency.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "currency service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := validators.ParseQueryFloat(r, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")

		result, err := svc.Convert(r.Context(), from, to, amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
