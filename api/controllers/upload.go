package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/retoro-app/retoro-backend/api/middleware"
	"github.com/retoro-app/retoro-backend/api/responses"
	"github.com/retoro-app/retoro-backend/internal/invoices"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
	"github.com/retoro-app/retoro-backend/pkg/logger"
)

// UploadInvoice accepts a multipart invoice under the "file" field, parses
// it, and creates return items for every recognized line.
func UploadInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user == nil {
			err := pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, invoices.MaxUploadBytes+1024)
		if err := r.ParseMultipartForm(invoices.MaxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid or oversized multipart payload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "no file provided"))
				return
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read uploaded file"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read uploaded file"))
			return
		}

		result, err := svc.Process(r.Context(), user.ID, invoices.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
