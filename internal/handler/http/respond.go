package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// maxBodyBytes bounds request bodies accepted from the UI.
const maxBodyBytes = 1 << 20

// writeData writes data in the standard envelope together with the notices
// recorded while serving the request.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	httputil.WriteJSON(w, status, httputil.Response{
		Data:    data,
		Notices: notify.Notices(r.Context()),
	})
}

// writeError maps err onto the envelope, keeping the request's notices.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	httputil.WriteErrorWithNotices(w, r, err, logger, notify.Notices(r.Context()))
}

// decodeBody decodes the JSON body into dst and validates it. It writes the
// error response itself and returns false when the body is unusable.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := validator.DecodeAndValidate(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, validator.ErrMalformedBody):
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body"},
		})
	default:
		httputil.WriteValidationError(w, err)
	}
	return false
}
