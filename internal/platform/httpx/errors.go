// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/romaneio-erp/romaneio/internal/shared"
)

// Coded is implemented by errors that pick their own status and carry extra
// problem members.
type Coded interface {
	error
	HTTPStatus() int
	ProblemData() any
}

// RespondError maps domain errors to HTTP responses using RFC7807. A
// canceled request writes nothing; the client is already gone.
func RespondError(w http.ResponseWriter, err error) {
	var coded Coded
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.As(err, &coded):
		ProblemWithData(w, coded.HTTPStatus(), http.StatusText(coded.HTTPStatus()), coded.Error(), coded.ProblemData())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrNoRowsAffected):
		Problem(w, http.StatusConflict, "No Rows Affected", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// IsCanceled reports whether err comes from a request the client abandoned.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
