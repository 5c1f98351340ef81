package httpx

import (
	"errors"
	"net/http"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// RespondError maps settlement errors to HTTP responses using RFC7807.
// Invariant violations are reported without detail; the full error is
// expected to be logged by the caller.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
