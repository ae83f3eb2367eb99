package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the appropriate HTTP status code.
// Transient poll/result-fetch errors surface as 502 since the remote
// collaborator, not this service, failed.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrCreation), errors.Is(err, ErrPoll), errors.Is(err, ErrResultFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
