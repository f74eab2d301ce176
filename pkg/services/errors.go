package services

import (
	"net/http"

	"github.com/pkg/errors"
)

// Domain error sentinels. Controllers map these onto HTTP statuses; state is
// never changed when one of them is returned.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidState        = errors.New("request is not open for this operation")
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrMissingField        = errors.New("missing required document field")
	ErrMissingReason       = errors.New("a rejection reason is required")
	ErrForbidden           = errors.New("operation not permitted for this actor")
	ErrConflict            = errors.New("request is already finalized")
)

// HTTPStatus maps a service error to the status code the caller sees.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidDocumentType), errors.Is(err, ErrMissingField), errors.Is(err, ErrMissingReason):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
