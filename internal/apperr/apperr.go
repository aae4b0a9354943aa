// Package apperr classifies the errors the locator can surface so the
// transport layer can map them to status codes without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput covers malformed coordinates, unknown types and
	// non-positive grid dimensions.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means no open target of the requested type is reachable.
	// It is an expected outcome, not a failure.
	ErrNotFound = errors.New("no available service found")

	ErrServiceNotFound = errors.New("service not found")

	// ErrDirectoryUnavailable is returned when the service directory could
	// not be read or written.
	ErrDirectoryUnavailable = errors.New("service directory unavailable")
)

// Error attaches the failing operation to a classified sentinel.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the class and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Invalid(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

func Unavailable(op string, err error) error {
	return &Error{Kind: ErrDirectoryUnavailable, Op: op, Err: err}
}

func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidInput) }

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrServiceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
