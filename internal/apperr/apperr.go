// Package apperr holds the error taxonomy shared by the storage, dashboard
// and HTTP layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means no credential was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredential means a credential was presented but did not verify.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNoProducts means a projection cannot be seeded because the customer owns no products.
	ErrNoProducts = errors.New("no products found for this customer")
	// ErrNotFound means a scoped lookup missed.
	ErrNotFound = errors.New("not found")
	// ErrDashboardExists means the customer already owns a dashboard.
	ErrDashboardExists = errors.New("dashboard already exists for this customer")
)

// MalformedSeriesError reports a persisted series that could not be decoded.
type MalformedSeriesError struct {
	Field string
	Cause error
}

func (e *MalformedSeriesError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed series %q", e.Field)
	}
	return fmt.Sprintf("malformed series %q: %v", e.Field, e.Cause)
}

func (e *MalformedSeriesError) Unwrap() error { return e.Cause }

// StorageError wraps a connectivity or query failure from the relational store.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// Storage wraps cause as a StorageError. A nil cause yields nil.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StorageError{Op: op, Cause: cause}
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsMalformedSeries reports whether err carries a MalformedSeriesError.
func IsMalformedSeries(err error) bool {
	var me *MalformedSeriesError
	return errors.As(err, &me)
}

// HTTPStatus maps err to the status code surfaced to API callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusForbidden
	case errors.Is(err, ErrNoProducts), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDashboardExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal failures are
// reported generically.
func Message(err error) string {
	switch HTTPStatus(err) {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Invalid Token"
	case http.StatusInternalServerError:
		return "Server Error"
	default:
		return err.Error()
	}
}
