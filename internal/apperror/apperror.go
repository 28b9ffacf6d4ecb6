// Package apperror defines the error taxonomy shared by the gateway, the
// mirror store and the synchronized collections.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client-side input errors. They never reach the network.
	ErrValidation = errors.New("validation error")

	// ErrAuthExpired marks a rejected credential (HTTP 401). Callers clear
	// the session and send the user back to login.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRemoteUnavailable marks any other failed round trip: non-2xx,
	// timeout, DNS failure, refused connection.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrStorage marks a failed read or write of durable local state.
	ErrStorage = errors.New("storage error")

	ErrNotFound = errors.New("not found")
)

// AppError pairs a taxonomy sentinel with a human-readable message and,
// optionally, the offending form field and the underlying cause.
type AppError struct {
	Err     error  // taxonomy sentinel
	Message string // human-readable message
	Field   string // optional: form field the message belongs to
	Cause   error  // optional: underlying failure, kept for logging
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func AuthExpired(cause error) *AppError {
	return &AppError{
		Err:     ErrAuthExpired,
		Message: "session expired, please log in again",
		Cause:   cause,
	}
}

// RemoteUnavailable wraps a failed remote operation. op names the
// operation for logs (e.g. "list checklists").
func RemoteUnavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrRemoteUnavailable,
		Message: op + " failed",
		Cause:   cause,
	}
}

func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: op + " failed",
		Cause:   cause,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func IsValidation(err error) bool        { return errors.Is(err, ErrValidation) }
func IsAuthExpired(err error) bool       { return errors.Is(err, ErrAuthExpired) }
func IsRemoteUnavailable(err error) bool { return errors.Is(err, ErrRemoteUnavailable) }
func IsStorage(err error) bool           { return errors.Is(err, ErrStorage) }
func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }

// UserMessage returns the message suitable for an alert or inline hint,
// without the technical cause.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
