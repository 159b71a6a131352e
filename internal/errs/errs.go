// Package errs defines the error kinds shared by providers, endpoint clients and targets.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrNetwork           = errors.New("network error")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrValidation        = errors.New("validation error")
)

// Error codes carried by Error.Code.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeAuthFailed     = "AUTH_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnknown        = "UNKNOWN"
)

// Error represents a failure attributed to a provider or endpoint
type Error struct {
	Provider   string
	Kind       error // one of the Err* kinds
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that a lookup matched nothing.
func NotFound(provider, format string, args ...any) *Error {
	return &Error{
		Provider: provider,
		Kind:     ErrNotFound,
		Code:     CodeNotFound,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Network wraps a transport failure.
func Network(provider string, err error, format string, args ...any) *Error {
	return &Error{
		Provider: provider,
		Kind:     ErrNetwork,
		Code:     CodeUnavailable,
		Message:  fmt.Sprintf(format, args...),
		Retry:    true,
		Err:      err,
	}
}

// InvalidCredential reports a rejected API key or token.
func InvalidCredential(provider, format string, args ...any) *Error {
	return &Error{
		Provider: provider,
		Kind:     ErrInvalidCredential,
		Code:     CodeAuthFailed,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Validation reports a bad argument detected before any request is made.
func Validation(provider, format string, args ...any) *Error {
	return &Error{
		Provider: provider,
		Kind:     ErrValidation,
		Code:     CodeInvalidRequest,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromStatus maps an HTTP status to an error kind: 401 is a credential
// failure, 404 is not-found and every other non-2xx status is a network
// failure. It returns nil for 2xx.
func FromStatus(provider string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return InvalidCredential(provider, "unauthorized (status %d)", status)
	case status == http.StatusNotFound:
		return NotFound(provider, "resource not found (status %d)", status)
	case status == http.StatusTooManyRequests:
		return &Error{
			Provider: provider,
			Kind:     ErrNetwork,
			Code:     CodeRateLimited,
			Message:  fmt.Sprintf("rate limited (status %d)", status),
			Retry:    true,
		}
	default:
		return &Error{
			Provider: provider,
			Kind:     ErrNetwork,
			Code:     CodeUnavailable,
			Message:  fmt.Sprintf("unexpected status %d", status),
			Retry:    status >= 500,
		}
	}
}

// IsRetryable reports whether err carries a retry hint.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retry
	}
	return false
}
