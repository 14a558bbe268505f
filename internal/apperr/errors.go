// Package apperr defines the closed set of failures the API can report.
// Every error that crosses a package boundary towards a handler or the
// client is either one of the sentinels below or wraps one of them, so
// callers branch on Kind instead of inspecting ad hoc error shapes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an Error. Each kind maps to exactly one HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidCredentials
	KindUnauthenticated
	KindMalformedAssertion
	KindPersistence
	KindUpstream
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindMalformedAssertion:
		return "malformed_assertion"
	case KindPersistence:
		return "persistence"
	case KindUpstream:
		return "upstream"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

// Status returns the HTTP status code used when an error of this kind
// reaches the transport layer.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated, KindMalformedAssertion:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Error is the concrete error type. Code is machine readable and stable;
// Message is safe to show to end users. Fields carries per-field messages
// for validation failures. Err is the underlying cause and is never
// serialized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

// New creates an Error without a cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so wrapped copies of a
// sentinel still satisfy errors.Is(err, Sentinel).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// WithFields returns a copy of e carrying field messages.
func (e *Error) WithFields(fields map[string]string) *Error {
	c := *e
	c.Fields = fields
	return &c
}

// WithMessage returns a copy of e with a different user facing message.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// KindOf reports the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var (
	ErrValidation         = New(KindValidation, "validation_failed", "The given data was invalid")
	ErrInvalidCredentials = New(KindInvalidCredentials, "invalid_credentials", "Unauthorized")

	ErrMissingToken   = New(KindUnauthenticated, "token_missing", "Unauthenticated")
	ErrTokenMalformed = New(KindUnauthenticated, "token_invalid", "Unauthenticated")
	ErrTokenExpired   = New(KindUnauthenticated, "token_expired", "Unauthenticated")
	ErrTokenRevoked   = New(KindUnauthenticated, "token_revoked", "Unauthenticated")
	ErrUserNotFound   = New(KindUnauthenticated, "user_not_found", "Unauthenticated")

	ErrMalformedAssertion = New(KindMalformedAssertion, "invalid_google_token", "Invalid Google token")

	ErrPersistence = New(KindPersistence, "persistence_error", "Storage failure")
	ErrUpstream    = New(KindUpstream, "authentication_failed", "Authentication failed")

	ErrTaskNotFound = New(KindNotFound, "task_not_found", "Task not found")
)

// Validation builds a validation error from per-field messages.
func Validation(fields map[string]string) *Error {
	return ErrValidation.WithFields(fields)
}
