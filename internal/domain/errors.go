package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures surfaced to the presentation layer
type ErrorKind string

const (
	// KindAuth indicates rejected credentials on login
	KindAuth ErrorKind = "auth"

	// KindSessionExpired indicates the held token is absent, malformed or
	// was rejected by the server
	KindSessionExpired ErrorKind = "session_expired"

	// KindValidation indicates malformed or semantically invalid input,
	// detected locally or rejected by the backend
	KindValidation ErrorKind = "validation"

	// KindNotFound indicates a reference to a nonexistent id
	KindNotFound ErrorKind = "not_found"

	// KindFetch indicates a transport failure or a malformed response body
	KindFetch ErrorKind = "fetch"

	// KindInvalidInput indicates an id argument that is not a positive integer
	KindInvalidInput ErrorKind = "invalid_input"

	// KindStale indicates a response that arrived after the session changed
	KindStale ErrorKind = "stale_response"

	// KindBusy indicates a form that already has a request in flight
	KindBusy ErrorKind = "busy"
)

// Error is a categorized failure. Message is what the user sees; for backend
// failures it is the response's detail text verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Cause   error
}

// NewError creates an error of the given kind
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithStatus records the HTTP status that produced the error
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// Sentinels for errors.Is checks. They are shared values: never call
// WithCause or WithStatus on them.
var (
	ErrAuth           = &Error{Kind: KindAuth, Message: "invalid credentials"}
	ErrSessionExpired = &Error{Kind: KindSessionExpired, Message: "session expired"}
	ErrValidation     = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrFetch          = &Error{Kind: KindFetch, Message: "request failed"}
	ErrInvalidInput   = &Error{Kind: KindInvalidInput, Message: "invalid id"}
	ErrStaleResponse  = &Error{Kind: KindStale, Message: "response discarded: session changed"}
	ErrBusy           = &Error{Kind: KindBusy, Message: "a request is already in progress"}
)

// KindOf returns the kind of err, or "" when err is not a domain error
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// SessionExpired builds a session-expired error with a custom message
func SessionExpired(message string) *Error {
	return NewError(KindSessionExpired, message)
}
