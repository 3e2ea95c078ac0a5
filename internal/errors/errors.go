// Package errors classifies failures from the remote session authority and
// maps them onto HTTP responses for the console API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the failure category. The first five cover the remote
// channel; validation and not_found cover the console's own API surface.
type ErrorType string

const (
	// TypeTransport indicates no usable response (network unreachable, timeout).
	TypeTransport ErrorType = "transport"
	// TypeAuth indicates the bearer credential was missing or rejected.
	TypeAuth ErrorType = "auth"
	// TypeServer indicates the authority answered with an HTTP error status.
	TypeServer ErrorType = "server"
	// TypeApplication indicates an HTTP-level success whose body reported
	// success=false. The message is server-supplied.
	TypeApplication ErrorType = "application"
	// TypeMalformed indicates a response body that could not be decoded.
	TypeMalformed ErrorType = "malformed"
	// TypeValidation indicates invalid input to the console API (HTTP 400).
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates an unknown resource on the console API (HTTP 404).
	TypeNotFound ErrorType = "not_found"
	// TypeInternal indicates an unclassified console-side error (HTTP 500).
	TypeInternal ErrorType = "internal"
)

// Error is a classified error with an optional cause and the upstream HTTP
// status when one was received.
type Error struct {
	Type     ErrorType
	Message  string
	Cause    error
	Upstream int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error onto a status for the console's own API. All
// remote-channel failures surface as 502: the console is fine, the
// authority is not.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeTransport, TypeAuth, TypeServer, TypeApplication, TypeMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// TransportError wraps a failure to reach the authority at all.
func TransportError(cause error) *Error {
	return &Error{Type: TypeTransport, Message: "session authority unreachable", Cause: cause}
}

// AuthError reports a rejected or missing bearer credential.
func AuthError(status int) *Error {
	return &Error{
		Type:     TypeAuth,
		Message:  fmt.Sprintf("credential rejected with status %d", status),
		Upstream: status,
	}
}

// ServerError reports an HTTP error status from the authority.
func ServerError(status int) *Error {
	return &Error{
		Type:     TypeServer,
		Message:  fmt.Sprintf("session authority returned status %d", status),
		Upstream: status,
	}
}

// ApplicationError reports a success=false body. message is the
// server-supplied explanation and is surfaced to the operator verbatim.
func ApplicationError(message string) *Error {
	if message == "" {
		message = "request rejected by session authority"
	}
	return &Error{Type: TypeApplication, Message: message}
}

// MalformedError reports an undecodable response body.
func MalformedError(cause error) *Error {
	return &Error{Type: TypeMalformed, Message: "malformed response from session authority", Cause: cause}
}

// ValidationError creates a console-side bad input error.
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// NotFoundError creates a console-side not-found error.
func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

// TypeOf returns the classification of err, or TypeInternal when err
// carries none.
func TypeOf(err error) ErrorType {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Type
	}
	return TypeInternal
}

// IsAuth reports whether err is a credential problem. Auth failures are
// rendered distinctly in the console: they are not transient.
func IsAuth(err error) bool {
	return TypeOf(err) == TypeAuth
}

// OperatorMessage extracts the message worth showing an operator: the
// server-supplied one for application failures, a short generic line
// otherwise.
func OperatorMessage(err error) string {
	var classified *Error
	if !errors.As(err, &classified) {
		return "unexpected error"
	}
	switch classified.Type {
	case TypeApplication:
		return classified.Message
	case TypeAuth:
		return "credential rejected by session authority"
	case TypeTransport:
		return "session authority unreachable"
	default:
		return classified.Message
	}
}

// AsError converts any error into a classified *Error, wrapping
// unclassified ones as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{Type: TypeInternal, Message: "internal error", Cause: err}
}

// Response is the JSON error body sent by the console API.
type Response struct {
	Error string    `json:"error"`
	Type  ErrorType `json:"type"`
}

// ToResponse converts an Error to its JSON form.
func (e *Error) ToResponse() Response {
	return Response{Error: e.Message, Type: e.Type}
}
