package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an API error and fixes the HTTP status it maps to.
type Kind int

const (
	KindValidation Kind = iota // missing or malformed input
	KindAuth                   // missing, invalid or expired credential
	KindForbidden              // authenticated but not the allowed identity
	KindNotFound
	KindUpstream // identity-provider failure, surfaced as a client error
	KindConfig   // missing required configuration
)

// Error is the single error type crossing the handler boundary. Every
// failure is converted to a {success:false, message} body with the status
// derived from its kind; nothing is allowed to escape uncaught.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *Error { return &Error{Kind: KindValidation, Message: message} }
func Auth(message string) *Error       { return &Error{Kind: KindAuth, Message: message} }
func Forbidden(message string) *Error  { return &Error{Kind: KindForbidden, Message: message} }
func NotFound(message string) *Error   { return &Error{Kind: KindNotFound, Message: message} }
func Upstream(message string) *Error   { return &Error{Kind: KindUpstream, Message: message} }
func Config(message string) *Error     { return &Error{Kind: KindConfig, Message: message} }

// StatusOf resolves the HTTP status for any error. Unclassified errors map
// to 500.
func StatusOf(err error) int {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Status()
	}
	return http.StatusInternalServerError
}

// MessageOf resolves the client-facing message for any error. Unclassified
// errors are replaced with a generic message so internals never leak.
func MessageOf(err error) string {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "internal server error"
}
