package oauth2

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes returned in the "error" field of an error response.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeServerError          = "server_error"
	ErrorCodeRateLimitExceeded    = "rate_limit_exceeded"
)

// Error is an OAuth 2.0 error response (RFC 6749 section 5.2) together with the HTTP status it is sent with.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a new OAuth error
func NewError(code, description string, status int) *Error {
	return &Error{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// ErrInvalidRequest indicates the request is malformed or missing required parameters
func ErrInvalidRequest(desc string) *Error {
	return NewError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
}

// ErrInvalidGrant indicates the authorization code or refresh token is invalid, used or expired
func ErrInvalidGrant(desc string) *Error {
	return NewError(ErrorCodeInvalidGrant, desc, http.StatusBadRequest)
}

// ErrInvalidClient indicates client authentication failed
func ErrInvalidClient(desc string) *Error {
	return NewError(ErrorCodeInvalidClient, desc, http.StatusUnauthorized)
}

// ErrUnsupportedGrantType indicates the grant type is not supported
func ErrUnsupportedGrantType(desc string) *Error {
	return NewError(ErrorCodeUnsupportedGrantType, desc, http.StatusBadRequest)
}

// ErrServerError indicates an internal failure. The description is generic and never carries the cause.
func ErrServerError(desc string) *Error {
	return NewError(ErrorCodeServerError, desc, http.StatusInternalServerError)
}

// ErrRateLimited indicates the caller exceeded the configured request rate
func ErrRateLimited(desc string) *Error {
	return NewError(ErrorCodeRateLimitExceeded, desc, http.StatusTooManyRequests)
}

// AsError returns err as an *Error. Anything that is not already an OAuth error becomes server_error.
func AsError(err error) *Error {
	var oauthErr *Error
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return ErrServerError("Internal server error")
}
