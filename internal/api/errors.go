package api

import (
	"errors"
	"fmt"
)

// ErrMissingEmailConfig is the distinguished checkout failure: the seller
// has not configured outbound email, so online orders cannot be confirmed.
// Callers match it with errors.Is and offer the store-settings remediation
// path instead of a generic failure message.
var ErrMissingEmailConfig = errors.New("seller has not configured outbound email")

const missingEmailConfigCode = "MISSING_EMAIL_CONFIG"

// ErrorKind classifies an APIError by where it originated.
type ErrorKind int

const (
	// ErrKindTransport covers connection failures, timeouts and an open
	// circuit breaker: the backend was never reached or never answered.
	ErrKindTransport ErrorKind = iota
	// ErrKindStatus is a non-2xx response from the backend.
	ErrKindStatus
	// ErrKindBadResponse is a 2xx response whose body failed schema
	// validation. It is never propagated as partially decoded data.
	ErrKindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindTransport:
		return "transport"
	case ErrKindStatus:
		return "status"
	case ErrKindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// APIError is any failure talking to the platform backend. Code carries the
// backend's machine-readable error code when the response body supplied one.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %s error (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %s error: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// Is lets errors.Is(err, ErrMissingEmailConfig) match the classified
// backend code without callers inspecting Code themselves.
func (e *APIError) Is(target error) bool {
	return target == ErrMissingEmailConfig && e.Code == missingEmailConfigCode
}

func transportErr(err error) *APIError {
	return &APIError{Kind: ErrKindTransport, Message: err.Error(), cause: err}
}

func badResponseErr(msg string, err error) *APIError {
	return &APIError{Kind: ErrKindBadResponse, Message: msg, cause: err}
}
