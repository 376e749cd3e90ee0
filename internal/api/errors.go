package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for errors.Is checks by callers.
var (
	ErrValidation = errors.New("api: request rejected as invalid")
	ErrAuth       = errors.New("api: missing, expired or invalid session")
	ErrNotFound   = errors.New("api: resource not found")
	ErrNetwork    = errors.New("api: no response from server")
	ErrUnknown    = errors.New("api: unexpected response")
)

// Kind classifies an API failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuth:
		return ErrAuth
	case KindNotFound:
		return ErrNotFound
	case KindNetwork:
		return ErrNetwork
	default:
		return ErrUnknown
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind      Kind
	Operation string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	// Message is the server supplied explanation or a generic fallback.
	Message string
	// Err is the lower level cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("api %s: %s", e.Operation, e.Message)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err means the caller has to authenticate again.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

func fallbackMessage(k Kind) string {
	switch k {
	case KindValidation:
		return "invalid request"
	case KindAuth:
		return "invalid credentials"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "server unreachable"
	default:
		return "unexpected response"
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindUnknown
	}
}
