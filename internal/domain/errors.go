package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Session and cache error types

var (
	// ErrInvalidSessionState indicates an attempt to build a session that violates
	// the user <=> access token invariant
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrTransportUnavailable indicates the marketplace API could not be reached
	ErrTransportUnavailable = errors.New("marketplace api unavailable")

	// ErrInvalidRequest indicates an invalid request was made (4xx client errors)
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized indicates the API rejected the credentials and they could not be refreshed
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownEndpoint indicates a descriptor name that is not in the endpoint catalogue
	ErrUnknownEndpoint = errors.New("unknown endpoint")

	// ErrEntryNotFound indicates a query key with no cache entry
	ErrEntryNotFound = errors.New("cache entry not found")

	// ErrCacheClosed indicates the request cache has been shut down
	ErrCacheClosed = errors.New("request cache closed")

	// ErrSubscriptionClosed indicates Next was called on an unsubscribed handle
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// FieldError is a single field-level validation error reported by the API
type FieldError struct {
	Type     string `json:"type"`
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// TransportErrorData is the body of a failed API call
type TransportErrorData struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// TransportError is the failure shape every Dispatcher returns
type TransportError struct {
	Status int                `json:"status"`
	Data   TransportErrorData `json:"data"`
	cause  error
}

// NewTransportError builds a TransportError wrapping cause
func NewTransportError(status int, message string, cause error) *TransportError {
	return &TransportError{
		Status: status,
		Data:   TransportErrorData{Message: message},
		cause:  cause,
	}
}

func (e *TransportError) Error() string {
	if e.Data.Message == "" {
		return fmt.Sprintf("transport error: status %d", e.Status)
	}
	return fmt.Sprintf("transport error: status %d - %s", e.Status, e.Data.Message)
}

// Unwrap exposes the cause, falling back to the sentinel matching the status class
func (e *TransportError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status >= 400 && e.Status < 500:
		return ErrInvalidRequest
	default:
		return ErrTransportUnavailable
	}
}
