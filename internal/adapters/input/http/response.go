package http

import (
	"encoding/json"
	"net/http"
	"time"

	"booking-session-cache/internal/domain"
)

var (
	// Success response
	Success = Status{Code: http.StatusOK, Message: []string{"Success"}}
	// BadRequest response
	BadRequest = Status{Code: http.StatusBadRequest, Message: []string{"Sorry, Not responding because of incorrect syntax"}}
	// Unauthorized response
	Unauthorized = Status{Code: http.StatusUnauthorized, Message: []string{"Sorry, We are not able to process your request. Please try again"}}
	// InternalServerError response
	InternalServerError = Status{Code: http.StatusInternalServerError, Message: []string{"Internal Server Error"}}
	// BadGateway response
	BadGateway = Status{Code: http.StatusBadGateway, Message: []string{"Sorry, The marketplace is not reachable"}}
	// ServiceUnavailable response
	ServiceUnavailable = Status{Code: http.StatusServiceUnavailable, Message: []string{"Sorry, The service is shutting down"}}
)

// ResponseBody struct - Generic HTTP response wrapper
type ResponseBody struct {
	Status Status      `json:"status,omitempty"`
	Data   interface{} `json:"data,omitempty"`

	Errors []domain.FieldError `json:"errors,omitempty"`
	Cache  *CacheMeta          `json:"cache,omitempty"`
}

// Status struct
type Status struct {
	Code    int      `json:"code,omitempty"`
	Message []string `json:"message,omitempty"`
}

// CacheMeta describes the cache entry a query response was served from.
// Error is set when the data is the last good value kept after a failed fetch.
type CacheMeta struct {
	Key       string     `json:"key"`
	Status    string     `json:"status"`
	Stale     bool       `json:"stale,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// SessionResponse struct - session view with the tokens redacted
type SessionResponse struct {
	Authenticated   bool               `json:"authenticated"`
	User            domain.UserProfile `json:"user,omitempty"`
	HasRefreshToken bool               `json:"has_refresh_token"`
}

func newSessionResponse(session domain.Session) SessionResponse {
	return SessionResponse{
		Authenticated:   session.IsAuthenticated(),
		User:            session.User,
		HasRefreshToken: session.RefreshToken != "",
	}
}

func newCacheMeta(snap domain.Snapshot) *CacheMeta {
	meta := &CacheMeta{
		Key:    string(snap.Key),
		Status: string(snap.Status),
		Stale:  snap.Stale,
	}
	if !snap.FetchedAt.IsZero() {
		fetchedAt := snap.FetchedAt
		meta.FetchedAt = &fetchedAt
	}
	if snap.Err != nil {
		meta.Error = snap.Err.Error()
	}
	return meta
}

func rawData(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}
