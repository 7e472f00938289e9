package output

import (
	"context"
	"encoding/json"

	"booking-session-cache/internal/domain"
)

// Dispatcher interface - Output port
// Turns a request into an actual call against the marketplace API.
// The cache and session layers are agnostic to the transport behind it.
type Dispatcher interface {
	// Send performs the request and returns the raw JSON result.
	// Failures are reported as *domain.TransportError so callers can read
	// the status, message and field-level validation errors.
	Send(ctx context.Context, request domain.Request) (json.RawMessage, error)
}

// DispatcherFunc adapts a plain function to the Dispatcher port
type DispatcherFunc func(ctx context.Context, request domain.Request) (json.RawMessage, error)

// Send calls f
func (f DispatcherFunc) Send(ctx context.Context, request domain.Request) (json.RawMessage, error) {
	return f(ctx, request)
}
