package output

import "booking-session-cache/internal/domain"

// SessionStore interface - Output port
// Defines what the session manager needs for keeping the session durable across restarts.
// Implementations never fail the caller: persistence problems are recovered locally
// and a fully-absent session is returned when nothing usable is stored.
type SessionStore interface {
	// Load returns the persisted session, or the fully-absent session when the blob
	// is missing, unreadable or does not satisfy the session invariants.
	Load() domain.Session

	// Save persists the session. It is best effort: write failures are logged and swallowed.
	Save(session domain.Session)

	// Clear removes the persisted session.
	// This operation is idempotent - clearing an absent session is not an error.
	Clear()
}
