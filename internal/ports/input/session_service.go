package input

import "booking-session-cache/internal/domain"

// SessionService interface - Input port (use case)
// Defines what consumers can read from and do to the client session
type SessionService interface {
	CurrentUser() (domain.UserProfile, bool)
	AccessToken() (string, bool)
	RefreshToken() (string, bool)
	IsAuthenticated() bool
	Snapshot() domain.Session

	Authenticate(event domain.AuthSucceeded) error
	UpdateProfile(fields domain.UserProfile) error
	Logout()
}
