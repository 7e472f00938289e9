package input

import (
	"context"

	"booking-session-cache/internal/domain"
)

// MarketplaceService interface - Input port (use case)
// Query and mutation intents are the only way consumers read or write cached and session state
type MarketplaceService interface {
	Login(ctx context.Context, request domain.LoginRequest) (domain.Session, error)
	Signup(ctx context.Context, request domain.SignupRequest) (domain.Session, error)
	ProviderSignup(ctx context.Context, request domain.ProviderSignupRequest) (domain.Session, error)
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, fields domain.UserProfile) (domain.Session, error)

	Me(ctx context.Context) (domain.Snapshot, error)
	Bookings(ctx context.Context, query domain.BookingQuery) (domain.Snapshot, error)
	Booking(ctx context.Context, bookingID string) (domain.Snapshot, error)
	ProviderStatus(ctx context.Context) (domain.Snapshot, error)

	CreateBooking(ctx context.Context, request domain.CreateBookingRequest) ([]byte, error)
	CancelBooking(ctx context.Context, request domain.CancelBookingRequest) ([]byte, error)
}
