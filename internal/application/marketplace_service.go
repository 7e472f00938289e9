package application

import (
	"context"
	"encoding/json"
	"fmt"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/input"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure MarketplaceService implements the input port
var _ input.MarketplaceService = (*MarketplaceService)(nil)

// MarketplaceService struct - Application service implementing the query and mutation intents
// consumers use. Auth results flow into the session manager; everything else goes through the cache.
type MarketplaceService struct {
	cache   *RequestCache
	session *SessionManager
}

// NewMarketplaceService func - Creates new marketplace service
func NewMarketplaceService(cache *RequestCache, session *SessionManager) *MarketplaceService {
	return &MarketplaceService{
		cache:   cache,
		session: session,
	}
}

// Login func - Use case: sign in and replace the session
func (s *MarketplaceService) Login(ctx context.Context, request domain.LoginRequest) (domain.Session, error) {
	return s.authenticate(ctx, LoginMutation(request))
}

// Signup func - Use case: create a customer account and sign in
func (s *MarketplaceService) Signup(ctx context.Context, request domain.SignupRequest) (domain.Session, error) {
	return s.authenticate(ctx, SignupMutation(request))
}

// ProviderSignup func - Use case: create a provider account and sign in
func (s *MarketplaceService) ProviderSignup(ctx context.Context, request domain.ProviderSignupRequest) (domain.Session, error) {
	return s.authenticate(ctx, ProviderSignupMutation(request))
}

// Logout func - Use case: drop the session and every cached response
func (s *MarketplaceService) Logout(ctx context.Context) {
	s.session.Logout()
	s.cache.Reset()
}

// UpdateProfile func - Use case: patch the signed-in user's profile
func (s *MarketplaceService) UpdateProfile(ctx context.Context, fields domain.UserProfile) (domain.Session, error) {
	if !s.session.IsAuthenticated() {
		return domain.Session{}, fmt.Errorf("%w: profile update requires a signed-in user", domain.ErrUnauthorized)
	}
	data, err := s.cache.Mutate(ctx, UpdateProfileMutation(fields))
	if err != nil {
		return domain.Session{}, err
	}

	var updated domain.UserProfile
	if err := json.Unmarshal(data, &updated); err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse profile update response: %w", err)
	}
	if err := s.session.UpdateProfile(updated); err != nil {
		return domain.Session{}, err
	}
	return s.session.Snapshot(), nil
}

// Me func - Use case: read the signed-in user's profile
func (s *MarketplaceService) Me(ctx context.Context) (domain.Snapshot, error) {
	return s.cache.Fetch(ctx, MeQuery())
}

// Bookings func - Use case: read the booking list
func (s *MarketplaceService) Bookings(ctx context.Context, query domain.BookingQuery) (domain.Snapshot, error) {
	return s.cache.Fetch(ctx, BookingsQuery(query))
}

// Booking func - Use case: read one booking
func (s *MarketplaceService) Booking(ctx context.Context, bookingID string) (domain.Snapshot, error) {
	return s.cache.Fetch(ctx, BookingQuery(bookingID))
}

// ProviderStatus func - Use case: read the provider status
func (s *MarketplaceService) ProviderStatus(ctx context.Context) (domain.Snapshot, error) {
	return s.cache.Fetch(ctx, ProviderStatusQuery())
}

// WatchBookings func - subscribes to the booking list; the caller must Unsubscribe
func (s *MarketplaceService) WatchBookings(query domain.BookingQuery) (*Subscription, error) {
	return s.cache.Query(BookingsQuery(query))
}

// CreateBooking func - Use case: book a provider's service
func (s *MarketplaceService) CreateBooking(ctx context.Context, request domain.CreateBookingRequest) ([]byte, error) {
	return s.cache.Mutate(ctx, CreateBookingMutation(request))
}

// CancelBooking func - Use case: cancel a booking
func (s *MarketplaceService) CancelBooking(ctx context.Context, request domain.CancelBookingRequest) ([]byte, error) {
	return s.cache.Mutate(ctx, CancelBookingMutation(request))
}

func (s *MarketplaceService) authenticate(ctx context.Context, desc domain.MutationDescriptor) (domain.Session, error) {
	data, err := s.cache.Mutate(ctx, desc)
	if err != nil {
		return domain.Session{}, err
	}

	var response domain.AuthResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return domain.Session{}, fmt.Errorf("failed to parse %s response: %w", desc.Endpoint, err)
	}
	if err := s.session.Authenticate(response.Event()); err != nil {
		return domain.Session{}, err
	}

	logrus.Infof("Signed in via %s: user=%s", desc.Endpoint, response.User.ID())
	// cached reads belonged to the previous identity
	s.cache.Reset()
	return s.session.Snapshot(), nil
}
