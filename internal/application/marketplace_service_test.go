package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"booking-session-cache/internal/domain"
)

// fakeMarketplace answers dispatcher calls like the marketplace API
type fakeMarketplace struct {
	mu       sync.Mutex
	bookings map[string]string
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{bookings: map[string]string{"b1": "confirmed", "b2": "pending"}}
}

func (f *fakeMarketplace) send(ctx context.Context, request domain.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case request.URL == "/auth/login" && request.Method == http.MethodPost:
		body := request.Body.(domain.LoginRequest)
		if body.Password != "secret" {
			return nil, &domain.TransportError{Status: http.StatusUnauthorized, Data: domain.TransportErrorData{Message: "Invalid credentials"}}
		}
		return json.RawMessage(`{"user":{"id":"u1","name":"Ada"},"accessToken":"a1","refreshToken":"r1"}`), nil
	case request.URL == "/auth/signup" && request.Method == http.MethodPost:
		return json.RawMessage(`{"user":{"id":"u2"},"accessToken":"a2","refreshToken":"r2"}`), nil
	case request.URL == "/auth/provider-signup" && request.Method == http.MethodPost:
		return json.RawMessage(`{"user":{"id":"p1","role":"provider"},"accessToken":"a3","refreshToken":"r3"}`), nil
	case request.URL == "/users/me" && request.Method == http.MethodPatch:
		return json.RawMessage(`{"name":"Grace"}`), nil
	case request.URL == "/users/me":
		return json.RawMessage(`{"id":"u1","name":"Ada"}`), nil
	case request.URL == "/bookings" && request.Method == http.MethodGet:
		return json.RawMessage(fmt.Sprintf(`[{"id":"b1","status":%q},{"id":"b2","status":%q}]`, f.bookings["b1"], f.bookings["b2"])), nil
	case request.URL == "/bookings/b1/cancel":
		f.bookings["b1"] = "cancelled"
		return json.RawMessage(`{"id":"b1","status":"cancelled"}`), nil
	case request.URL == "/providers/me/status":
		return json.RawMessage(fmt.Sprintf(`{"pending":%d}`, f.countPending())), nil
	}
	return nil, &domain.TransportError{Status: http.StatusNotFound, Data: domain.TransportErrorData{Message: "not found"}}
}

func (f *fakeMarketplace) countPending() int {
	n := 0
	for _, status := range f.bookings {
		if status == "pending" {
			n++
		}
	}
	return n
}

func newTestMarketplace(t *testing.T) (*MarketplaceService, *MockSessionStore, *MockDispatcher, *RequestCache) {
	t.Helper()
	fake := newFakeMarketplace()
	dispatcher := &MockDispatcher{SendFunc: fake.send}
	store := &MockSessionStore{}
	cache := newTestCache(t, dispatcher)
	return NewMarketplaceService(cache, NewSessionManager(store)), store, dispatcher, cache
}

// TestLoginLogoutScenario tests the anonymous -> authenticated -> anonymous round trip
func TestLoginLogoutScenario(t *testing.T) {
	srv, store, _, _ := newTestMarketplace(t)
	ctx := context.Background()

	session, err := srv.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !session.IsAuthenticated() || session.User.ID() != "u1" {
		t.Errorf("unexpected session: %+v", session)
	}
	saved, _ := store.lastSaved()
	if saved.User.ID() != "u1" || saved.AccessToken != "a1" || saved.RefreshToken != "r1" {
		t.Errorf("expected durable blob to hold the triple, got %+v", saved)
	}

	srv.Logout(ctx)
	if srv.session.IsAuthenticated() {
		t.Error("expected anonymous session after logout")
	}
	if store.Cleared != 1 {
		t.Errorf("expected durable blob to be removed, got %d clears", store.Cleared)
	}
}

// TestLoginFailureKeepsSession tests that rejected credentials do not touch the session
func TestLoginFailureKeepsSession(t *testing.T) {
	srv, store, _, _ := newTestMarketplace(t)

	_, err := srv.Login(context.Background(), domain.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if srv.session.IsAuthenticated() || len(store.Saved) != 0 {
		t.Error("expected session to stay anonymous and unsaved")
	}
}

// TestSignupVariants tests that both signup flows authenticate
func TestSignupVariants(t *testing.T) {
	srv, _, _, _ := newTestMarketplace(t)
	ctx := context.Background()

	if session, err := srv.Signup(ctx, domain.SignupRequest{Email: "new@example.com"}); err != nil || session.User.ID() != "u2" {
		t.Errorf("unexpected signup result: %+v (%v)", session, err)
	}
	session, err := srv.ProviderSignup(ctx, domain.ProviderSignupRequest{BusinessName: "Shop"})
	if err != nil || session.User.ID() != "p1" || session.AccessToken != "a3" {
		t.Errorf("unexpected provider signup result: %+v (%v)", session, err)
	}
}

// TestLoginResetsCachedReads tests that one identity's data is not served to the next
func TestLoginResetsCachedReads(t *testing.T) {
	srv, _, dispatcher, cache := newTestMarketplace(t)
	ctx := context.Background()

	if _, err := srv.Me(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := srv.Login(ctx, domain.LoginRequest{Password: "secret"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cache.Keys()) != 0 {
		t.Errorf("expected cache to be emptied, got %v", cache.Keys())
	}
	if _, err := srv.Me(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dispatcher.Calls("/users/me") != 2 {
		t.Errorf("expected profile to be fetched again, got %d", dispatcher.Calls("/users/me"))
	}
}

// TestUpdateProfile tests the merge of the returned fields into the session
func TestUpdateProfile(t *testing.T) {
	srv, store, _, _ := newTestMarketplace(t)
	ctx := context.Background()

	if _, err := srv.UpdateProfile(ctx, domain.UserProfile{"name": "Grace"}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized while anonymous, got %v", err)
	}

	if _, err := srv.Login(ctx, domain.LoginRequest{Password: "secret"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	session, err := srv.UpdateProfile(ctx, domain.UserProfile{"name": "Grace"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.User["name"] != "Grace" || session.User.ID() != "u1" {
		t.Errorf("unexpected user: %v", session.User)
	}
	if saved, _ := store.lastSaved(); saved.User["name"] != "Grace" {
		t.Errorf("expected merged profile to be persisted, got %v", saved.User)
	}
}

// TestCancelBookingScenario tests that a watched booking list reflects a cancellation
func TestCancelBookingScenario(t *testing.T) {
	srv, _, dispatcher, _ := newTestMarketplace(t)
	ctx := context.Background()

	sub, err := srv.WatchBookings(domain.BookingQuery{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer sub.Unsubscribe()

	var before []map[string]string
	if err := waitSettled(t, sub).Decode(&before); err != nil || before[0]["status"] != "confirmed" {
		t.Fatalf("unexpected initial list: %v (%v)", before, err)
	}
	status, err := srv.ProviderStatus(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := srv.CancelBooking(ctx, domain.CancelBookingRequest{BookingID: "b1", Reason: "sick"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var after []map[string]string
	if err := waitSettled(t, sub).Decode(&after); err != nil || after[0]["status"] != "cancelled" {
		t.Errorf("expected refetched list with the cancellation, got %v (%v)", after, err)
	}

	// the provider status entry had no subscribers, so it refetches on the next read
	if snap, _ := srv.cache.Snapshot(status.Key); !snap.Stale {
		t.Error("expected provider status to be marked stale")
	}
	if _, err := srv.ProviderStatus(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dispatcher.Calls("/providers/me/status") != 2 {
		t.Errorf("expected provider status refetch, got %d", dispatcher.Calls("/providers/me/status"))
	}
}

// TestBookingQueries tests the single booking and provider status reads
func TestBookingQueries(t *testing.T) {
	srv, _, _, _ := newTestMarketplace(t)
	ctx := context.Background()

	snap, err := srv.Booking(ctx, "missing")
	if err == nil || snap.Status != domain.CacheStatusError {
		t.Errorf("expected error snapshot for missing booking, got %+v (%v)", snap, err)
	}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}

	bookings, err := srv.Bookings(ctx, domain.BookingQuery{})
	if err != nil || bookings.Status != domain.CacheStatusPopulated {
		t.Errorf("unexpected bookings snapshot: %+v (%v)", bookings, err)
	}
	if data, err := srv.CreateBooking(ctx, domain.CreateBookingRequest{ProviderID: "p1"}); err == nil {
		t.Errorf("expected unknown route error, got %s", data)
	}
}
