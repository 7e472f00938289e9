package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"booking-session-cache/internal/domain"

	"github.com/gofiber/fiber/v2"
)

// MockMarketplaceService is a mock implementation of input.MarketplaceService
type MockMarketplaceService struct {
	LoginFunc          func(ctx context.Context, request domain.LoginRequest) (domain.Session, error)
	SignupFunc         func(ctx context.Context, request domain.SignupRequest) (domain.Session, error)
	ProviderSignupFunc func(ctx context.Context, request domain.ProviderSignupRequest) (domain.Session, error)
	LogoutFunc         func(ctx context.Context)
	UpdateProfileFunc  func(ctx context.Context, fields domain.UserProfile) (domain.Session, error)
	MeFunc             func(ctx context.Context) (domain.Snapshot, error)
	BookingsFunc       func(ctx context.Context, query domain.BookingQuery) (domain.Snapshot, error)
	BookingFunc        func(ctx context.Context, bookingID string) (domain.Snapshot, error)
	ProviderStatusFunc func(ctx context.Context) (domain.Snapshot, error)
	CreateBookingFunc  func(ctx context.Context, request domain.CreateBookingRequest) ([]byte, error)
	CancelBookingFunc  func(ctx context.Context, request domain.CancelBookingRequest) ([]byte, error)
}

func (m *MockMarketplaceService) Login(ctx context.Context, request domain.LoginRequest) (domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, request)
	}
	return domain.Session{}, nil
}

func (m *MockMarketplaceService) Signup(ctx context.Context, request domain.SignupRequest) (domain.Session, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, request)
	}
	return domain.Session{}, nil
}

func (m *MockMarketplaceService) ProviderSignup(ctx context.Context, request domain.ProviderSignupRequest) (domain.Session, error) {
	if m.ProviderSignupFunc != nil {
		return m.ProviderSignupFunc(ctx, request)
	}
	return domain.Session{}, nil
}

func (m *MockMarketplaceService) Logout(ctx context.Context) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx)
	}
}

func (m *MockMarketplaceService) UpdateProfile(ctx context.Context, fields domain.UserProfile) (domain.Session, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, fields)
	}
	return domain.Session{}, nil
}

func (m *MockMarketplaceService) Me(ctx context.Context) (domain.Snapshot, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return domain.Snapshot{}, nil
}

func (m *MockMarketplaceService) Bookings(ctx context.Context, query domain.BookingQuery) (domain.Snapshot, error) {
	if m.BookingsFunc != nil {
		return m.BookingsFunc(ctx, query)
	}
	return domain.Snapshot{}, nil
}

func (m *MockMarketplaceService) Booking(ctx context.Context, bookingID string) (domain.Snapshot, error) {
	if m.BookingFunc != nil {
		return m.BookingFunc(ctx, bookingID)
	}
	return domain.Snapshot{}, nil
}

func (m *MockMarketplaceService) ProviderStatus(ctx context.Context) (domain.Snapshot, error) {
	if m.ProviderStatusFunc != nil {
		return m.ProviderStatusFunc(ctx)
	}
	return domain.Snapshot{}, nil
}

func (m *MockMarketplaceService) CreateBooking(ctx context.Context, request domain.CreateBookingRequest) ([]byte, error) {
	if m.CreateBookingFunc != nil {
		return m.CreateBookingFunc(ctx, request)
	}
	return nil, nil
}

func (m *MockMarketplaceService) CancelBooking(ctx context.Context, request domain.CancelBookingRequest) ([]byte, error) {
	if m.CancelBookingFunc != nil {
		return m.CancelBookingFunc(ctx, request)
	}
	return nil, nil
}

// MockSessionService is a mock implementation of input.SessionService
type MockSessionService struct {
	Session domain.Session
}

func (m *MockSessionService) CurrentUser() (domain.UserProfile, bool) {
	return m.Session.User, m.Session.User != nil
}
func (m *MockSessionService) AccessToken() (string, bool) {
	return m.Session.AccessToken, m.Session.AccessToken != ""
}
func (m *MockSessionService) RefreshToken() (string, bool) {
	return m.Session.RefreshToken, m.Session.RefreshToken != ""
}
func (m *MockSessionService) IsAuthenticated() bool {
	return m.Session.IsAuthenticated()
}
func (m *MockSessionService) Snapshot() domain.Session {
	return m.Session
}
func (m *MockSessionService) Authenticate(event domain.AuthSucceeded) error {
	return nil
}
func (m *MockSessionService) UpdateProfile(fields domain.UserProfile) error {
	return nil
}
func (m *MockSessionService) Logout() {
	m.Session = domain.Session{}
}

func newTestApp(srv *MockMarketplaceService, session *MockSessionService, health HealthCheckFunc) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	New(srv, session, health).Register(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(&MockMarketplaceService{}, &MockSessionService{}, nil)
	if status, _ := doRequest(t, app, http.MethodGet, "/health", ""); status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}

	failing := newTestApp(&MockMarketplaceService{}, &MockSessionService{}, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	if status, _ := doRequest(t, failing, http.MethodGet, "/health", ""); status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
}

func TestGetSessionRedactsTokens(t *testing.T) {
	session := &MockSessionService{Session: domain.Session{
		User:         domain.UserProfile{"id": "u1"},
		AccessToken:  "a1",
		RefreshToken: "r1",
	}}
	app := newTestApp(&MockMarketplaceService{}, session, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/session", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(raw), "a1") || strings.Contains(string(raw), "r1") {
		t.Errorf("expected tokens to be redacted, got %s", raw)
	}
	if !strings.Contains(string(raw), `"authenticated":true`) {
		t.Errorf("expected authenticated flag, got %s", raw)
	}
}

func TestLoginSuccess(t *testing.T) {
	srv := &MockMarketplaceService{
		LoginFunc: func(ctx context.Context, request domain.LoginRequest) (domain.Session, error) {
			if request.Email != "ada@example.com" || request.Password != "secret" {
				t.Errorf("unexpected request: %+v", request)
			}
			return domain.Session{User: domain.UserProfile{"id": "u1"}, AccessToken: "a1", RefreshToken: "r1"}, nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodPost, "/v1/api/auth/login", `{"email":"ada@example.com","password":"secret"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	data := body["data"].(map[string]interface{})
	if data["authenticated"] != true {
		t.Errorf("expected authenticated session, got %v", data)
	}
}

func TestLoginValidationErrors(t *testing.T) {
	called := false
	srv := &MockMarketplaceService{
		LoginFunc: func(ctx context.Context, request domain.LoginRequest) (domain.Session, error) {
			called = true
			return domain.Session{}, nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodPost, "/v1/api/auth/login", `{"email":"not-an-email"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if called {
		t.Error("expected service not to be called")
	}
	errs, ok := body["errors"].([]interface{})
	if !ok || len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %v", body["errors"])
	}
	first := errs[0].(map[string]interface{})
	if first["path"] != "email" || first["location"] != "body" || first["type"] != "field" {
		t.Errorf("unexpected field error: %v", first)
	}
}

func TestLoginMalformedBody(t *testing.T) {
	app := newTestApp(&MockMarketplaceService{}, &MockSessionService{}, nil)
	if status, _ := doRequest(t, app, http.MethodPost, "/v1/api/auth/login", `{"email":`); status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestSignupSurfacesTransportFieldErrors(t *testing.T) {
	srv := &MockMarketplaceService{
		SignupFunc: func(ctx context.Context, request domain.SignupRequest) (domain.Session, error) {
			return domain.Session{}, &domain.TransportError{
				Status: http.StatusConflict,
				Data: domain.TransportErrorData{
					Message: "Email already registered",
					Errors:  []domain.FieldError{{Type: "field", Msg: "taken", Path: "email", Location: "body"}},
				},
			}
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodPost, "/v1/api/auth/signup", `{"name":"Ada","email":"ada@example.com","password":"longenough"}`)
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	errs := body["errors"].([]interface{})
	if len(errs) != 1 || errs[0].(map[string]interface{})["msg"] != "taken" {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestProviderSignupMapsEmbeddedFields(t *testing.T) {
	srv := &MockMarketplaceService{
		ProviderSignupFunc: func(ctx context.Context, request domain.ProviderSignupRequest) (domain.Session, error) {
			if request.Email != "shop@example.com" || request.BusinessName != "Shop" {
				t.Errorf("unexpected request: %+v", request)
			}
			return domain.Session{User: domain.UserProfile{"id": "p1"}, AccessToken: "a1"}, nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, _ := doRequest(t, app, http.MethodPost, "/v1/api/auth/provider-signup",
		`{"name":"Ada","email":"shop@example.com","password":"longenough","businessName":"Shop","services":["cut"]}`)
	if status != http.StatusCreated {
		t.Errorf("expected 201, got %d", status)
	}
}

func TestLogout(t *testing.T) {
	loggedOut := false
	srv := &MockMarketplaceService{LogoutFunc: func(ctx context.Context) { loggedOut = true }}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodPost, "/v1/api/auth/logout", "")
	if status != http.StatusOK || !loggedOut {
		t.Errorf("expected logout, got status %d", status)
	}
	if body["data"].(map[string]interface{})["authenticated"] != false {
		t.Errorf("expected anonymous session, got %v", body["data"])
	}
}

func TestUpdateProfile(t *testing.T) {
	srv := &MockMarketplaceService{
		UpdateProfileFunc: func(ctx context.Context, fields domain.UserProfile) (domain.Session, error) {
			if fields["name"] != "Grace" {
				t.Errorf("unexpected fields: %v", fields)
			}
			return domain.Session{User: domain.UserProfile{"id": "u1", "name": "Grace"}, AccessToken: "a1"}, nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	if status, _ := doRequest(t, app, http.MethodPatch, "/v1/api/me", `{"name":"Grace"}`); status != http.StatusOK {
		t.Errorf("expected 200, got %d", status)
	}
	if status, _ := doRequest(t, app, http.MethodPatch, "/v1/api/me", `{}`); status != http.StatusBadRequest {
		t.Errorf("expected 400 for empty patch, got %d", status)
	}
}

func TestUpdateProfileUnauthorized(t *testing.T) {
	srv := &MockMarketplaceService{
		UpdateProfileFunc: func(ctx context.Context, fields domain.UserProfile) (domain.Session, error) {
			return domain.Session{}, domain.ErrUnauthorized
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	if status, _ := doRequest(t, app, http.MethodPatch, "/v1/api/me", `{"name":"Grace"}`); status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", status)
	}
}

func TestGetBookingsServesSnapshot(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	srv := &MockMarketplaceService{
		BookingsFunc: func(ctx context.Context, query domain.BookingQuery) (domain.Snapshot, error) {
			if query.Status != "pending" || query.Page != 2 {
				t.Errorf("unexpected query: %+v", query)
			}
			return domain.Snapshot{
				Key:       `bookings({"page":2,"status":"pending"})`,
				Status:    domain.CacheStatusPopulated,
				Data:      json.RawMessage(`[{"id":"b1"}]`),
				FetchedAt: fetchedAt,
			}, nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodGet, "/v1/api/bookings?status=pending&page=2", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if items := body["data"].([]interface{}); len(items) != 1 {
		t.Errorf("unexpected data: %v", body["data"])
	}
	cache := body["cache"].(map[string]interface{})
	if cache["status"] != "populated" || cache["key"] != `bookings({"page":2,"status":"pending"})` {
		t.Errorf("unexpected cache meta: %v", cache)
	}
}

func TestGetBookingsRejectsInvalidQuery(t *testing.T) {
	app := newTestApp(&MockMarketplaceService{}, &MockSessionService{}, nil)
	status, body := doRequest(t, app, http.MethodGet, "/v1/api/bookings?status=lost", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	errs := body["errors"].([]interface{})
	if errs[0].(map[string]interface{})["location"] != "query" {
		t.Errorf("expected query location, got %v", errs[0])
	}
}

func TestGetBookingServesStaleDataOnError(t *testing.T) {
	fetchErr := domain.NewTransportError(http.StatusServiceUnavailable, "maintenance", nil)
	srv := &MockMarketplaceService{
		BookingFunc: func(ctx context.Context, bookingID string) (domain.Snapshot, error) {
			if bookingID != "b1" {
				t.Errorf("unexpected id: %s", bookingID)
			}
			return domain.Snapshot{
				Status: domain.CacheStatusError,
				Data:   json.RawMessage(`{"id":"b1"}`),
				Err:    fetchErr,
			}, fetchErr
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodGet, "/v1/api/bookings/b1", "")
	if status != http.StatusOK {
		t.Fatalf("expected stale data with 200, got %d", status)
	}
	cache := body["cache"].(map[string]interface{})
	if cache["status"] != "error" || !strings.Contains(cache["error"].(string), "maintenance") {
		t.Errorf("unexpected cache meta: %v", cache)
	}
}

func TestGetMeErrorWithoutData(t *testing.T) {
	srv := &MockMarketplaceService{
		MeFunc: func(ctx context.Context) (domain.Snapshot, error) {
			err := domain.NewTransportError(0, "dial tcp: connection refused", domain.ErrTransportUnavailable)
			return domain.Snapshot{Status: domain.CacheStatusError, Err: err}, err
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	if status, _ := doRequest(t, app, http.MethodGet, "/v1/api/me", ""); status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", status)
	}
}

func TestGetProviderStatusCacheClosed(t *testing.T) {
	srv := &MockMarketplaceService{
		ProviderStatusFunc: func(ctx context.Context) (domain.Snapshot, error) {
			return domain.Snapshot{}, domain.ErrCacheClosed
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	if status, _ := doRequest(t, app, http.MethodGet, "/v1/api/provider/status", ""); status != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", status)
	}
}

func TestCreateBooking(t *testing.T) {
	srv := &MockMarketplaceService{
		CreateBookingFunc: func(ctx context.Context, request domain.CreateBookingRequest) ([]byte, error) {
			if request.ProviderID != "p1" || request.StartsAt != "2024-05-01T10:00:00Z" {
				t.Errorf("unexpected request: %+v", request)
			}
			return []byte(`{"id":"b9"}`), nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	status, body := doRequest(t, app, http.MethodPost, "/v1/api/bookings",
		`{"providerId":"p1","serviceId":"s1","startsAt":"2024-05-01T10:00:00Z"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if body["data"].(map[string]interface{})["id"] != "b9" {
		t.Errorf("unexpected data: %v", body["data"])
	}

	if status, _ := doRequest(t, app, http.MethodPost, "/v1/api/bookings",
		`{"providerId":"p1","serviceId":"s1","startsAt":"tomorrow"}`); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad startsAt, got %d", status)
	}
}

func TestCancelBooking(t *testing.T) {
	srv := &MockMarketplaceService{
		CancelBookingFunc: func(ctx context.Context, request domain.CancelBookingRequest) ([]byte, error) {
			if request.BookingID != "b1" {
				t.Errorf("unexpected booking id: %s", request.BookingID)
			}
			return []byte(`{"id":"b1","status":"cancelled"}`), nil
		},
	}
	app := newTestApp(srv, &MockSessionService{}, nil)

	if status, _ := doRequest(t, app, http.MethodPost, "/v1/api/bookings/b1/cancel", ""); status != http.StatusOK {
		t.Errorf("expected 200 without body, got %d", status)
	}
	if status, _ := doRequest(t, app, http.MethodPost, "/v1/api/bookings/b1/cancel", `{"reason":"sick"}`); status != http.StatusOK {
		t.Errorf("expected 200 with reason, got %d", status)
	}
}
