package application

import (
	"net/http"
	"net/url"
	"strconv"

	"booking-session-cache/internal/domain"
)

// Tag types shared by the marketplace endpoints
const (
	TagUser     = "User"
	TagBooking  = "Booking"
	TagProvider = "Provider"
)

// Endpoint names
const (
	EndpointMe             = "me"
	EndpointBookings       = "bookings"
	EndpointBooking        = "booking"
	EndpointProviderStatus = "providerStatus"
	EndpointLogin          = "login"
	EndpointSignup         = "signup"
	EndpointProviderSignup = "providerSignup"
	EndpointRefresh        = "refresh"
	EndpointUpdateProfile  = "updateProfile"
	EndpointCreateBooking  = "createBooking"
	EndpointCancelBooking  = "cancelBooking"
)

// RefreshPath is the API path used to renew an access token
const RefreshPath = "/auth/refresh"

// MeQuery describes the signed-in user's profile
func MeQuery() domain.QueryDescriptor {
	return domain.QueryDescriptor{
		Endpoint: EndpointMe,
		Request:  domain.Request{URL: "/users/me", Method: http.MethodGet},
		Tags:     []domain.Tag{domain.TypeTag(TagUser)},
	}
}

// BookingsQuery describes the booking list, filtered and paginated
func BookingsQuery(query domain.BookingQuery) domain.QueryDescriptor {
	values := url.Values{}
	params := map[string]any{}
	if query.Status != "" {
		values.Set("status", query.Status)
		params["status"] = query.Status
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
		params["page"] = query.Page
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
		params["limit"] = query.Limit
	}

	path := "/bookings"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return domain.QueryDescriptor{
		Endpoint: EndpointBookings,
		Params:   params,
		Request:  domain.Request{URL: path, Method: http.MethodGet},
		Tags:     []domain.Tag{domain.TypeTag(TagBooking)},
	}
}

// BookingQuery describes a single booking
func BookingQuery(bookingID string) domain.QueryDescriptor {
	return domain.QueryDescriptor{
		Endpoint: EndpointBooking,
		Params:   map[string]any{"id": bookingID},
		Request:  domain.Request{URL: "/bookings/" + url.PathEscape(bookingID), Method: http.MethodGet},
		Tags:     []domain.Tag{domain.TypeTag(TagBooking), domain.IDTag(TagBooking, bookingID)},
	}
}

// ProviderStatusQuery describes the provider onboarding / availability status
func ProviderStatusQuery() domain.QueryDescriptor {
	return domain.QueryDescriptor{
		Endpoint: EndpointProviderStatus,
		Request:  domain.Request{URL: "/providers/me/status", Method: http.MethodGet},
		Tags:     []domain.Tag{domain.TypeTag(TagProvider)},
	}
}

// LoginMutation func
func LoginMutation(request domain.LoginRequest) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint: EndpointLogin,
		Request:  domain.Request{URL: "/auth/login", Method: http.MethodPost, Body: request},
	}
}

// SignupMutation func
func SignupMutation(request domain.SignupRequest) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint: EndpointSignup,
		Request:  domain.Request{URL: "/auth/signup", Method: http.MethodPost, Body: request},
	}
}

// ProviderSignupMutation func
func ProviderSignupMutation(request domain.ProviderSignupRequest) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint: EndpointProviderSignup,
		Request:  domain.Request{URL: "/auth/provider-signup", Method: http.MethodPost, Body: request},
	}
}

// RefreshRequest builds the token refresh call used by dispatchers
func RefreshRequest(refreshToken string) domain.Request {
	return domain.Request{
		URL:    RefreshPath,
		Method: http.MethodPost,
		Body:   map[string]string{"refreshToken": refreshToken},
	}
}

// UpdateProfileMutation func
func UpdateProfileMutation(fields domain.UserProfile) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint:    EndpointUpdateProfile,
		Request:     domain.Request{URL: "/users/me", Method: http.MethodPatch, Body: fields},
		Invalidates: []domain.Tag{domain.TypeTag(TagUser)},
	}
}

// CreateBookingMutation func
func CreateBookingMutation(request domain.CreateBookingRequest) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint:    EndpointCreateBooking,
		Request:     domain.Request{URL: "/bookings", Method: http.MethodPost, Body: request},
		Invalidates: []domain.Tag{domain.TypeTag(TagBooking), domain.TypeTag(TagProvider)},
	}
}

// CancelBookingMutation func
func CancelBookingMutation(request domain.CancelBookingRequest) domain.MutationDescriptor {
	return domain.MutationDescriptor{
		Endpoint: EndpointCancelBooking,
		Request: domain.Request{
			URL:    "/bookings/" + url.PathEscape(request.BookingID) + "/cancel",
			Method: http.MethodPost,
			Body:   request,
		},
		Invalidates: []domain.Tag{domain.TypeTag(TagBooking), domain.TypeTag(TagProvider)},
	}
}
