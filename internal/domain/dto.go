package domain

// DTOs (Data Transfer Objects) - wire shapes of the marketplace endpoints used by the cache layer

type (
	// LoginRequest struct - Domain login request DTO
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// SignupRequest struct - Domain signup request DTO
	SignupRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone,omitempty"`
	}

	// ProviderSignupRequest struct - Domain provider signup request DTO
	ProviderSignupRequest struct {
		SignupRequest
		BusinessName string   `json:"businessName"`
		Services     []string `json:"services,omitempty"`
	}

	// AuthResponse struct - result of login, signup and provider signup
	AuthResponse struct {
		User         UserProfile `json:"user"`
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
	}

	// RefreshResponse struct - result of a token refresh
	RefreshResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	// BookingQuery struct - parameters of the bookings list query
	BookingQuery struct {
		Status string `json:"status,omitempty"`
		Page   int    `json:"page,omitempty"`
		Limit  int    `json:"limit,omitempty"`
	}

	// CreateBookingRequest struct - Domain create booking request DTO
	CreateBookingRequest struct {
		ProviderID string `json:"providerId"`
		ServiceID  string `json:"serviceId"`
		StartsAt   string `json:"startsAt"`
		Notes      string `json:"notes,omitempty"`
	}

	// CancelBookingRequest struct - Domain cancel booking request DTO
	CancelBookingRequest struct {
		BookingID string `json:"-"`
		Reason    string `json:"reason,omitempty"`
	}
)

// Event converts a successful auth response into the session transition it triggers
func (r AuthResponse) Event() AuthSucceeded {
	return AuthSucceeded{
		User:         r.User,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}
