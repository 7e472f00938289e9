package http

type (
	// LoginRequest struct - HTTP request DTO
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email" form:"email"`
		Password string `json:"password" validate:"required" form:"password"`
	}

	// SignupRequest struct - HTTP request DTO
	SignupRequest struct {
		Name     string `json:"name" validate:"required,max=100" form:"name"`
		Email    string `json:"email" validate:"required,email" form:"email"`
		Password string `json:"password" validate:"required,min=8" form:"password"`
		Phone    string `json:"phone" validate:"omitempty,e164" form:"phone"`
	}

	// ProviderSignupRequest struct - HTTP request DTO
	ProviderSignupRequest struct {
		SignupRequest
		BusinessName string   `json:"businessName" validate:"required,max=150" form:"businessName"`
		Services     []string `json:"services" validate:"omitempty,dive,required" form:"services"`
	}

	// BookingQueryRequest struct - HTTP query request DTO
	BookingQueryRequest struct {
		Status string `json:"status" validate:"omitempty,oneof=pending confirmed completed cancelled" query:"status"`
		Page   int    `json:"page" validate:"gte=0" query:"page"`
		Limit  int    `json:"limit" validate:"gte=0,lte=100" query:"limit"`
	}

	// CreateBookingRequest struct - HTTP request DTO
	CreateBookingRequest struct {
		ProviderID string `json:"providerId" validate:"required" form:"providerId"`
		ServiceID  string `json:"serviceId" validate:"required" form:"serviceId"`
		StartsAt   string `json:"startsAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00" form:"startsAt"`
		Notes      string `json:"notes" validate:"omitempty,max=500" form:"notes"`
	}

	// CancelBookingRequest struct - HTTP request DTO
	CancelBookingRequest struct {
		Reason string `json:"reason" validate:"omitempty,max=500" form:"reason"`
	}
)
