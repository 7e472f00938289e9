package http

import (
	"context"
	"errors"
	"fmt"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/input"
	"booking-session-cache/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// HealthCheckFunc reports whether the durable storage backend is reachable
type HealthCheckFunc func(ctx context.Context) error

// HTTPHandler struct - Primary/Driving adapter for HTTP
type HTTPHandler struct {
	srv       input.MarketplaceService
	session   input.SessionService
	health    HealthCheckFunc
	validator validator.Validator
}

// New func - Creates new HTTP handler; health may be nil for backends without a connection
func New(srv input.MarketplaceService, session input.SessionService, health HealthCheckFunc) *HTTPHandler {
	return &HTTPHandler{
		srv:       srv,
		session:   session,
		health:    health,
		validator: validator.New(),
	}
}

// HealthCheck func
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	if hdl.health != nil {
		if err := hdl.health(c.UserContext()); err != nil {
			logrus.Errorln(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
		}
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: ""})
}

// GetSession func - current session with tokens redacted
func (hdl *HTTPHandler) GetSession(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: newSessionResponse(hdl.session.Snapshot())})
}

// Login func
func (hdl *HTTPHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest
	if err := hdl.bind(c, &request); err != nil {
		return err
	}
	session, err := hdl.srv.Login(c.UserContext(), domain.LoginRequest{
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: newSessionResponse(session)})
}

// Signup func
func (hdl *HTTPHandler) Signup(c *fiber.Ctx) error {
	var request SignupRequest
	if err := hdl.bind(c, &request); err != nil {
		return err
	}
	session, err := hdl.srv.Signup(c.UserContext(), toDomainSignup(request))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ResponseBody{Status: Success, Data: newSessionResponse(session)})
}

// ProviderSignup func
func (hdl *HTTPHandler) ProviderSignup(c *fiber.Ctx) error {
	var request ProviderSignupRequest
	if err := hdl.bind(c, &request); err != nil {
		return err
	}
	session, err := hdl.srv.ProviderSignup(c.UserContext(), domain.ProviderSignupRequest{
		SignupRequest: toDomainSignup(request.SignupRequest),
		BusinessName:  request.BusinessName,
		Services:      request.Services,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ResponseBody{Status: Success, Data: newSessionResponse(session)})
}

// Logout func
func (hdl *HTTPHandler) Logout(c *fiber.Ctx) error {
	hdl.srv.Logout(c.UserContext())
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: newSessionResponse(domain.Session{})})
}

// UpdateProfile func - the body is merged into the profile as-is
func (hdl *HTTPHandler) UpdateProfile(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if len(fields) == 0 {
		msg := ResponseBody{Status: BadRequest}
		msg.Status.Message = []string{"no profile fields to update"}
		return c.Status(fiber.StatusBadRequest).JSON(msg)
	}
	session, err := hdl.srv.UpdateProfile(c.UserContext(), domain.UserProfile(fields))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: newSessionResponse(session)})
}

// GetMe func
func (hdl *HTTPHandler) GetMe(c *fiber.Ctx) error {
	snap, err := hdl.srv.Me(c.UserContext())
	return writeSnapshot(c, snap, err)
}

// GetBookings func
func (hdl *HTTPHandler) GetBookings(c *fiber.Ctx) error {
	var condition BookingQueryRequest
	if err := c.QueryParser(&condition); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	if err := hdl.validator.ValidateStruct(condition); err != nil {
		return writeValidation(c, err, "query")
	}
	snap, err := hdl.srv.Bookings(c.UserContext(), domain.BookingQuery{
		Status: condition.Status,
		Page:   condition.Page,
		Limit:  condition.Limit,
	})
	return writeSnapshot(c, snap, err)
}

// GetBooking func
func (hdl *HTTPHandler) GetBooking(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	snap, err := hdl.srv.Booking(c.UserContext(), id)
	return writeSnapshot(c, snap, err)
}

// GetProviderStatus func
func (hdl *HTTPHandler) GetProviderStatus(c *fiber.Ctx) error {
	snap, err := hdl.srv.ProviderStatus(c.UserContext())
	return writeSnapshot(c, snap, err)
}

// CreateBooking func
func (hdl *HTTPHandler) CreateBooking(c *fiber.Ctx) error {
	var request CreateBookingRequest
	if err := hdl.bind(c, &request); err != nil {
		return err
	}
	data, err := hdl.srv.CreateBooking(c.UserContext(), domain.CreateBookingRequest{
		ProviderID: request.ProviderID,
		ServiceID:  request.ServiceID,
		StartsAt:   request.StartsAt,
		Notes:      request.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ResponseBody{Status: Success, Data: rawData(data)})
}

// CancelBooking func
func (hdl *HTTPHandler) CancelBooking(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest})
	}
	var request CancelBookingRequest
	if len(c.Body()) > 0 {
		if err := hdl.bind(c, &request); err != nil {
			return err
		}
	}
	data, err := hdl.srv.CancelBooking(c.UserContext(), domain.CancelBookingRequest{
		BookingID: id,
		Reason:    request.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: rawData(data)})
}

// bind parses and validates the body, writing the 400 response itself on failure
func (hdl *HTTPHandler) bind(c *fiber.Ctx, request interface{}) error {
	if err := c.BodyParser(request); err != nil {
		logrus.Errorln(err)
		if writeErr := c.Status(fiber.StatusBadRequest).JSON(ResponseBody{Status: BadRequest}); writeErr != nil {
			return writeErr
		}
		return errHandled
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		if writeErr := writeValidation(c, err, "body"); writeErr != nil {
			return writeErr
		}
		return errHandled
	}
	return nil
}

func toDomainSignup(request SignupRequest) domain.SignupRequest {
	return domain.SignupRequest{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Phone:    request.Phone,
	}
}

// errHandled signals that bind already wrote the response
var errHandled = errors.New("response already written")

// ErrorHandler is the fiber error handler; it swallows errHandled
func ErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, errHandled) {
		return nil
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		msg := ResponseBody{Status: Status{Code: fiberErr.Code, Message: []string{fiberErr.Message}}}
		return c.Status(fiberErr.Code).JSON(msg)
	}
	logrus.Errorln(err)
	return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
}

func writeValidation(c *fiber.Ctx, err error, location string) error {
	msg := ResponseBody{Status: BadRequest}
	for _, v := range validator.Violations(err) {
		msg.Errors = append(msg.Errors, domain.FieldError{
			Type:     "field",
			Value:    v.Value,
			Msg:      violationMessage(v),
			Path:     v.Field,
			Location: location,
		})
	}
	if len(msg.Errors) == 0 {
		msg.Status.Message = []string{err.Error()}
	}
	return c.Status(fiber.StatusBadRequest).JSON(msg)
}

func violationMessage(v validator.Violation) string {
	if v.Param == "" {
		return fmt.Sprintf("failed on the '%s' rule", v.Rule)
	}
	return fmt.Sprintf("failed on the '%s=%s' rule", v.Rule, v.Param)
}

// writeSnapshot renders a query result. Data kept from an earlier fetch is
// still served when the latest fetch failed, with the failure in the cache meta.
func writeSnapshot(c *fiber.Ctx, snap domain.Snapshot, err error) error {
	if err != nil && len(snap.Data) == 0 {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{
		Status: Success,
		Data:   rawData(snap.Data),
		Cache:  newCacheMeta(snap),
	})
}

func writeError(c *fiber.Ctx, err error) error {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		code := transportErr.Status
		if code < 400 || code > 599 {
			code = fiber.StatusBadGateway
		}
		msg := ResponseBody{
			Status: Status{Code: code, Message: []string{transportErr.Data.Message}},
			Errors: transportErr.Data.Errors,
		}
		return c.Status(code).JSON(msg)
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(ResponseBody{Status: Unauthorized})
	case errors.Is(err, domain.ErrCacheClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ResponseBody{Status: ServiceUnavailable})
	case errors.Is(err, domain.ErrTransportUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(ResponseBody{Status: BadGateway})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusGatewayTimeout).JSON(ResponseBody{Status: Status{Code: fiber.StatusGatewayTimeout, Message: []string{err.Error()}}})
	}

	logrus.Errorln(err)
	msg := ResponseBody{Status: InternalServerError}
	msg.Status.Message = []string{err.Error()}
	return c.Status(fiber.StatusInternalServerError).JSON(msg)
}
