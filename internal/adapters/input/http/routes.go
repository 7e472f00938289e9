package http

import "github.com/gofiber/fiber/v2"

// Register mounts the handler's routes on app
func (hdl *HTTPHandler) Register(app *fiber.App) {
	app.Get("/health", hdl.HealthCheck)

	api := app.Group("/v1/api")
	{
		api.Get("/session", hdl.GetSession)

		api.Post("/auth/login", hdl.Login)
		api.Post("/auth/signup", hdl.Signup)
		api.Post("/auth/provider-signup", hdl.ProviderSignup)
		api.Post("/auth/logout", hdl.Logout)

		api.Get("/me", hdl.GetMe)
		api.Patch("/me", hdl.UpdateProfile)

		api.Get("/bookings", hdl.GetBookings)
		api.Post("/bookings", hdl.CreateBooking)
		api.Get("/bookings/:id", hdl.GetBooking)
		api.Post("/bookings/:id/cancel", hdl.CancelBooking)

		api.Get("/provider/status", hdl.GetProviderStatus)
	}
}
