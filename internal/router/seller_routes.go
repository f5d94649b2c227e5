package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/handler"
	"github.com/tripio/travel-marketplace/internal/middleware"
	"github.com/tripio/travel-marketplace/internal/model"
)

// RegisterSeller registers SELLER-scoped endpoints under /v1/seller.
// All routes require a valid JWT and the SELLER role; ownership of
// the touched package or booking is verified per request.
func RegisterSeller(e *echo.Echo, s *handler.SellerHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1/seller",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSeller, model.RoleAdmin),
	)

	// ---- Packages ----
	g.POST("/packages", s.CreatePackage)
	g.GET("/packages", s.ListPackages)
	g.PUT("/packages/:id", s.UpdatePackage)
	g.DELETE("/packages/:id", s.DeletePackage)
	g.PUT("/packages/:id/itinerary", s.ReplaceItinerary)

	// ---- Departure windows ----
	g.POST("/packages/:id/availabilities", s.CreateAvailability)
	g.GET("/packages/:id/availabilities", s.ListAvailabilities)
	g.PUT("/availabilities/:id", s.UpdateAvailability)

	// ---- Bookings ----
	g.GET("/bookings", s.ListBookings)
	g.POST("/bookings/:id/confirm", s.ConfirmBooking)
	g.POST("/bookings/:id/complete", s.CompleteBooking)

	// ---- Payments ----
	g.POST("/payments/:id/refund", pay.Refund)

	// ---- Analytics ----
	g.GET("/dashboard", s.Dashboard)
}
