package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/handler"
	"github.com/tripio/travel-marketplace/internal/middleware"
	"github.com/tripio/travel-marketplace/internal/model"
)

// RegisterBuyer registers buyer-scoped endpoints under /v1.  All
// routes require a valid JWT and the BUYER role.  Buyers create and
// manage their own bookings, pay for them and review packages they
// have travelled with.
func RegisterBuyer(e *echo.Echo, b *handler.BookingHandler, pay *handler.PaymentHandler, rv *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBuyer),
	)

	// Bookings.
	g.POST("/bookings", b.Create)
	g.GET("/my-bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)

	// Payment intents are created per booking; the charge itself is
	// completed by the gateway and reported back on the webhook.
	g.POST("/bookings/:id/payment-intent", pay.CreateIntent)

	// Reviews.
	g.POST("/packages/:id/reviews", rv.Create)
	g.GET("/my-reviews", rv.Mine)
}
