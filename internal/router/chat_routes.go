package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/handler"
	"github.com/tripio/travel-marketplace/internal/middleware"
	"github.com/tripio/travel-marketplace/internal/model"
)

// RegisterChat registers the messaging endpoints under /v1.  Every
// authenticated role can message; participation in a thread is
// checked per request.
func RegisterChat(e *echo.Echo, ch *handler.ChatHandler, jwtSecret string) {
	g := e.Group(
		"/v1/conversations",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBuyer, model.RoleSeller, model.RoleAdmin),
	)
	g.POST("", ch.Start)
	g.GET("", ch.List)
	g.GET("/:id/messages", ch.Messages)
	g.POST("/:id/messages", ch.Send)
	// Server-Sent Events stream of live messages for one thread.
	g.GET("/:id/stream", ch.Stream)
}
