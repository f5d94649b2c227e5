package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/handler"
	"github.com/tripio/travel-marketplace/internal/middleware"
	"github.com/tripio/travel-marketplace/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin:
// user moderation, the geographic catalog, curation and the platform
// dashboard.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.PUT("/users/:id/active", a.SetUserActive)
	g.PUT("/users/:id/verify-seller", a.VerifySeller)

	// ---- Catalog ----
	g.POST("/regions", a.CreateRegion)
	g.PUT("/regions/:id", a.UpdateRegion)
	g.POST("/destinations", a.CreateDestination)
	g.PUT("/destinations/:id", a.UpdateDestination)

	// ---- Curation & moderation ----
	g.PUT("/packages/:id/feature", a.FeaturePackage)
	g.PUT("/reviews/:id/publish", a.ModerateReview)

	// ---- Analytics ----
	g.GET("/dashboard", a.Dashboard)
	g.GET("/top-searches", a.TopSearches)
}
