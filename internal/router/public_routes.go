package router

import (
	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/handler"
)

// RegisterPublic registers the unauthenticated browse and search
// endpoints.  The optional middleware (typically the Redis response
// cache) is applied to the whole group; these endpoints serve the
// same payload to every guest, so caching them is safe.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, pay *handler.PaymentHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)

	// Geographic catalog.
	g.GET("/regions", p.GetRegions)
	g.GET("/regions/:slug", p.GetRegionBySlug)
	g.GET("/destinations/:slug", p.GetDestinationBySlug)
	g.GET("/interests", p.GetInterests)
	g.GET("/featured", p.GetFeatured)

	// Packages.
	g.GET("/packages/:slug", p.GetPackageBySlug)
	g.GET("/packages/:slug/reviews", p.GetPackageReviews)
	g.GET("/search/packages", p.SearchPackages)

	// The gateway webhook authenticates with its signature header, not
	// a JWT, and must never be cached.
	e.POST("/v1/payments/webhook", pay.Webhook)
}
