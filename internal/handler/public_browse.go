// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse regions, destinations and packages without
// requiring authentication. Sensitive fields (seller contact data, internal
// flags) are filtered from responses.

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	RegionRepo       *repository.RegionRepo       // provides access to region data
	DestinationRepo  *repository.DestinationRepo  // provides access to destination data
	PackageRepo      *repository.PackageRepo      // provides access to package data
	AvailabilityRepo *repository.AvailabilityRepo // provides access to departure windows
	ReviewRepo       *repository.ReviewRepo       // provides access to published reviews
}

// PublicRegion represents a region exposed via the public API.
type PublicRegion struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Code        string  `json:"code,omitempty"`
	ParentID    *uint64 `json:"parent_id,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// PublicDestination represents a destination exposed via the public API.
type PublicDestination struct {
	ID               uint64  `json:"id"`
	RegionID         uint64  `json:"region_id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Description      string  `json:"description,omitempty"`
	ShortDescription string  `json:"short_description,omitempty"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Address          string  `json:"address,omitempty"`
	MainImageURL     string  `json:"main_image_url,omitempty"`
	AverageRating    float64 `json:"average_rating"`
	ReviewCount      uint32  `json:"review_count"`
}

// PublicAvailability is a bookable departure window in public views.
type PublicAvailability struct {
	ID             uint64  `json:"id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	AvailableSlots uint32  `json:"available_slots"`
	PriceCents     int64   `json:"price_cents"`
	Price          float64 `json:"price"`
}

// PublicPackageDetail is the full public view of one package.
type PublicPackageDetail struct {
	ID                 uint64               `json:"id"`
	Title              string               `json:"title"`
	Slug               string               `json:"slug"`
	Description        string               `json:"description"`
	ShortDescription   string               `json:"short_description"`
	DurationDays       uint32               `json:"duration_days"`
	MaxTravelers       uint32               `json:"max_travelers"`
	TransportationType string               `json:"transportation_type"`
	DifficultyLevel    string               `json:"difficulty_level"`
	PriceCents         int64                `json:"price_cents"`
	Price              float64              `json:"price"`
	BasePriceCents     int64                `json:"base_price_cents"`
	DiscountPercent    int                  `json:"discount_percent,omitempty"`
	Currency           string               `json:"currency"`
	WhatIsIncluded     string               `json:"what_is_included,omitempty"`
	WhatIsExcluded     string               `json:"what_is_excluded,omitempty"`
	MainImageURL       string               `json:"main_image_url,omitempty"`
	AverageRating      float64              `json:"average_rating"`
	ReviewCount        uint32               `json:"review_count"`
	Destination        *PublicDestination   `json:"destination,omitempty"`
	Itinerary          []model.ItineraryDay `json:"itinerary"`
	Availabilities     []PublicAvailability `json:"availabilities"`
}

func publicRegion(r model.Region) PublicRegion {
	return PublicRegion{
		ID: r.ID, Name: r.Name, Slug: r.Slug, Code: r.Code,
		ParentID: r.ParentID, Description: r.Description, ImageURL: r.ImageURL,
	}
}

func publicDestination(d model.Destination) PublicDestination {
	return PublicDestination{
		ID: d.ID, RegionID: d.RegionID, Name: d.Name, Slug: d.Slug,
		Description: d.Description, ShortDescription: d.ShortDescription,
		Latitude: d.Latitude, Longitude: d.Longitude, Address: d.Address,
		MainImageURL: d.MainImageURL,
		AverageRating: d.AverageRating, ReviewCount: d.ReviewCount,
	}
}

// GetRegions returns root regions, or the children of ?parent_id.
func (h *PublicHandler) GetRegions(c echo.Context) error {
	ctx := c.Request().Context()

	var parentID *uint64
	if raw := c.QueryParam("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parent_id"})
		}
		parentID = &id
	}

	regions, err := h.RegionRepo.ListChildren(ctx, parentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicRegion, 0, len(regions))
	for _, r := range regions {
		out = append(out, publicRegion(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetRegionBySlug returns one region with its child regions and
// destinations.
func (h *PublicHandler) GetRegionBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	reg, err := h.RegionRepo.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == repository.ErrRegionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "region not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	children, err := h.RegionRepo.ListChildren(ctx, &reg.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	dests, err := h.DestinationRepo.ListByRegion(ctx, reg.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	childOut := make([]PublicRegion, 0, len(children))
	for _, r := range children {
		childOut = append(childOut, publicRegion(r))
	}
	destOut := make([]PublicDestination, 0, len(dests))
	for _, d := range dests {
		destOut = append(destOut, publicDestination(d))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"region":       publicRegion(reg),
		"children":     childOut,
		"destinations": destOut,
	})
}

// GetDestinationBySlug returns one destination with its active
// packages.
func (h *PublicHandler) GetDestinationBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.DestinationRepo.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == repository.ErrDestinationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "destination not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	items, total, err := h.PackageRepo.Search(ctx, repository.PackageSearchQuery{
		Destination: d.Name,
		Page:        1,
		PageSize:    50,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"destination":   publicDestination(d),
		"packages":      items,
		"package_total": total,
	})
}

// GetInterests lists the travel interest categories.
func (h *PublicHandler) GetInterests(c echo.Context) error {
	interests, err := h.RegionRepo.ListInterests(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": interests})
}

// GetFeatured returns the landing feed: featured regions,
// destinations and packages in one response.
func (h *PublicHandler) GetFeatured(c echo.Context) error {
	ctx := c.Request().Context()

	regions, err := h.RegionRepo.ListFeatured(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	dests, err := h.DestinationRepo.ListFeatured(ctx, 8)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pkgs, err := h.PackageRepo.ListFeatured(ctx, 8)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	regOut := make([]PublicRegion, 0, len(regions))
	for _, r := range regions {
		regOut = append(regOut, publicRegion(r))
	}
	destOut := make([]PublicDestination, 0, len(dests))
	for _, d := range dests {
		destOut = append(destOut, publicDestination(d))
	}
	pkgOut := make([]PublicPackageDetail, 0, len(pkgs))
	for _, p := range pkgs {
		pkgOut = append(pkgOut, publicPackageSummary(p))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"regions":      regOut,
		"destinations": destOut,
		"packages":     pkgOut,
	})
}

func publicPackageSummary(p model.Package) PublicPackageDetail {
	price := p.CurrentPriceCents()
	return PublicPackageDetail{
		ID: p.ID, Title: p.Title, Slug: p.Slug,
		ShortDescription: p.ShortDescription,
		DurationDays:     p.DurationDays, MaxTravelers: p.MaxTravelers,
		TransportationType: p.TransportationType, DifficultyLevel: p.DifficultyLevel,
		PriceCents: price, Price: float64(price) / 100.0,
		BasePriceCents: p.BasePriceCents, DiscountPercent: p.DiscountPercentage(),
		Currency: p.Currency, MainImageURL: p.MainImageURL,
		AverageRating: p.AverageRating, ReviewCount: p.ReviewCount,
	}
}

// GetPackageBySlug returns the full public detail of one package:
// description, itinerary, open departure windows and destination.
func (h *PublicHandler) GetPackageBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.PackageRepo.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	detail := publicPackageSummary(p)
	detail.Description = p.Description
	detail.WhatIsIncluded = p.WhatIsIncluded
	detail.WhatIsExcluded = p.WhatIsExcluded

	if d, err := h.DestinationRepo.GetByID(ctx, p.DestinationID); err == nil {
		pd := publicDestination(d)
		detail.Destination = &pd
	}

	itinerary, err := h.PackageRepo.ListItinerary(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	detail.Itinerary = itinerary

	avails, err := h.AvailabilityRepo.ListByPackage(ctx, p.ID, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	detail.Availabilities = make([]PublicAvailability, 0, len(avails))
	for _, a := range avails {
		price := p.CurrentPriceCents()
		if a.SpecialPriceCents != nil && *a.SpecialPriceCents > 0 {
			price = *a.SpecialPriceCents
		}
		detail.Availabilities = append(detail.Availabilities, PublicAvailability{
			ID:             a.ID,
			StartDate:      a.StartDate.Format("2006-01-02"),
			EndDate:        a.EndDate.Format("2006-01-02"),
			AvailableSlots: a.AvailableSlots,
			PriceCents:     price,
			Price:          float64(price) / 100.0,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// GetPackageReviews returns a page of a package's published reviews.
func (h *PublicHandler) GetPackageReviews(c echo.Context) error {
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	page, pageSize := pageParams(c)

	items, total, err := h.ReviewRepo.ListByPackage(c.Request().Context(), pkgID, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
