package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// SellerHandler bundles repositories for sellers to manage their
// packages, itineraries and departure windows.  Ownership is enforced
// in the repository layer; this handler translates sentinel errors to
// HTTP statuses.
type SellerHandler struct {
	PackageRepo      *repository.PackageRepo
	AvailabilityRepo *repository.AvailabilityRepo
	DestinationRepo  *repository.DestinationRepo
	BookingRepo      *repository.BookingRepo
	ActivityRepo     *repository.ActivityRepo
}

// NewSellerHandler constructs a new SellerHandler and panics if any
// dependency is nil.
func NewSellerHandler(p *repository.PackageRepo, a *repository.AvailabilityRepo, d *repository.DestinationRepo, b *repository.BookingRepo, act *repository.ActivityRepo) *SellerHandler {
	if p == nil || a == nil || d == nil || b == nil || act == nil {
		panic("nil repository passed to NewSellerHandler")
	}
	return &SellerHandler{PackageRepo: p, AvailabilityRepo: a, DestinationRepo: d, BookingRepo: b, ActivityRepo: act}
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a title to a URL-safe slug.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugCleaner.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type packageReq struct {
	DestinationID      uint64  `json:"destination_id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	ShortDescription   string  `json:"short_description"`
	DurationDays       uint32  `json:"duration_days"`
	MaxTravelers       uint32  `json:"max_travelers"`
	TransportationType string  `json:"transportation_type"`
	DifficultyLevel    string  `json:"difficulty_level"`
	BasePrice          float64 `json:"base_price"`     // major units
	DiscountPrice      float64 `json:"discount_price"` // major units, 0 = none
	Currency           string  `json:"currency"`
	WhatIsIncluded     string  `json:"what_is_included"`
	WhatIsExcluded     string  `json:"what_is_excluded"`
	MainImageURL       string  `json:"main_image_url"`
	IsActive           *bool   `json:"is_active"`
}

func (r packageReq) validate() string {
	if r.DestinationID == 0 {
		return "destination_id is required"
	}
	if strings.TrimSpace(r.Title) == "" {
		return "title is required"
	}
	if r.DurationDays == 0 {
		return "duration_days must be at least 1"
	}
	if r.MaxTravelers == 0 {
		return "max_travelers must be at least 1"
	}
	if r.BasePrice <= 0 {
		return "base_price must be positive"
	}
	if r.DiscountPrice < 0 || (r.DiscountPrice > 0 && r.DiscountPrice >= r.BasePrice) {
		return "discount_price must be below base_price"
	}
	return ""
}

func (r packageReq) apply(p *model.Package) {
	p.DestinationID = r.DestinationID
	p.Title = strings.TrimSpace(r.Title)
	p.Description = r.Description
	p.ShortDescription = strings.TrimSpace(r.ShortDescription)
	p.DurationDays = r.DurationDays
	p.MaxTravelers = r.MaxTravelers
	p.TransportationType = strings.ToLower(strings.TrimSpace(r.TransportationType))
	if p.TransportationType == "" {
		p.TransportationType = model.TransportNone
	}
	p.DifficultyLevel = strings.ToLower(strings.TrimSpace(r.DifficultyLevel))
	if p.DifficultyLevel == "" {
		p.DifficultyLevel = model.DifficultyModerate
	}
	p.BasePriceCents = toCents(r.BasePrice)
	p.DiscountPriceCents = nil
	if r.DiscountPrice > 0 {
		d := toCents(r.DiscountPrice)
		p.DiscountPriceCents = &d
	}
	p.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.WhatIsIncluded = r.WhatIsIncluded
	p.WhatIsExcluded = r.WhatIsExcluded
	p.MainImageURL = strings.TrimSpace(r.MainImageURL)
	p.IsActive = true
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// CreatePackage handles POST /v1/seller/packages.
func (h *SellerHandler) CreatePackage(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	if _, err := h.DestinationRepo.GetByID(ctx, req.DestinationID); err != nil {
		if err == repository.ErrDestinationNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "destination not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	pkg := model.Package{SellerID: sellerID, Slug: slugify(req.Title)}
	req.apply(&pkg)

	if err := h.PackageRepo.Create(ctx, &pkg); err != nil {
		if err == repository.ErrSlugExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a package with this title already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create package"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"package_id": pkg.ID, "slug": pkg.Slug})
}

// ListPackages handles GET /v1/seller/packages, including inactive
// ones.
func (h *SellerHandler) ListPackages(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.PackageRepo.ListBySeller(c.Request().Context(), sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load packages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdatePackage handles PUT /v1/seller/packages/:id.
func (h *SellerHandler) UpdatePackage(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	pkg := model.Package{ID: pkgID}
	req.apply(&pkg)

	if err := h.PackageRepo.Update(c.Request().Context(), pkg, sellerID); err != nil {
		return sellerPackageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeletePackage handles DELETE /v1/seller/packages/:id.  Packages
// that have been booked cannot be removed; deactivate them instead.
func (h *SellerHandler) DeletePackage(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	if err := h.PackageRepo.Delete(c.Request().Context(), pkgID, sellerID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "package has bookings; deactivate it instead"})
		}
		return sellerPackageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type itineraryReq struct {
	Days []struct {
		Day           uint32 `json:"day"`
		Title         string `json:"title"`
		Description   string `json:"description"`
		Accommodation string `json:"accommodation"`
		MealsIncluded string `json:"meals_included"`
	} `json:"days"`
}

// ReplaceItinerary handles PUT /v1/seller/packages/:id/itinerary.
// The full day list is replaced atomically.
func (h *SellerHandler) ReplaceItinerary(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req itineraryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	days := make([]model.ItineraryDay, 0, len(req.Days))
	seen := map[uint32]bool{}
	for _, d := range req.Days {
		if d.Day == 0 || strings.TrimSpace(d.Title) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each day needs a positive day number and a title"})
		}
		if seen[d.Day] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate day number"})
		}
		seen[d.Day] = true
		days = append(days, model.ItineraryDay{
			PackageID:     pkgID,
			Day:           d.Day,
			Title:         strings.TrimSpace(d.Title),
			Description:   d.Description,
			Accommodation: strings.TrimSpace(d.Accommodation),
			MealsIncluded: strings.TrimSpace(d.MealsIncluded),
		})
	}

	if err := h.PackageRepo.ReplaceItinerary(c.Request().Context(), pkgID, sellerID, days); err != nil {
		return sellerPackageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sellerPackageError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrPackageNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
	}
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
