package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/repository"
)

const dateLayout = "2006-01-02"

type availabilityReq struct {
	StartDate      string  `json:"start_date"` // YYYY-MM-DD
	EndDate        string  `json:"end_date"`
	AvailableSlots uint32  `json:"available_slots"`
	IsAvailable    *bool   `json:"is_available"`
	SpecialPrice   float64 `json:"special_price"` // major units, 0 = none
}

func (r availabilityReq) toModel() (model.Availability, string) {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return model.Availability{}, "start_date must be YYYY-MM-DD"
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return model.Availability{}, "end_date must be YYYY-MM-DD"
	}
	if end.Before(start) {
		return model.Availability{}, "end_date must not precede start_date"
	}
	if r.SpecialPrice < 0 {
		return model.Availability{}, "special_price must not be negative"
	}
	a := model.Availability{
		StartDate:      start,
		EndDate:        end,
		AvailableSlots: r.AvailableSlots,
		IsAvailable:    true,
	}
	if r.IsAvailable != nil {
		a.IsAvailable = *r.IsAvailable
	}
	if r.SpecialPrice > 0 {
		p := toCents(r.SpecialPrice)
		a.SpecialPriceCents = &p
	}
	return a, ""
}

// CreateAvailability handles POST /v1/seller/packages/:id/availabilities.
func (h *SellerHandler) CreateAvailability(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if a.AvailableSlots == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "available_slots must be at least 1"})
	}
	a.PackageID = pkgID

	if err := h.AvailabilityRepo.Create(c.Request().Context(), &a, sellerID); err != nil {
		return sellerPackageError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"availability_id": a.ID})
}

// ListAvailabilities handles GET /v1/seller/packages/:id/availabilities.
// Sellers see closed windows too.
func (h *SellerHandler) ListAvailabilities(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	ctx := c.Request().Context()

	if _, err := h.PackageRepo.GetOwned(ctx, pkgID, sellerID); err != nil {
		return sellerPackageError(c, err)
	}
	items, err := h.AvailabilityRepo.ListByPackage(ctx, pkgID, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availabilities"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateAvailability handles PUT /v1/seller/availabilities/:id.
func (h *SellerHandler) UpdateAvailability(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	availID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid availability id"})
	}
	var req availabilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	a.ID = availID

	if err := h.AvailabilityRepo.Update(c.Request().Context(), a, sellerID); err != nil {
		if errors.Is(err, repository.ErrAvailabilityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "availability not found"})
		}
		return sellerPackageError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
