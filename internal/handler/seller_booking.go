package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// ListBookings handles GET /v1/seller/bookings, optionally filtered
// by ?status=.
func (h *SellerHandler) ListBookings(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := c.QueryParam("status")
	switch status {
	case "", model.BookingStatusPending, model.BookingStatusConfirmed,
		model.BookingStatusPaid, model.BookingStatusCompleted,
		model.BookingStatusCancelled, model.BookingStatusRefunded:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	items, err := h.BookingRepo.ListForSeller(c.Request().Context(), sellerID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ConfirmBooking handles POST /v1/seller/bookings/:id/confirm.  Only
// pending bookings on the seller's own packages can be confirmed.
func (h *SellerHandler) ConfirmBooking(c echo.Context) error {
	b, done := h.ownedBooking(c)
	if done {
		return nil
	}
	if err := h.BookingRepo.Confirm(c.Request().Context(), b.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm booking"})
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteBooking handles POST /v1/seller/bookings/:id/complete,
// marking a paid booking as travelled.
func (h *SellerHandler) CompleteBooking(c echo.Context) error {
	b, done := h.ownedBooking(c)
	if done {
		return nil
	}
	if err := h.BookingRepo.Complete(c.Request().Context(), b.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not paid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to complete booking"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedBooking loads the :id booking and verifies the caller sells
// the booked package.  When it returns done=true a response has
// already been written.
func (h *SellerHandler) ownedBooking(c echo.Context) (model.Booking, bool) {
	sellerID, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return model.Booking{}, true
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
		return model.Booking{}, true
	}
	ctx := c.Request().Context()

	b, err := h.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, payment.ErrBookingNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
		}
		return model.Booking{}, true
	}
	if _, err := h.PackageRepo.GetOwned(ctx, b.PackageID, sellerID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify ownership"})
		}
		return model.Booking{}, true
	}
	return b, false
}

// Dashboard handles GET /v1/seller/dashboard: aggregate package,
// booking and revenue figures for the caller.
func (h *SellerHandler) Dashboard(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stats, err := h.ActivityRepo.SellerDashboard(c.Request().Context(), sellerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	return c.JSON(http.StatusOK, stats)
}
