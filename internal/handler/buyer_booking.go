package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"strings"  // trimming request fields
	"time"     // parsing traveller birth dates

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
	"github.com/tripio/travel-marketplace/internal/repository"
	"github.com/tripio/travel-marketplace/internal/utils"
)

// BookingHandler groups repositories required to create, list and
// cancel bookings on behalf of buyers.  All methods assume that JWT
// authentication and role validation has already been performed by
// middleware.  Booking creation runs inside a transaction so the slot
// decrement and the booking insert commit or roll back together.
type BookingHandler struct {
	BookingRepo      *repository.BookingRepo      // bookings and travellers
	PackageRepo      *repository.PackageRepo      // package lookups for pricing
	AvailabilityRepo *repository.AvailabilityRepo // slot inventory
	PaymentRepo      *repository.PaymentRepo      // payment history per booking
}

// NewBookingHandler constructs a BookingHandler.  All dependencies
// must be non-nil.
func NewBookingHandler(b *repository.BookingRepo, p *repository.PackageRepo, a *repository.AvailabilityRepo, pay *repository.PaymentRepo) *BookingHandler {
	if b == nil || p == nil || a == nil || pay == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{BookingRepo: b, PackageRepo: p, AvailabilityRepo: a, PaymentRepo: pay}
}

type travelerReq struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"date_of_birth"` // YYYY-MM-DD
	Gender         string `json:"gender"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
}

type createBookingReq struct {
	PackageID           uint64        `json:"package_id"`
	AvailabilityID      uint64        `json:"availability_id"`
	NumTravelers        uint32        `json:"num_travelers"`
	ContactName         string        `json:"contact_name"`
	ContactEmail        string        `json:"contact_email"`
	ContactPhone        string        `json:"contact_phone"`
	SpecialRequirements string        `json:"special_requirements"`
	Travelers           []travelerReq `json:"travelers"`
}

// Create handles POST /v1/bookings.  It prices the booking from the
// package (or the window's special price), reserves the requested
// slots and inserts the booking plus traveller records in a single
// transaction.  The total is always unit price × traveller count,
// computed server side.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.PackageID == 0 || req.AvailabilityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id and availability_id are required"})
	}
	if req.NumTravelers == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "num_travelers must be at least 1"})
	}
	if strings.TrimSpace(req.ContactName) == "" || strings.TrimSpace(req.ContactEmail) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact_name and contact_email are required"})
	}

	ctx := c.Request().Context()

	pkg, err := h.PackageRepo.GetByID(ctx, req.PackageID)
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !pkg.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
	}
	if req.NumTravelers > pkg.MaxTravelers {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "num_travelers exceeds package maximum"})
	}

	avail, err := h.AvailabilityRepo.GetByID(ctx, req.AvailabilityID)
	if err != nil {
		if err == repository.ErrAvailabilityNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "availability not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if avail.PackageID != pkg.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "availability does not belong to package"})
	}

	// Per-traveller price: window special price wins over the package
	// price.  Captured at booking time; later package edits do not
	// reprice existing bookings.
	unitPrice := pkg.CurrentPriceCents()
	if avail.SpecialPriceCents != nil && *avail.SpecialPriceCents > 0 {
		unitPrice = *avail.SpecialPriceCents
	}

	travelers, err := parseTravelers(req.Travelers)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	// Reference codes are random; retry a few times on the rare
	// collision before giving up.
	var ref string
	for attempt := 0; attempt < 5; attempt++ {
		ref, err = utils.NewBookingReference()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate reference"})
		}
		taken, err := h.BookingRepo.ReferenceExists(ctx, ref)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !taken {
			break
		}
		ref = ""
	}
	if ref == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate reference"})
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.AvailabilityRepo.DecrementSlotsTx(ctx, tx, avail.ID, req.NumTravelers); err != nil {
		if errors.Is(err, repository.ErrInsufficientSlots) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "not enough available slots"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve slots"})
	}

	booking := model.Booking{
		ReferenceCode:       ref,
		UserID:              userID,
		PackageID:           pkg.ID,
		AvailabilityID:      avail.ID,
		Status:              model.BookingStatusPending,
		NumTravelers:        req.NumTravelers,
		ContactName:         strings.TrimSpace(req.ContactName),
		ContactEmail:        strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:        strings.TrimSpace(req.ContactPhone),
		SpecialRequirements: req.SpecialRequirements,
		UnitPriceCents:      unitPrice,
		Currency:            pkg.Currency,
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, &booking, travelers); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":        booking.ID,
		"reference_code":    booking.ReferenceCode,
		"status":            booking.Status,
		"unit_price_cents":  booking.UnitPriceCents,
		"total_price_cents": booking.TotalPriceCents,
		"currency":          booking.Currency,
	})
}

func parseTravelers(reqs []travelerReq) ([]model.Traveler, error) {
	out := make([]model.Traveler, 0, len(reqs))
	for _, t := range reqs {
		if strings.TrimSpace(t.FirstName) == "" || strings.TrimSpace(t.LastName) == "" {
			return nil, errors.New("traveler first_name and last_name are required")
		}
		rec := model.Traveler{
			FirstName:      strings.TrimSpace(t.FirstName),
			LastName:       strings.TrimSpace(t.LastName),
			Email:          strings.TrimSpace(t.Email),
			Phone:          strings.TrimSpace(t.Phone),
			Gender:         strings.ToUpper(strings.TrimSpace(t.Gender)),
			PassportNumber: strings.TrimSpace(t.PassportNumber),
			Nationality:    strings.TrimSpace(t.Nationality),
		}
		if t.DateOfBirth != "" {
			dob, err := time.Parse("2006-01-02", t.DateOfBirth)
			if err != nil {
				return nil, errors.New("invalid traveler date_of_birth, expected YYYY-MM-DD")
			}
			rec.DateOfBirth = &dob
		}
		out = append(out, rec)
	}
	return out, nil
}

// List handles GET /v1/my-bookings.  It returns all bookings created
// by the current user, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id.  It returns one booking with its
// travellers and payment history.  404 when missing, 403 when owned
// by someone else.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()

	b, err := h.BookingRepo.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, payment.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}

	travelers, err := h.BookingRepo.ListTravelers(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load travelers"})
	}
	payments, err := h.PaymentRepo.ListByBooking(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load payments"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":      b,
		"travelers": travelers,
		"payments":  payments,
	})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/bookings/:id/cancel.  Only pending or
// confirmed bookings can be cancelled; paid bookings go through the
// refund flow.  The reserved slots are restored in the same
// transaction as the status change.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req cancelReq
	_ = c.Bind(&req)

	ctx := c.Request().Context()

	b, err := h.BookingRepo.GetByIDForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, payment.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if !b.CanCancel() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer be cancelled"})
	}

	tx, err := h.BookingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.BookingRepo.CancelTx(ctx, tx, b.ID, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking can no longer be cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	if err := h.AvailabilityRepo.RestoreSlotsTx(ctx, tx, b.AvailabilityID, b.NumTravelers); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to restore slots"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
