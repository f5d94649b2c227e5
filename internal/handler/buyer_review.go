package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// ReviewHandler lets buyers review packages they have actually
// booked.  Reviews are created published; admins can unpublish
// through the moderation endpoints.
type ReviewHandler struct {
	ReviewRepo  *repository.ReviewRepo
	BookingRepo *repository.BookingRepo
	PackageRepo *repository.PackageRepo
}

func NewReviewHandler(r *repository.ReviewRepo, b *repository.BookingRepo, p *repository.PackageRepo) *ReviewHandler {
	if r == nil || b == nil || p == nil {
		panic("nil repository passed to NewReviewHandler")
	}
	return &ReviewHandler{ReviewRepo: r, BookingRepo: b, PackageRepo: p}
}

type createReviewReq struct {
	BookingID uint64 `json:"booking_id"`
	Rating    uint8  `json:"rating"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// Create handles POST /v1/packages/:id/reviews.  The buyer must own
// a paid or completed booking for the package; one review per buyer
// per package.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content is required"})
	}

	ctx := c.Request().Context()

	pkg, err := h.PackageRepo.GetByID(ctx, pkgID)
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	eligible, err := h.BookingRepo.HasCompletedForPackage(ctx, userID, pkgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !eligible {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only travellers with a paid booking can review"})
	}

	if req.BookingID != 0 {
		b, err := h.BookingRepo.GetByIDForUser(ctx, req.BookingID, userID)
		if err != nil || b.PackageID != pkgID {
			if err == payment.ErrBookingNotFound || (err == nil && b.PackageID != pkgID) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking does not match package"})
			}
			if err == repository.ErrForbidden {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	rv := model.Review{
		UserID:      userID,
		PackageID:   pkgID,
		BookingID:   req.BookingID,
		Rating:      req.Rating,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		IsPublished: true,
	}
	if err := h.ReviewRepo.Create(ctx, &rv, pkg.DestinationID); err != nil {
		if err == repository.ErrReviewExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "package already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"review_id": rv.ID})
}

// Mine handles GET /v1/my-reviews.
func (h *ReviewHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.ReviewRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reviews"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
