package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/payment"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// PaymentHandler exposes the payment flow over HTTP: intent creation
// for buyers, the gateway webhook endpoint and refunds for sellers
// and admins.  All state transitions live in the payment service; the
// handler only translates between HTTP and service results.
type PaymentHandler struct {
	Service       *payment.Service
	BookingRepo   *repository.BookingRepo
	PackageRepo   *repository.PackageRepo
	PaymentRepo   *repository.PaymentRepo
	WebhookSecret string
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies
// must be non-nil and the webhook secret non-empty.
func NewPaymentHandler(svc *payment.Service, b *repository.BookingRepo, p *repository.PackageRepo, pay *repository.PaymentRepo, webhookSecret string) *PaymentHandler {
	if svc == nil || b == nil || p == nil || pay == nil || webhookSecret == "" {
		panic("invalid dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Service: svc, BookingRepo: b, PackageRepo: p, PaymentRepo: pay, WebhookSecret: webhookSecret}
}

// CreateIntent handles POST /v1/bookings/:id/payment-intent.  Only
// the booking's owner can pay for it.  Returns the gateway client
// secret for the browser to complete the charge.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()

	b, err := h.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, payment.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	res, err := h.Service.CreateIntent(ctx, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrBookingNotPayable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not awaiting payment"})
		case errors.Is(err, payment.ErrAlreadyPaid):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already paid"})
		}
		var ge *payment.GatewayError
		if errors.As(err, &ge) {
			// Bubble the gateway's own error code to the client; the
			// local state was not touched.
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":   "payment gateway rejected the request",
				"code":    ge.Code,
				"message": ge.Message,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create payment intent"})
	}
	return c.JSON(http.StatusCreated, res)
}

// Webhook handles POST /v1/payments/webhook.  The body signature is
// verified against the shared secret before anything is parsed
// further; unsigned or stale deliveries are rejected with 400.
// Processing outcomes map to HTTP statuses: success/failed/ignored
// acknowledge with 200 so the gateway stops retrying, error answers
// 500 so the delivery is retried later.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	sig := c.Request().Header.Get(payment.SignatureHeader)
	if err := payment.VerifySignature(h.WebhookSecret, sig, body, payment.DefaultTolerance, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	res := h.Service.HandleEvent(c.Request().Context(), ev)
	status := http.StatusOK
	if res.Status == payment.OutcomeError {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, res)
}

type refundReq struct {
	Amount *int64 `json:"amount_cents"`
	Reason string `json:"reason"`
}

// Refund handles POST /v1/payments/:id/refund.  Sellers may refund
// payments on their own packages; admins may refund anything.  The
// amount defaults to the full original charge.
func (h *PaymentHandler) Refund(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	paymentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var req refundReq
	_ = c.Bind(&req)

	ctx := c.Request().Context()

	p, err := h.PaymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch payment"})
	}

	// Sellers can only touch payments for bookings on their own
	// packages.  Admin role skips the ownership check.
	if role, _ := c.Get("role").(string); role != "ADMIN" {
		b, err := h.BookingRepo.GetByID(ctx, p.BookingID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
		}
		if _, err := h.PackageRepo.GetOwned(ctx, b.PackageID, userID); err != nil {
			if errors.Is(err, repository.ErrForbidden) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify ownership"})
		}
	}

	res, err := h.Service.Refund(ctx, paymentID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "only completed payments can be refunded"})
		case errors.Is(err, payment.ErrRefundExceedsAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund amount exceeds original payment"})
		}
		var ge *payment.GatewayError
		if errors.As(err, &ge) {
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":   "payment gateway rejected the refund",
				"code":    ge.Code,
				"message": ge.Message,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process refund"})
	}
	return c.JSON(http.StatusOK, res)
}
