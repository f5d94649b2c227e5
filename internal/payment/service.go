package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tripio/travel-marketplace/internal/model"
)

// Store errors.  Repository adapters translate their own not-found
// conditions into these sentinels so the status machine can reason
// about them without knowing the persistence technology.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// Status machine errors.
var (
	// ErrInvalidTransition is returned when a requested state change
	// does not follow pending→{completed|failed} or
	// completed→refunded.  Nothing is mutated.
	ErrInvalidTransition = errors.New("invalid payment state transition")
	// ErrBookingNotPayable is returned when an intent is requested
	// for a booking that is not awaiting payment.
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
	// ErrAlreadyPaid is returned when a booking already has a
	// completed payment; retries must not double-charge.
	ErrAlreadyPaid = errors.New("booking already has a completed payment")
	// ErrRefundExceedsAmount is returned when a partial refund asks
	// for more than the original charge.
	ErrRefundExceedsAmount = errors.New("refund amount exceeds original payment")
)

// PaymentStore is the persistence contract the status machine needs
// for payments.  *repository.PaymentRepo satisfies it in production.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id uint64) (model.Payment, error)
	// GetByTransactionID looks a payment up by the gateway's intent
	// id.  Webhook events are keyed by this correlation id; the
	// gateway never learns our internal payment id.
	GetByTransactionID(ctx context.Context, transactionID string) (model.Payment, error)
	// UpdateStatus moves a payment to the given status.  A non-nil
	// gatewayResponse replaces the stored response payload.
	UpdateStatus(ctx context.Context, id uint64, status string, gatewayResponse []byte) error
	// HasCompleted reports whether any payment for the booking has
	// already completed.
	HasCompleted(ctx context.Context, bookingID uint64) (bool, error)
}

// BookingStore is the slice of booking persistence the status
// machine projects payment outcomes onto.
type BookingStore interface {
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error
	MarkRefunded(ctx context.Context, id uint64) error
}

// Service coordinates the gateway client, the payment records and
// the owning bookings.  It is stateless; every dependency is
// injected so tests can run it against in-memory fakes.
type Service struct {
	Gateway  Gateway
	Payments PaymentStore
	Bookings BookingStore
	// OnBookingPaid, when set, runs after a booking transitions to
	// paid.  Failures there must not affect the payment flow, so the
	// hook has no error return.  Wired to the queue publisher in main.
	OnBookingPaid func(ctx context.Context, b model.Booking, p model.Payment)
	// Now supplies the clock; nil means time.Now.  Booking paid_at
	// uses receipt time, never a gateway-reported timestamp.
	Now func() time.Time
}

// NewService constructs a Service.  Gateway and both stores are
// required.
func NewService(gw Gateway, payments PaymentStore, bookings BookingStore) *Service {
	if gw == nil || payments == nil || bookings == nil {
		panic("nil dependency passed to payment.NewService")
	}
	return &Service{Gateway: gw, Payments: payments, Bookings: bookings}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// IntentResult is returned to the buyer after an intent is created.
// The client secret lets the browser complete the charge directly
// with the gateway.
type IntentResult struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    uint64 `json:"payment_id"`
}

// CreateIntent registers a gateway charge for the booking's total
// price and persists a pending Payment correlated to the returned
// intent id.  Gateway failures surface as *GatewayError with no
// local record created.
func (s *Service) CreateIntent(ctx context.Context, bookingID uint64) (IntentResult, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return IntentResult{}, err
	}
	if b.Status != model.BookingStatusPending && b.Status != model.BookingStatusConfirmed {
		return IntentResult{}, ErrBookingNotPayable
	}
	done, err := s.Payments.HasCompleted(ctx, b.ID)
	if err != nil {
		return IntentResult{}, err
	}
	if done {
		return IntentResult{}, ErrAlreadyPaid
	}

	intent, err := s.Gateway.CreateIntent(ctx, b.TotalPriceCents, strings.ToLower(b.Currency), map[string]string{
		"booking_id":     strconv.FormatUint(b.ID, 10),
		"reference_code": b.ReferenceCode,
		"user_id":        strconv.FormatUint(b.UserID, 10),
	})
	if err != nil {
		return IntentResult{}, err
	}

	resp, _ := json.Marshal(map[string]string{
		"id":            intent.ID,
		"client_secret": intent.ClientSecret,
	})
	p := model.Payment{
		BookingID:       b.ID,
		AmountCents:     b.TotalPriceCents,
		Currency:        b.Currency,
		Method:          model.PaymentMethodCard,
		Status:          model.PaymentStatusPending,
		TransactionID:   intent.ID,
		GatewayResponse: resp,
	}
	if err := s.Payments.Create(ctx, &p); err != nil {
		return IntentResult{}, err
	}
	return IntentResult{ClientSecret: intent.ClientSecret, PaymentID: p.ID}, nil
}

// Webhook dispatch outcomes, mirrored in the HTTP response body.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeIgnored = "ignored"
	OutcomeError   = "error"
)

// WebhookResult is the structured answer the dispatcher returns for
// every delivery.  It is always a value, never a panic: webhook
// processing must not crash the enclosing request handler.
type WebhookResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	PaymentID uint64 `json:"payment_id,omitempty"`
	BookingID uint64 `json:"booking_id,omitempty"`
}

// HandleEvent routes a parsed webhook event to the matching
// transition.  Unrecognised event types are acknowledged and
// ignored; the gateway may introduce types we do not handle yet.
func (s *Service) HandleEvent(ctx context.Context, ev Event) WebhookResult {
	switch ev.Type {
	case EventIntentSucceeded:
		return s.applySucceeded(ctx, ev.ObjectID)
	case EventIntentFailed:
		return s.applyFailed(ctx, ev.ObjectID)
	default:
		return WebhookResult{Status: OutcomeIgnored, Message: "event " + ev.Type + " not handled"}
	}
}

// applySucceeded moves pending→completed and projects the outcome
// onto the booking (status paid, paid_at = receipt time).  The
// idempotency key is (correlation id, event type): a re-delivered
// succeeded event for an already-completed payment is a no-op
// success, not an error.
func (s *Service) applySucceeded(ctx context.Context, intentID string) WebhookResult {
	p, err := s.Payments.GetByTransactionID(ctx, intentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// Either the webhook raced our own commit or the event
			// belongs to someone else.  Report, don't crash.
			log.Printf("payment: no payment for intent %s", intentID)
			return WebhookResult{Status: OutcomeError, Message: "Payment not found"}
		}
		log.Printf("payment: lookup for intent %s failed: %v", intentID, err)
		return WebhookResult{Status: OutcomeError, Message: "payment lookup failed"}
	}

	switch p.Status {
	case model.PaymentStatusCompleted, model.PaymentStatusRefunded:
		// Already applied (and possibly already refunded since).
		return WebhookResult{Status: OutcomeSuccess, Message: "already processed", PaymentID: p.ID, BookingID: p.BookingID}
	case model.PaymentStatusFailed:
		// failed is terminal; a late success must not resurrect it.
		log.Printf("payment: success event for failed payment %d ignored", p.ID)
		return WebhookResult{Status: OutcomeError, Message: ErrInvalidTransition.Error(), PaymentID: p.ID}
	}

	if err := s.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusCompleted, nil); err != nil {
		log.Printf("payment: completing payment %d failed: %v", p.ID, err)
		return WebhookResult{Status: OutcomeError, Message: "failed to update payment"}
	}
	paidAt := s.now()
	if err := s.Bookings.MarkPaid(ctx, p.BookingID, paidAt); err != nil {
		log.Printf("payment: marking booking %d paid failed: %v", p.BookingID, err)
		return WebhookResult{Status: OutcomeError, Message: "failed to update booking"}
	}
	if s.OnBookingPaid != nil {
		if b, err := s.Bookings.GetByID(ctx, p.BookingID); err == nil {
			p.Status = model.PaymentStatusCompleted
			s.OnBookingPaid(ctx, b, p)
		}
	}
	return WebhookResult{Status: OutcomeSuccess, PaymentID: p.ID, BookingID: p.BookingID}
}

// applyFailed moves pending→failed.  The booking is left untouched
// so the buyer can retry with a fresh payment.
func (s *Service) applyFailed(ctx context.Context, intentID string) WebhookResult {
	p, err := s.Payments.GetByTransactionID(ctx, intentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			log.Printf("payment: no payment for intent %s", intentID)
			return WebhookResult{Status: OutcomeError, Message: "Payment not found"}
		}
		log.Printf("payment: lookup for intent %s failed: %v", intentID, err)
		return WebhookResult{Status: OutcomeError, Message: "payment lookup failed"}
	}

	switch p.Status {
	case model.PaymentStatusFailed:
		return WebhookResult{Status: OutcomeFailed, Message: "already processed", PaymentID: p.ID, BookingID: p.BookingID}
	case model.PaymentStatusCompleted, model.PaymentStatusRefunded:
		// A failure event cannot undo a completed charge.
		log.Printf("payment: failure event for %s payment %d ignored", p.Status, p.ID)
		return WebhookResult{Status: OutcomeError, Message: ErrInvalidTransition.Error(), PaymentID: p.ID}
	}

	if err := s.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusFailed, nil); err != nil {
		log.Printf("payment: failing payment %d failed: %v", p.ID, err)
		return WebhookResult{Status: OutcomeError, Message: "failed to update payment"}
	}
	return WebhookResult{Status: OutcomeFailed, PaymentID: p.ID, BookingID: p.BookingID}
}

// RefundResult reports a processed refund.
type RefundResult struct {
	RefundID  string `json:"refund_id"`
	PaymentID uint64 `json:"payment_id"`
	BookingID uint64 `json:"booking_id"`
}

// Refund reverses a completed payment through the gateway and, on
// confirmation, marks both the payment and its booking refunded.
// amountCents nil refunds the full original amount; an explicit
// amount must be positive and no larger than the original charge.
// Refunds are invoked synchronously by an authorised actor, never by
// webhook.
func (s *Service) Refund(ctx context.Context, paymentID uint64, amountCents *int64, reason string) (RefundResult, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return RefundResult{}, err
	}
	if p.Status != model.PaymentStatusCompleted {
		return RefundResult{}, ErrInvalidTransition
	}

	amount := p.AmountCents
	if amountCents != nil {
		if *amountCents <= 0 || *amountCents > p.AmountCents {
			return RefundResult{}, ErrRefundExceedsAmount
		}
		amount = *amountCents
	}
	if reason == "" {
		reason = "requested_by_customer"
	}

	ref, err := s.Gateway.CreateRefund(ctx, p.TransactionID, amount, reason)
	if err != nil {
		return RefundResult{}, err
	}

	// Merge the refund confirmation into the stored gateway payload
	// so the full history stays on the record.
	merged := map[string]any{}
	if len(p.GatewayResponse) > 0 {
		_ = json.Unmarshal(p.GatewayResponse, &merged)
	}
	merged["refund"] = map[string]any{
		"id":     ref.ID,
		"amount": ref.Amount,
		"status": ref.Status,
	}
	resp, _ := json.Marshal(merged)

	if err := s.Payments.UpdateStatus(ctx, p.ID, model.PaymentStatusRefunded, resp); err != nil {
		return RefundResult{}, err
	}
	if err := s.Bookings.MarkRefunded(ctx, p.BookingID); err != nil {
		return RefundResult{}, err
	}
	return RefundResult{RefundID: ref.ID, PaymentID: p.ID, BookingID: p.BookingID}, nil
}
