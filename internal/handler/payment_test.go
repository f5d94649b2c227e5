package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/payment"
)

// ---- in-memory fakes for the webhook path ----

type stubGateway struct{}

func (stubGateway) CreateIntent(context.Context, int64, string, map[string]string) (payment.Intent, error) {
	return payment.Intent{}, nil
}

func (stubGateway) CreateRefund(context.Context, string, int64, string) (payment.Refund, error) {
	return payment.Refund{}, nil
}

type memPayments struct {
	rows map[uint64]*model.Payment
}

func (m *memPayments) Create(_ context.Context, p *model.Payment) error {
	p.ID = uint64(len(m.rows) + 1)
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id uint64) (model.Payment, error) {
	p, ok := m.rows[id]
	if !ok {
		return model.Payment{}, payment.ErrPaymentNotFound
	}
	return *p, nil
}

func (m *memPayments) GetByTransactionID(_ context.Context, txID string) (model.Payment, error) {
	for _, p := range m.rows {
		if p.TransactionID == txID {
			return *p, nil
		}
	}
	return model.Payment{}, payment.ErrPaymentNotFound
}

func (m *memPayments) UpdateStatus(_ context.Context, id uint64, status string, resp []byte) error {
	p, ok := m.rows[id]
	if !ok {
		return payment.ErrPaymentNotFound
	}
	p.Status = status
	if resp != nil {
		p.GatewayResponse = resp
	}
	return nil
}

func (m *memPayments) HasCompleted(_ context.Context, bookingID uint64) (bool, error) {
	for _, p := range m.rows {
		if p.BookingID == bookingID && p.Status == model.PaymentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

type memBookings struct {
	rows map[uint64]*model.Booking
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := m.rows[id]
	if !ok {
		return model.Booking{}, payment.ErrBookingNotFound
	}
	return *b, nil
}

func (m *memBookings) MarkPaid(_ context.Context, id uint64, paidAt time.Time) error {
	b, ok := m.rows[id]
	if !ok {
		return payment.ErrBookingNotFound
	}
	b.Status = model.BookingStatusPaid
	b.PaidAt = &paidAt
	return nil
}

func (m *memBookings) MarkRefunded(_ context.Context, id uint64) error {
	b, ok := m.rows[id]
	if !ok {
		return payment.ErrBookingNotFound
	}
	b.Status = model.BookingStatusRefunded
	return nil
}

const testWebhookSecret = "whsec_test"

func newWebhookFixture() (*PaymentHandler, *memPayments, *memBookings) {
	pays := &memPayments{rows: map[uint64]*model.Payment{
		1: {ID: 1, BookingID: 7, AmountCents: 240000, Currency: "USD",
			Status: model.PaymentStatusPending, TransactionID: "pi_123"},
	}}
	books := &memBookings{rows: map[uint64]*model.Booking{
		7: {ID: 7, UserID: 3, PackageID: 9, NumTravelers: 2,
			UnitPriceCents: 120000, TotalPriceCents: 240000,
			Currency: "USD", Status: model.BookingStatusConfirmed},
	}}
	svc := payment.NewService(stubGateway{}, pays, books)
	h := &PaymentHandler{Service: svc, WebhookSecret: testWebhookSecret}
	return h, pays, books
}

func deliver(t *testing.T, h *PaymentHandler, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sign {
		req.Header.Set(payment.SignatureHeader,
			payment.SignPayload(testWebhookSecret, []byte(body), time.Now()))
	}
	rec := httptest.NewRecorder()
	if err := h.Webhook(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Webhook returned error: %v", err)
	}
	return rec
}

func succeededBody(intentID string) string {
	return fmt.Sprintf(`{"type":"payment_intent.succeeded","data":{"object":{"id":"%s"}}}`, intentID)
}

func TestWebhookRejectsUnsignedDelivery(t *testing.T) {
	h, pays, _ := newWebhookFixture()

	rec := deliver(t, h, succeededBody("pi_123"), false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if pays.rows[1].Status != model.PaymentStatusPending {
		t.Fatalf("payment mutated by unsigned delivery: %s", pays.rows[1].Status)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	h, _, _ := newWebhookFixture()

	e := echo.New()
	body := succeededBody("pi_123")
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	// Signature computed over a different body.
	req.Header.Set(payment.SignatureHeader,
		payment.SignPayload(testWebhookSecret, []byte(`{"type":"x"}`), time.Now()))
	rec := httptest.NewRecorder()
	if err := h.Webhook(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Webhook returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookCompletesPaymentAndBooking(t *testing.T) {
	h, pays, books := newWebhookFixture()

	rec := deliver(t, h, succeededBody("pi_123"), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var res payment.WebhookResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Status != payment.OutcomeSuccess {
		t.Fatalf("outcome = %q, want success", res.Status)
	}
	if got := pays.rows[1].Status; got != model.PaymentStatusCompleted {
		t.Fatalf("payment status = %q, want completed", got)
	}
	b := books.rows[7]
	if b.Status != model.BookingStatusPaid || b.PaidAt == nil {
		t.Fatalf("booking not projected: status=%q paidAt=%v", b.Status, b.PaidAt)
	}
}

func TestWebhookRedeliveryIsAcknowledged(t *testing.T) {
	h, pays, _ := newWebhookFixture()

	first := deliver(t, h, succeededBody("pi_123"), true)
	second := deliver(t, h, succeededBody("pi_123"), true)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200 for both", first.Code, second.Code)
	}
	if got := pays.rows[1].Status; got != model.PaymentStatusCompleted {
		t.Fatalf("payment status = %q after redelivery, want completed", got)
	}
}

func TestWebhookFailedEventLeavesBookingPayable(t *testing.T) {
	h, pays, books := newWebhookFixture()

	body := `{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123"}}}`
	rec := deliver(t, h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := pays.rows[1].Status; got != model.PaymentStatusFailed {
		t.Fatalf("payment status = %q, want failed", got)
	}
	if got := books.rows[7].Status; got != model.BookingStatusConfirmed {
		t.Fatalf("booking status = %q, want confirmed (untouched)", got)
	}
}

func TestWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	h, _, _ := newWebhookFixture()

	body := `{"type":"charge.dispute.created","data":{"object":{"id":"dp_1"}}}`
	rec := deliver(t, h, body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res payment.WebhookResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if res.Status != payment.OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", res.Status)
	}
}

func TestWebhookUnknownIntentAnswersServerError(t *testing.T) {
	h, _, _ := newWebhookFixture()

	rec := deliver(t, h, succeededBody("pi_unknown"), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the gateway retries", rec.Code)
	}
}

func TestWebhookMalformedBodyRejected(t *testing.T) {
	h, _, _ := newWebhookFixture()

	rec := deliver(t, h, `{"data":`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
