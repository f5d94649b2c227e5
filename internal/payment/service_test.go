package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tripio/travel-marketplace/internal/model"
)

// ---- in-memory fakes ----

type fakeGateway struct {
	nextIntent Intent
	nextRefund Refund
	err        error

	intentCalls []intentCall
	refundCalls []refundCall
}

type intentCall struct {
	amount   int64
	currency string
	metadata map[string]string
}

type refundCall struct {
	intentID string
	amount   int64
	reason   string
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (Intent, error) {
	g.intentCalls = append(g.intentCalls, intentCall{amount, currency, metadata})
	if g.err != nil {
		return Intent{}, g.err
	}
	return g.nextIntent, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, intentID string, amount int64, reason string) (Refund, error) {
	g.refundCalls = append(g.refundCalls, refundCall{intentID, amount, reason})
	if g.err != nil {
		return Refund{}, g.err
	}
	return g.nextRefund, nil
}

type memPayments struct {
	rows    map[uint64]*model.Payment
	nextID  uint64
	updates int
}

func newMemPayments() *memPayments { return &memPayments{rows: map[uint64]*model.Payment{}} }

func (m *memPayments) Create(_ context.Context, p *model.Payment) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPayments) GetByID(_ context.Context, id uint64) (model.Payment, error) {
	p, ok := m.rows[id]
	if !ok {
		return model.Payment{}, ErrPaymentNotFound
	}
	return *p, nil
}

func (m *memPayments) GetByTransactionID(_ context.Context, txID string) (model.Payment, error) {
	for _, p := range m.rows {
		if p.TransactionID == txID {
			return *p, nil
		}
	}
	return model.Payment{}, ErrPaymentNotFound
}

func (m *memPayments) UpdateStatus(_ context.Context, id uint64, status string, resp []byte) error {
	p, ok := m.rows[id]
	if !ok {
		return ErrPaymentNotFound
	}
	m.updates++
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

func newMemBookings(bs ...model.Booking) *memBookings {
	m := &memBookings{rows: map[uint64]*model.Booking{}}
	for i := range bs {
		cp := bs[i]
		m.rows[cp.ID] = &cp
	}
	return m
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	b, ok := m.rows[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return *b, nil
}

func (m *memBookings) MarkPaid(_ context.Context, id uint64, paidAt time.Time) error {
	b, ok := m.rows[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = model.BookingStatusPaid
	t := paidAt
	b.PaidAt = &t
	return nil
}

func (m *memBookings) MarkRefunded(_ context.Context, id uint64) error {
	b, ok := m.rows[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = model.BookingStatusRefunded
	return nil
}

// ---- helpers ----

var testClock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(gw *fakeGateway, payments *memPayments, bookings *memBookings) *Service {
	s := NewService(gw, payments, bookings)
	s.Now = func() time.Time { return testClock }
	return s
}

func pendingBooking(id uint64) model.Booking {
	b := model.Booking{
		ID:             id,
		ReferenceCode:  fmt.Sprintf("BK0000000%d", id),
		UserID:         7,
		PackageID:      3,
		AvailabilityID: 5,
		Status:         model.BookingStatusPending,
		NumTravelers:   2,
		UnitPriceCents: 10000, // 100.00 per traveler
		Currency:       "USD",
	}
	b.RecalculateTotal()
	return b
}

// ---- intent creation ----

func TestCreateIntentPersistsPendingPayment(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)

	res, err := svc.CreateIntent(context.Background(), 1)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if res.ClientSecret != "pi_123_secret" || res.PaymentID == 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	if len(gw.intentCalls) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(gw.intentCalls))
	}
	call := gw.intentCalls[0]
	if call.amount != 20000 {
		t.Errorf("charged %d cents, want 20000", call.amount)
	}
	if call.currency != "usd" {
		t.Errorf("currency %q, want lower-cased usd", call.currency)
	}
	if call.metadata["booking_id"] != "1" || call.metadata["reference_code"] != "BK00000001" || call.metadata["user_id"] != "7" {
		t.Errorf("metadata %v missing correlation fields", call.metadata)
	}

	p, err := payments.GetByID(context.Background(), res.PaymentID)
	if err != nil {
		t.Fatalf("payment not persisted: %v", err)
	}
	if p.Status != model.PaymentStatusPending {
		t.Errorf("payment status %q, want pending", p.Status)
	}
	if p.TransactionID != "pi_123" {
		t.Errorf("transaction id %q, want pi_123", p.TransactionID)
	}
	if p.AmountCents != 20000 {
		t.Errorf("amount %d, want 20000", p.AmountCents)
	}
}

func TestCreateIntentRejectsUnpayableBooking(t *testing.T) {
	for _, status := range []string{
		model.BookingStatusPaid,
		model.BookingStatusCompleted,
		model.BookingStatusCancelled,
		model.BookingStatusRefunded,
	} {
		b := pendingBooking(1)
		b.Status = status
		svc := newTestService(&fakeGateway{}, newMemPayments(), newMemBookings(b))
		if _, err := svc.CreateIntent(context.Background(), 1); !errors.Is(err, ErrBookingNotPayable) {
			t.Errorf("status %q: err = %v, want ErrBookingNotPayable", status, err)
		}
	}
}

func TestCreateIntentRejectsSecondCharge(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_1", ClientSecret: "s"}}
	payments := newMemPayments()
	payments.Create(context.Background(), &model.Payment{
		BookingID: 1, Status: model.PaymentStatusCompleted, TransactionID: "pi_old",
	})
	svc := newTestService(gw, payments, newMemBookings(pendingBooking(1)))

	if _, err := svc.CreateIntent(context.Background(), 1); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("err = %v, want ErrAlreadyPaid", err)
	}
	if len(gw.intentCalls) != 0 {
		t.Fatal("gateway must not be called for an already-paid booking")
	}
}

func TestCreateIntentSurfacesGatewayError(t *testing.T) {
	gwErr := &GatewayError{Code: "card_declined", Message: "insufficient funds", HTTPStatus: 402}
	gw := &fakeGateway{err: gwErr}
	payments := newMemPayments()
	svc := newTestService(gw, payments, newMemBookings(pendingBooking(1)))

	_, err := svc.CreateIntent(context.Background(), 1)
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Code != "card_declined" {
		t.Fatalf("err = %v, want wrapped GatewayError", err)
	}
	if len(payments.rows) != 0 {
		t.Fatal("no payment record may exist after a gateway failure")
	}
}

// ---- webhook transitions ----

func TestSucceededEventCompletesPaymentAndBooking(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_1", ClientSecret: "s"}}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)

	var hooked bool
	svc.OnBookingPaid = func(_ context.Context, b model.Booking, p model.Payment) {
		hooked = true
		if b.Status != model.BookingStatusPaid || p.Status != model.PaymentStatusCompleted {
			t.Errorf("hook saw booking %q / payment %q", b.Status, p.Status)
		}
	}

	res, _ := svc.CreateIntent(context.Background(), 1)
	out := svc.HandleEvent(context.Background(), Event{Type: EventIntentSucceeded, ObjectID: "pi_1"})
	if out.Status != OutcomeSuccess {
		t.Fatalf("outcome %+v, want success", out)
	}

	p, _ := payments.GetByID(context.Background(), res.PaymentID)
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("payment status %q, want completed", p.Status)
	}
	b, _ := bookings.GetByID(context.Background(), 1)
	if b.Status != model.BookingStatusPaid {
		t.Errorf("booking status %q, want paid", b.Status)
	}
	if b.PaidAt == nil || !b.PaidAt.Equal(testClock) {
		t.Errorf("paid_at = %v, want receipt time %v", b.PaidAt, testClock)
	}
	if !hooked {
		t.Error("OnBookingPaid hook not invoked")
	}
}

func TestSucceededEventIsIdempotent(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_1", ClientSecret: "s"}}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)
	svc.CreateIntent(context.Background(), 1)

	first := svc.HandleEvent(context.Background(), Event{Type: EventIntentSucceeded, ObjectID: "pi_1"})
	updatesAfterFirst := payments.updates
	second := svc.HandleEvent(context.Background(), Event{Type: EventIntentSucceeded, ObjectID: "pi_1"})

	if first.Status != OutcomeSuccess || second.Status != OutcomeSuccess {
		t.Fatalf("outcomes %q / %q, want success twice", first.Status, second.Status)
	}
	if payments.updates != updatesAfterFirst {
		t.Fatal("re-delivered event must not write again")
	}
}

func TestFailedEventLeavesBookingUntouched(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_1", ClientSecret: "s"}}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)
	res, _ := svc.CreateIntent(context.Background(), 1)

	out := svc.HandleEvent(context.Background(), Event{Type: EventIntentFailed, ObjectID: "pi_1"})
	if out.Status != OutcomeFailed {
		t.Fatalf("outcome %+v, want failed", out)
	}
	p, _ := payments.GetByID(context.Background(), res.PaymentID)
	if p.Status != model.PaymentStatusFailed {
		t.Errorf("payment status %q, want failed", p.Status)
	}
	b, _ := bookings.GetByID(context.Background(), 1)
	if b.Status != model.BookingStatusPending || b.PaidAt != nil {
		t.Errorf("booking must stay pending for retry, got %q", b.Status)
	}

	// Re-delivery is a no-op, not an error.
	again := svc.HandleEvent(context.Background(), Event{Type: EventIntentFailed, ObjectID: "pi_1"})
	if again.Status != OutcomeFailed {
		t.Fatalf("re-delivered failed event outcome %+v", again)
	}
}

func TestFailedEventCannotUndoCompletedPayment(t *testing.T) {
	gw := &fakeGateway{nextIntent: Intent{ID: "pi_1", ClientSecret: "s"}}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)
	res, _ := svc.CreateIntent(context.Background(), 1)
	svc.HandleEvent(context.Background(), Event{Type: EventIntentSucceeded, ObjectID: "pi_1"})

	out := svc.HandleEvent(context.Background(), Event{Type: EventIntentFailed, ObjectID: "pi_1"})
	if out.Status != OutcomeError || !strings.Contains(out.Message, "transition") {
		t.Fatalf("outcome %+v, want invalid-transition error", out)
	}
	p, _ := payments.GetByID(context.Background(), res.PaymentID)
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("payment mutated to %q", p.Status)
	}
	b, _ := bookings.GetByID(context.Background(), 1)
	if b.Status != model.BookingStatusPaid {
		t.Errorf("booking mutated to %q", b.Status)
	}
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	svc := newTestService(&fakeGateway{}, newMemPayments(), newMemBookings())
	out := svc.HandleEvent(context.Background(), Event{Type: "charge.updated", ObjectID: "ch_1"})
	if out.Status != OutcomeIgnored {
		t.Fatalf("outcome %+v, want ignored", out)
	}
}

func TestEventForUnknownIntentReportsNotFound(t *testing.T) {
	svc := newTestService(&fakeGateway{}, newMemPayments(), newMemBookings())
	out := svc.HandleEvent(context.Background(), Event{Type: EventIntentFailed, ObjectID: "pi_missing"})
	if out.Status != OutcomeError || out.Message != "Payment not found" {
		t.Fatalf("outcome %+v, want Payment not found error", out)
	}
}

// ---- refunds ----

func refundedFixture(t *testing.T) (*fakeGateway, *memPayments, *memBookings, *Service, uint64) {
	t.Helper()
	gw := &fakeGateway{
		nextIntent: Intent{ID: "pi_1", ClientSecret: "s"},
		nextRefund: Refund{ID: "re_1", Amount: 20000, Status: "succeeded"},
	}
	payments := newMemPayments()
	bookings := newMemBookings(pendingBooking(1))
	svc := newTestService(gw, payments, bookings)
	res, err := svc.CreateIntent(context.Background(), 1)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	svc.HandleEvent(context.Background(), Event{Type: EventIntentSucceeded, ObjectID: "pi_1"})
	return gw, payments, bookings, svc, res.PaymentID
}

func TestRefundDefaultsToFullAmount(t *testing.T) {
	gw, payments, bookings, svc, paymentID := refundedFixture(t)

	out, err := svc.Refund(context.Background(), paymentID, nil, "")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if out.RefundID != "re_1" {
		t.Errorf("refund id %q", out.RefundID)
	}
	call := gw.refundCalls[0]
	if call.amount != 20000 {
		t.Errorf("refunded %d cents, want full 20000", call.amount)
	}
	if call.reason != "requested_by_customer" {
		t.Errorf("reason %q, want default", call.reason)
	}

	p, _ := payments.GetByID(context.Background(), paymentID)
	if p.Status != model.PaymentStatusRefunded {
		t.Errorf("payment status %q, want refunded", p.Status)
	}
	var stored map[string]any
	if err := json.Unmarshal(p.GatewayResponse, &stored); err != nil {
		t.Fatalf("gateway response not JSON: %v", err)
	}
	if stored["id"] != "pi_1" {
		t.Errorf("original intent payload lost: %v", stored)
	}
	if _, ok := stored["refund"]; !ok {
		t.Errorf("refund confirmation not merged: %v", stored)
	}
	b, _ := bookings.GetByID(context.Background(), 1)
	if b.Status != model.BookingStatusRefunded {
		t.Errorf("booking status %q, want refunded", b.Status)
	}
}

func TestRefundRejectsExcessAmount(t *testing.T) {
	gw, payments, _, svc, paymentID := refundedFixture(t)

	over := int64(20001)
	if _, err := svc.Refund(context.Background(), paymentID, &over, ""); !errors.Is(err, ErrRefundExceedsAmount) {
		t.Fatalf("err = %v, want ErrRefundExceedsAmount", err)
	}
	if len(gw.refundCalls) != 0 {
		t.Fatal("gateway must not be called for an oversized refund")
	}
	p, _ := payments.GetByID(context.Background(), paymentID)
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("payment mutated to %q", p.Status)
	}
}

func TestRefundAllowsPartialAmount(t *testing.T) {
	gw, _, _, svc, paymentID := refundedFixture(t)
	gw.nextRefund = Refund{ID: "re_2", Amount: 5000, Status: "succeeded"}

	partial := int64(5000)
	if _, err := svc.Refund(context.Background(), paymentID, &partial, "duplicate"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if gw.refundCalls[0].amount != 5000 || gw.refundCalls[0].reason != "duplicate" {
		t.Fatalf("refund call %+v", gw.refundCalls[0])
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	for _, status := range []string{model.PaymentStatusPending, model.PaymentStatusFailed, model.PaymentStatusRefunded} {
		gw := &fakeGateway{}
		payments := newMemPayments()
		payments.Create(context.Background(), &model.Payment{
			BookingID: 1, Status: status, AmountCents: 20000, TransactionID: "pi_1",
		})
		bookings := newMemBookings(pendingBooking(1))
		svc := newTestService(gw, payments, bookings)

		_, err := svc.Refund(context.Background(), 1, nil, "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("status %q: err = %v, want ErrInvalidTransition", status, err)
		}
		if len(gw.refundCalls) != 0 {
			t.Errorf("status %q: gateway called", status)
		}
		p, _ := payments.GetByID(context.Background(), 1)
		if p.Status != status {
			t.Errorf("status %q mutated to %q", status, p.Status)
		}
	}
}

func TestRefundSurfacesGatewayError(t *testing.T) {
	_, payments, bookings, svc, paymentID := refundedFixture(t)
	svc.Gateway = &fakeGateway{err: &GatewayError{Code: "charge_disputed", Message: "charge is disputed"}}

	_, err := svc.Refund(context.Background(), paymentID, nil, "")
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GatewayError", err)
	}
	p, _ := payments.GetByID(context.Background(), paymentID)
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("payment mutated to %q after gateway failure", p.Status)
	}
	b, _ := bookings.GetByID(context.Background(), 1)
	if b.Status != model.BookingStatusPaid {
		t.Errorf("booking mutated to %q after gateway failure", b.Status)
	}
}
