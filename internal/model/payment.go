package model

import "time"

// Payment lifecycle states.  Transitions only ever move forward:
// pending → completed, pending → failed, completed → refunded.
// failed and refunded are terminal.  The transition rules are
// enforced by the payment service, not by the database.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment methods accepted by the platform.
const (
	PaymentMethodCard         = "card"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCrypto       = "crypto"
)

// Payment is one attempt to collect funds for a booking.  A booking
// may accumulate several payments through retries, but at most one
// of them is ever completed.  Payments are retained indefinitely as
// part of the financial audit trail.
//
// Fields:
//  ID              – primary key identifier.
//  BookingID       – booking the funds are collected for.
//  AmountCents     – charged amount in minor currency units.
//  Currency        – ISO 4217 currency code.
//  Method          – one of the PaymentMethod* constants.
//  Status          – one of the PaymentStatus* constants.
//  TransactionID   – gateway intent id correlating webhook events to
//                    this record; the gateway never learns our ID.
//  GatewayResponse – opaque JSON payload returned by the gateway.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Payment struct {
	ID              uint64    // payments.id
	BookingID       uint64    // payments.booking_id
	AmountCents     int64     // payments.amount_cents
	Currency        string    // payments.currency
	Method          string    // payments.method
	Status          string    // payments.status
	TransactionID   string    // payments.transaction_id
	GatewayResponse []byte    // payments.gateway_response (JSON, nullable)
	CreatedAt       time.Time // payments.created_at
	UpdatedAt       time.Time // payments.updated_at
}
