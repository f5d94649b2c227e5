// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPaidEvent is published when a payment completes and its
// booking transitions to paid.  It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type BookingPaidEvent struct {
	BookingID     uint64 `json:"booking_id"`
	ReferenceCode string `json:"reference_code"`
	UserID        uint64 `json:"user_id"`
	PackageID     uint64 `json:"package_id"`
	PackageTitle  string `json:"package_title"`
	NumTravelers  uint32 `json:"num_travelers"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	PaymentID     uint64 `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	PaidAt        string `json:"paid_at"`
}

// UserActivityEvent carries one tracked user action (page view,
// search, booking attempt) from the request path to the activity
// consumer, which persists it off the hot path.
type UserActivityEvent struct {
	UserID        *uint64 `json:"user_id,omitempty"`
	SessionID     string  `json:"session_id"`
	IPAddress     string  `json:"ip_address,omitempty"`
	Action        string  `json:"action"`
	Page          string  `json:"page"`
	PackageID     *uint64 `json:"package_id,omitempty"`
	DestinationID *uint64 `json:"destination_id,omitempty"`
	SearchTerm    string  `json:"search_term,omitempty"`
	Metadata      []byte  `json:"metadata,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
