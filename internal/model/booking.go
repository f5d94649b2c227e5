package model

import "time"

// Booking lifecycle states.  A booking starts out pending, may be
// confirmed by the seller, becomes paid once a payment completes,
// completed after the trip, and can end up cancelled or refunded.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusPaid      = "paid"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRefunded  = "refunded"
)

// Booking reserves NumTravelers slots in one of a package's
// availability windows for a single buyer.  Bookings are financial
// records: they are never deleted, only transitioned between states.
// Monetary amounts are stored in minor currency units.
//
// Fields:
//  ID                  – primary key identifier.
//  ReferenceCode       – unique human-readable code ("BK" + 8 digits).
//  UserID              – buyer who owns the booking.
//  PackageID           – booked package.
//  AvailabilityID      – departure window the slots were taken from.
//  Status              – one of the BookingStatus* constants.
//  NumTravelers        – number of slots reserved.
//  ContactName         – booking contact person.
//  ContactEmail        – booking contact email.
//  ContactPhone        – booking contact phone.
//  SpecialRequirements – optional free-form requests.
//  UnitPriceCents      – per-traveller price at booking time.
//  TotalPriceCents     – always UnitPriceCents × NumTravelers.
//  Currency            – ISO 4217 currency code.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
//  PaidAt              – when the successful payment was recorded.
//  CancelledAt         – when the booking was cancelled.
//  CancellationReason  – optional reason supplied on cancellation.
type Booking struct {
	ID                  uint64     // bookings.id
	ReferenceCode       string     // bookings.reference_code
	UserID              uint64     // bookings.user_id
	PackageID           uint64     // bookings.package_id
	AvailabilityID      uint64     // bookings.availability_id
	Status              string     // bookings.status
	NumTravelers        uint32     // bookings.num_travelers
	ContactName         string     // bookings.contact_name
	ContactEmail        string     // bookings.contact_email
	ContactPhone        string     // bookings.contact_phone
	SpecialRequirements string     // bookings.special_requirements
	UnitPriceCents      int64      // bookings.unit_price_cents
	TotalPriceCents     int64      // bookings.total_price_cents
	Currency            string     // bookings.currency
	CreatedAt           time.Time  // bookings.created_at
	UpdatedAt           time.Time  // bookings.updated_at
	PaidAt              *time.Time // bookings.paid_at (nullable)
	CancelledAt         *time.Time // bookings.cancelled_at (nullable)
	CancellationReason  string     // bookings.cancellation_reason
}

// RecalculateTotal derives the total price from the unit price and
// traveller count.  Repositories call it before every insert or
// update so the stored total can never drift from its inputs.
func (b *Booking) RecalculateTotal() {
	b.TotalPriceCents = b.UnitPriceCents * int64(b.NumTravelers)
}

// CanCancel reports whether the booking is in a state the buyer may
// still cancel from.  Paid bookings go through the refund flow
// instead.
func (b Booking) CanCancel() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// Traveler holds per-person details collected for a booking.
type Traveler struct {
	ID             uint64     // travelers.id
	BookingID      uint64     // travelers.booking_id
	FirstName      string     // travelers.first_name
	LastName       string     // travelers.last_name
	Email          string     // travelers.email
	Phone          string     // travelers.phone
	DateOfBirth    *time.Time // travelers.date_of_birth (nullable)
	Gender         string     // travelers.gender ("M", "F", "O")
	PassportNumber string     // travelers.passport_number
	Nationality    string     // travelers.nationality
}
