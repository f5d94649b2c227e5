package model

import "time"

// Transportation types a package may include.
const (
	TransportFlight   = "flight"
	TransportTrain    = "train"
	TransportBus      = "bus"
	TransportCar      = "car"
	TransportCruise   = "cruise"
	TransportMultiple = "multiple"
	TransportNone     = "none"
)

// Difficulty levels describing how demanding a trip is.
const (
	DifficultyEasy        = "easy"
	DifficultyModerate    = "moderate"
	DifficultyChallenging = "challenging"
	DifficultyDifficult   = "difficult"
)

// Package is a travel package published by a seller.  All monetary
// amounts are stored in minor currency units (cents) to avoid
// floating-point arithmetic on prices.  Rating fields are a
// denormalised rollup maintained by the review repository.
//
// Fields:
//  ID                 – primary key identifier.
//  SellerID           – user who owns and manages the package.
//  DestinationID      – primary destination of the trip.
//  Title              – display title.
//  Slug               – unique URL-safe identifier.
//  Description        – long description.
//  ShortDescription   – teaser shown in listings.
//  DurationDays       – trip length in days.
//  MaxTravelers       – upper bound of travellers per departure.
//  TransportationType – one of the Transport* constants.
//  DifficultyLevel    – one of the Difficulty* constants.
//  BasePriceCents     – list price per traveller in minor units.
//  DiscountPriceCents – optional discounted price per traveller.
//  Currency           – ISO 4217 currency code.
//  WhatIsIncluded     – free-form inclusions text.
//  WhatIsExcluded     – free-form exclusions text.
//  MainImageURL       – hero image.
//  IsActive           – bookable and browsable when true.
//  Featured           – surfaced on the landing feed when true.
//  AverageRating      – mean published review rating.
//  ReviewCount        – number of published reviews.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Package struct {
	ID                 uint64    // packages.id
	SellerID           uint64    // packages.seller_id
	DestinationID      uint64    // packages.destination_id
	Title              string    // packages.title
	Slug               string    // packages.slug
	Description        string    // packages.description
	ShortDescription   string    // packages.short_description
	DurationDays       uint32    // packages.duration_days
	MaxTravelers       uint32    // packages.max_travelers
	TransportationType string    // packages.transportation_type
	DifficultyLevel    string    // packages.difficulty_level
	BasePriceCents     int64     // packages.base_price_cents
	DiscountPriceCents *int64    // packages.discount_price_cents (nullable)
	Currency           string    // packages.currency
	WhatIsIncluded     string    // packages.what_is_included
	WhatIsExcluded     string    // packages.what_is_excluded
	MainImageURL       string    // packages.main_image_url
	IsActive           bool      // packages.is_active
	Featured           bool      // packages.featured
	AverageRating      float64   // packages.average_rating
	ReviewCount        uint32    // packages.review_count
	CreatedAt          time.Time // packages.created_at
	UpdatedAt          time.Time // packages.updated_at
}

// CurrentPriceCents returns the discounted price when one is set and
// the base price otherwise.
func (p Package) CurrentPriceCents() int64 {
	if p.DiscountPriceCents != nil && *p.DiscountPriceCents > 0 {
		return *p.DiscountPriceCents
	}
	return p.BasePriceCents
}

// DiscountPercentage reports the rounded percentage saved against the
// base price, or 0 when no discount applies.
func (p Package) DiscountPercentage() int {
	if p.DiscountPriceCents == nil || *p.DiscountPriceCents <= 0 || p.BasePriceCents <= 0 {
		return 0
	}
	saved := p.BasePriceCents - *p.DiscountPriceCents
	if saved <= 0 {
		return 0
	}
	return int((saved*100 + p.BasePriceCents/2) / p.BasePriceCents)
}

// ItineraryDay describes one day of a package's itinerary.  The
// combination (PackageID, Day) is unique.
type ItineraryDay struct {
	ID            uint64 // itinerary_days.id
	PackageID     uint64 // itinerary_days.package_id
	Day           uint32 // itinerary_days.day (1-based)
	Title         string // itinerary_days.title
	Description   string // itinerary_days.description
	Accommodation string // itinerary_days.accommodation
	MealsIncluded string // itinerary_days.meals_included (e.g. "Breakfast, Lunch")
}

// Availability is a bookable departure window for a package.  Slots
// are decremented when bookings are created and restored when they
// are cancelled, always inside the same transaction as the booking
// mutation.
//
// Fields:
//  ID                – primary key identifier.
//  PackageID         – owning package.
//  StartDate         – first day of the departure window.
//  EndDate           – last day of the departure window.
//  AvailableSlots    – remaining traveller slots.
//  IsAvailable       – sellers can close a window without deleting it.
//  SpecialPriceCents – optional per-traveller price overriding the
//                      package price for this window.
type Availability struct {
	ID                uint64    // availabilities.id
	PackageID         uint64    // availabilities.package_id
	StartDate         time.Time // availabilities.start_date
	EndDate           time.Time // availabilities.end_date
	AvailableSlots    uint32    // availabilities.available_slots
	IsAvailable       bool      // availabilities.is_available
	SpecialPriceCents *int64    // availabilities.special_price_cents (nullable)
}
