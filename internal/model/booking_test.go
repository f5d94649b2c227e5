package model

import "testing"

func TestRecalculateTotal(t *testing.T) {
	cases := []struct {
		name      string
		unitCents int64
		travelers uint32
		want      int64
	}{
		{"two travelers", 10000, 2, 20000},
		{"single traveler", 49999, 1, 49999},
		{"large group", 2500, 12, 30000},
		{"zero travelers", 10000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Booking{UnitPriceCents: tc.unitCents, NumTravelers: tc.travelers}
			b.RecalculateTotal()
			if b.TotalPriceCents != tc.want {
				t.Fatalf("total = %d, want %d", b.TotalPriceCents, tc.want)
			}
		})
	}
}

func TestRecalculateTotalOverwritesStaleValue(t *testing.T) {
	// The stored total must always be derived from its inputs, even
	// when a caller set it to something else beforehand.
	b := Booking{UnitPriceCents: 10000, NumTravelers: 3, TotalPriceCents: 1}
	b.RecalculateTotal()
	if b.TotalPriceCents != 30000 {
		t.Fatalf("total = %d, want 30000", b.TotalPriceCents)
	}
}

func TestCanCancel(t *testing.T) {
	allowed := map[string]bool{
		BookingStatusPending:   true,
		BookingStatusConfirmed: true,
		BookingStatusPaid:      false,
		BookingStatusCompleted: false,
		BookingStatusCancelled: false,
		BookingStatusRefunded:  false,
	}
	for status, want := range allowed {
		b := Booking{Status: status}
		if got := b.CanCancel(); got != want {
			t.Errorf("CanCancel(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestCurrentPriceCents(t *testing.T) {
	discount := int64(7500)
	p := Package{BasePriceCents: 10000}
	if got := p.CurrentPriceCents(); got != 10000 {
		t.Fatalf("base price = %d, want 10000", got)
	}
	p.DiscountPriceCents = &discount
	if got := p.CurrentPriceCents(); got != 7500 {
		t.Fatalf("discounted price = %d, want 7500", got)
	}
	if got := p.DiscountPercentage(); got != 25 {
		t.Fatalf("discount percentage = %d, want 25", got)
	}
}
