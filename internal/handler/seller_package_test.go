package handler

import (
	"testing"

	"github.com/tripio/travel-marketplace/internal/model"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Bali Highlights", "bali-highlights"},
		{"  Trek: Annapurna Circuit!  ", "trek-annapurna-circuit"},
		{"Über-Tour 2026", "ber-tour-2026"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPackageReqValidation(t *testing.T) {
	valid := packageReq{
		DestinationID: 1,
		Title:         "Bali Highlights",
		DurationDays:  7,
		MaxTravelers:  12,
		BasePrice:     1200,
	}
	if msg := valid.validate(); msg != "" {
		t.Fatalf("valid request rejected: %s", msg)
	}

	cases := []struct {
		name   string
		mutate func(*packageReq)
	}{
		{"missing destination", func(r *packageReq) { r.DestinationID = 0 }},
		{"blank title", func(r *packageReq) { r.Title = "  " }},
		{"zero duration", func(r *packageReq) { r.DurationDays = 0 }},
		{"zero travellers", func(r *packageReq) { r.MaxTravelers = 0 }},
		{"free package", func(r *packageReq) { r.BasePrice = 0 }},
		{"discount above base", func(r *packageReq) { r.DiscountPrice = 1500 }},
	}
	for _, tc := range cases {
		r := valid
		tc.mutate(&r)
		if msg := r.validate(); msg == "" {
			t.Errorf("%s: expected validation failure", tc.name)
		}
	}
}

func TestPackageReqApplyConvertsPrices(t *testing.T) {
	r := packageReq{
		DestinationID: 1,
		Title:         " Bali Highlights ",
		DurationDays:  7,
		MaxTravelers:  12,
		BasePrice:     1200.50,
		DiscountPrice: 999.99,
		Currency:      "usd",
	}
	var p model.Package
	r.apply(&p)

	if p.BasePriceCents != 120050 {
		t.Errorf("BasePriceCents = %d, want 120050", p.BasePriceCents)
	}
	if p.DiscountPriceCents == nil || *p.DiscountPriceCents != 99999 {
		t.Errorf("DiscountPriceCents = %v, want 99999", p.DiscountPriceCents)
	}
	if p.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", p.Currency)
	}
	if p.Title != "Bali Highlights" {
		t.Errorf("Title = %q, want trimmed", p.Title)
	}
	if p.TransportationType != model.TransportNone || p.DifficultyLevel != model.DifficultyModerate {
		t.Errorf("defaults not applied: %q %q", p.TransportationType, p.DifficultyLevel)
	}

	r.DiscountPrice = 0
	r.apply(&p)
	if p.DiscountPriceCents != nil {
		t.Errorf("DiscountPriceCents = %v after clearing discount, want nil", p.DiscountPriceCents)
	}
}
