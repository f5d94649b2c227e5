package handler

import (
	"testing"

	"github.com/tripio/travel-marketplace/internal/model"
)

func TestPublicDestinationCarriesModelFields(t *testing.T) {
	d := model.Destination{
		ID:               4,
		RegionID:         2,
		Name:             "Kyoto",
		Slug:             "kyoto",
		Description:      "Temples and gardens.",
		ShortDescription: "Old capital of Japan",
		Latitude:         35.0116,
		Longitude:        135.7681,
		Address:          "Kyoto Prefecture, Japan",
		MainImageURL:     "https://img.example.com/kyoto.jpg",
		AverageRating:    4.7,
		ReviewCount:      128,
	}

	got := publicDestination(d)

	if got.ID != d.ID || got.RegionID != d.RegionID {
		t.Errorf("ids = %d/%d, want %d/%d", got.ID, got.RegionID, d.ID, d.RegionID)
	}
	if got.Slug != "kyoto" || got.Name != "Kyoto" {
		t.Errorf("name/slug = %q/%q", got.Name, got.Slug)
	}
	if got.ShortDescription != d.ShortDescription {
		t.Errorf("ShortDescription = %q, want %q", got.ShortDescription, d.ShortDescription)
	}
	if got.Address != d.Address {
		t.Errorf("Address = %q, want %q", got.Address, d.Address)
	}
	if got.MainImageURL != d.MainImageURL {
		t.Errorf("MainImageURL = %q, want %q", got.MainImageURL, d.MainImageURL)
	}
	if got.Latitude != d.Latitude || got.Longitude != d.Longitude {
		t.Errorf("coords = %v/%v, want %v/%v", got.Latitude, got.Longitude, d.Latitude, d.Longitude)
	}
	if got.AverageRating != d.AverageRating || got.ReviewCount != d.ReviewCount {
		t.Errorf("rating rollup = %v/%d, want %v/%d", got.AverageRating, got.ReviewCount, d.AverageRating, d.ReviewCount)
	}
}
