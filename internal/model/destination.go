package model

import "time"

// TravelInterest is a browsable category such as adventure, cultural
// or family travel.  Destinations are tagged with interests through
// the destination_interests join table.
type TravelInterest struct {
	ID   uint64 // travel_interests.id
	Name string // travel_interests.name
	Icon string // travel_interests.icon (CSS class name)
}

// Region is a node in the geographic hierarchy
// (continent → country → state/province → city).  The hierarchy is a
// simple adjacency list: ParentID is nil for top-level regions.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name.
//  Slug        – unique URL-safe identifier.
//  Code        – optional country/region code.
//  ParentID    – parent region, nil at the root.
//  Description – optional free-form text.
//  ImageURL    – optional hero image.
//  IsActive    – hidden from browse endpoints when false.
//  Featured    – surfaced on the landing feed when true.
type Region struct {
	ID          uint64  // regions.id
	Name        string  // regions.name
	Slug        string  // regions.slug
	Code        string  // regions.code
	ParentID    *uint64 // regions.parent_id (nullable)
	Description string  // regions.description
	ImageURL    string  // regions.image_url
	IsActive    bool    // regions.is_active
	Featured    bool    // regions.featured
}

// Destination is a concrete place travellers visit: a landmark,
// attraction or natural site inside a region.  Rating fields are a
// denormalised rollup maintained by the review repository.
//
// Fields:
//  ID               – primary key identifier.
//  RegionID         – owning region.
//  Name             – display name.
//  Slug             – unique URL-safe identifier.
//  Description      – long description.
//  ShortDescription – teaser shown in listings.
//  Latitude         – WGS84 latitude.
//  Longitude        – WGS84 longitude.
//  Address          – optional street address.
//  MainImageURL     – hero image.
//  AverageRating    – mean published review rating (0 when unreviewed).
//  ReviewCount      – number of published reviews.
//  IsActive         – hidden from browse endpoints when false.
//  Featured         – surfaced on the landing feed when true.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Destination struct {
	ID               uint64    // destinations.id
	RegionID         uint64    // destinations.region_id
	Name             string    // destinations.name
	Slug             string    // destinations.slug
	Description      string    // destinations.description
	ShortDescription string    // destinations.short_description
	Latitude         float64   // destinations.latitude
	Longitude        float64   // destinations.longitude
	Address          string    // destinations.address
	MainImageURL     string    // destinations.main_image_url
	AverageRating    float64   // destinations.average_rating
	ReviewCount      uint32    // destinations.review_count
	IsActive         bool      // destinations.is_active
	Featured         bool      // destinations.featured
	CreatedAt        time.Time // destinations.created_at
	UpdatedAt        time.Time // destinations.updated_at
}
