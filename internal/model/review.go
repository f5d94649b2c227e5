package model

import "time"

// Review is a buyer's rating of a package they have booked.  A user
// may review a given package once; the (UserID, PackageID) pair is
// unique.  Publishing state is controlled by admins, and only
// published reviews contribute to a package's rating rollup.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – reviewing buyer.
//  PackageID   – reviewed package.
//  BookingID   – booking that qualifies the buyer to review.
//  Rating      – 1 to 5 stars.
//  Title       – short headline.
//  Content     – review body.
//  IsPublished – visible in public listings when true.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Review struct {
	ID          uint64    // reviews.id
	UserID      uint64    // reviews.user_id
	PackageID   uint64    // reviews.package_id
	BookingID   uint64    // reviews.booking_id
	Rating      uint8     // reviews.rating (1..5)
	Title       string    // reviews.title
	Content     string    // reviews.content
	IsPublished bool      // reviews.is_published
	CreatedAt   time.Time // reviews.created_at
	UpdatedAt   time.Time // reviews.updated_at
}
