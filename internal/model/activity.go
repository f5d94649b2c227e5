package model

import "time"

// UserActivity is a single tracked event: a page view, a search, a
// booking attempt and so on.  Rows arrive asynchronously through the
// activity queue consumer, so writes never sit on a request path.
// UserID is nil for anonymous visitors.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – acting user, nil when anonymous.
//  SessionID     – client session correlator.
//  IPAddress     – optional request origin.
//  Action        – short verb such as "view", "search", "book".
//  Page          – request path the action happened on.
//  PackageID     – optional related package.
//  DestinationID – optional related destination.
//  Metadata      – optional JSON blob with extra context.
//  CreatedAt     – when the event occurred.
type UserActivity struct {
	ID            uint64    // user_activities.id
	UserID        *uint64   // user_activities.user_id (nullable)
	SessionID     string    // user_activities.session_id
	IPAddress     string    // user_activities.ip_address
	Action        string    // user_activities.action
	Page          string    // user_activities.page
	PackageID     *uint64   // user_activities.package_id (nullable)
	DestinationID *uint64   // user_activities.destination_id (nullable)
	Metadata      []byte    // user_activities.metadata (JSON, nullable)
	CreatedAt     time.Time // user_activities.created_at
}

// SearchTerm tracks how often a search query has been issued.  Terms
// are upserted: the count increments and last_searched_at moves
// forward on every repeated search.
type SearchTerm struct {
	ID              uint64    // search_terms.id
	Term            string    // search_terms.term
	Count           uint64    // search_terms.count
	FirstSearchedAt time.Time // search_terms.first_searched_at
	LastSearchedAt  time.Time // search_terms.last_searched_at
}
