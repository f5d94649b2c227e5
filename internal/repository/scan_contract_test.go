package repository

import (
	"strings"
	"testing"
)

// countingRow stands in for *sql.Row and records how many scan
// targets a helper passes, so each column list and its scan helper
// are held to the same length without a database.
type countingRow struct{ n int }

func (r *countingRow) Scan(dest ...any) error {
	r.n = len(dest)
	return nil
}

func columnCount(list string) int {
	return len(strings.Split(list, ","))
}

func TestScanTargetsMatchColumnLists(t *testing.T) {
	type scanRow = interface{ Scan(...any) error }
	cases := []struct {
		name    string
		columns string
		scan    func(scanRow) error
	}{
		{"users", userColumns, func(r scanRow) error { _, err := scanUser(r); return err }},
		{"regions", regionColumns, func(r scanRow) error { _, err := scanRegion(r); return err }},
		{"destinations", destinationColumns, func(r scanRow) error { _, err := scanDestination(r); return err }},
		{"packages", packageColumns, func(r scanRow) error { _, err := scanPackage(r); return err }},
		{"availabilities", availabilityColumns, func(r scanRow) error { _, err := scanAvailability(r); return err }},
		{"bookings", bookingColumns, func(r scanRow) error { _, err := scanBooking(r); return err }},
		{"payments", paymentColumns, func(r scanRow) error { _, err := scanPayment(r); return err }},
		{"reviews", reviewColumns, func(r scanRow) error { _, err := scanReview(r); return err }},
		{"conversations", conversationColumns, func(r scanRow) error { _, err := scanConversation(r); return err }},
		{"messages", messageColumns, func(r scanRow) error { _, err := scanMessage(r); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := &countingRow{}
			if err := tc.scan(row); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if want := columnCount(tc.columns); row.n != want {
				t.Fatalf("scan passes %d targets, column list names %d columns", row.n, want)
			}
		})
	}
}

func TestPrefixedBookingColumnsStayAligned(t *testing.T) {
	plain := strings.Split(bookingColumns, ",")
	prefixed := strings.Split(prefixBookingColumns("b"), ",")
	if len(plain) != len(prefixed) {
		t.Fatalf("prefixed list has %d columns, plain list has %d", len(prefixed), len(plain))
	}
	for i := range plain {
		want := "b." + strings.TrimSpace(plain[i])
		if got := strings.TrimSpace(prefixed[i]); got != want {
			t.Errorf("column %d: got %q, want %q", i, got, want)
		}
	}
}
