package utils

import (
	"strings"
	"testing"
)

func TestNewBookingReferenceFormat(t *testing.T) {
	ref, err := NewBookingReference()
	if err != nil {
		t.Fatalf("NewBookingReference: %v", err)
	}
	if len(ref) != 10 || !strings.HasPrefix(ref, "BK") {
		t.Fatalf("reference %q, want BK followed by 8 digits", ref)
	}
	for _, r := range ref[2:] {
		if r < '0' || r > '9' {
			t.Fatalf("reference %q contains non-digit %q", ref, r)
		}
	}
}

func TestNewBookingReferenceVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref, err := NewBookingReference()
		if err != nil {
			t.Fatalf("NewBookingReference: %v", err)
		}
		seen[ref] = true
	}
	// 50 draws from a 10^8 space colliding down to a handful would
	// mean the generator is broken, not unlucky.
	if len(seen) < 45 {
		t.Fatalf("only %d distinct references out of 50", len(seen))
	}
}
