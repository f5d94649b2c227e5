package utils

import (
	"crypto/rand"
	"math/big"
)

// NewBookingReference returns a human-readable booking code of the
// form "BK" followed by 8 random digits, e.g. "BK48201746".  Codes
// are random rather than sequential so buyers cannot enumerate other
// bookings; the caller retries on the rare unique-index collision.
func NewBookingReference() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, 8)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		buf[i] = digits[n.Int64()]
	}
	return "BK" + string(buf), nil
}
