package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is enforced at registration; bcrypt itself caps
// input at 72 bytes.
const MinPasswordLength = 8

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// AcceptablePassword reports whether a candidate password may be
// stored at all.
func AcceptablePassword(plain string) bool {
	return len(plain) >= MinPasswordLength && len(plain) <= 72
}
