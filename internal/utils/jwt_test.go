package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	at, err := NewAccessToken(secret, 42, "SELLER", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parsing issued token: %v", err)
	}
	if !tok.Valid {
		t.Fatal("issued token did not validate")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if got := claims["sub"].(float64); got != 42 {
		t.Errorf("sub = %v, want 42", got)
	}
	if got := claims["role"].(string); got != "SELLER" {
		t.Errorf("role = %q, want SELLER", got)
	}
	if at.Exp.Before(time.Now().Add(14 * time.Minute)) {
		t.Errorf("expiry %v sooner than requested TTL", at.Exp)
	}
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right-secret", 1, "BUYER", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	if err == nil && tok.Valid {
		t.Fatal("token validated with the wrong secret")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw token length = %d, want 96 hex chars", len(rt.Raw))
	}
	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	if h1 != h2 {
		t.Fatal("hash not deterministic")
	}
	if h1 == rt.Raw {
		t.Fatal("hash equals raw token")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h1))
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "correct horse battery") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}

func TestAcceptablePassword(t *testing.T) {
	if AcceptablePassword("short") {
		t.Error("7-char password accepted")
	}
	if !AcceptablePassword("longenough") {
		t.Error("valid password rejected")
	}
}
