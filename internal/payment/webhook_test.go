package payment

import (
	"errors"
	"testing"
	"time"
)

func TestParseEvent(t *testing.T) {
	body := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_42","amount":20000}}}`)
	ev, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.Type != EventIntentSucceeded || ev.ObjectID != "pi_42" {
		t.Fatalf("parsed %+v", ev)
	}
}

func TestParseEventMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":     []byte("not-json"),
		"missing type": []byte(`{"data":{"object":{"id":"pi_1"}}}`),
		"empty type":   []byte(`{"type":"  ","data":{"object":{"id":"pi_1"}}}`),
	}
	for name, body := range cases {
		if _, err := ParseEvent(body); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("%s: err = %v, want ErrMalformedEvent", name, err)
		}
	}
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	body := []byte(`{"type":"payment_intent.succeeded"}`)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	header := SignPayload("whsec_test", body, now)

	if err := VerifySignature("whsec_test", header, body, 5*time.Minute, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"type":"payment_intent.succeeded"}`)
	now := time.Now()
	header := SignPayload("whsec_test", body, now)

	if err := VerifySignature("whsec_test", header, []byte(`{"type":"evil"}`), 5*time.Minute, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
	if err := VerifySignature("whsec_other", header, body, 5*time.Minute, now); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("wrong secret: err = %v, want ErrBadSignature", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	body := []byte(`{}`)
	signedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	header := SignPayload("whsec_test", body, signedAt)

	if err := VerifySignature("whsec_test", header, body, 5*time.Minute, signedAt.Add(6*time.Minute)); !errors.Is(err, ErrStaleSignature) {
		t.Fatalf("err = %v, want ErrStaleSignature", err)
	}
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	for _, header := range []string{"", "v1=abc", "t=123", "garbage"} {
		if err := VerifySignature("whsec_test", header, []byte(`{}`), 0, time.Now()); !errors.Is(err, ErrMissingSignature) {
			t.Errorf("header %q: err = %v, want ErrMissingSignature", header, err)
		}
	}
}
