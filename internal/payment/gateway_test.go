package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPGatewayCreateIntent(t *testing.T) {
	var gotAuth, gotIdem string
	var gotBody intentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdem = r.Header.Get("Idempotency-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Intent{ID: "pi_1", ClientSecret: "pi_1_secret"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test_123", time.Second)
	intent, err := gw.CreateIntent(context.Background(), 20000, "usd", map[string]string{"booking_id": "1"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("intent %+v", intent)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Errorf("auth header %q", gotAuth)
	}
	if gotIdem == "" {
		t.Error("missing Idempotency-Key header")
	}
	if gotBody.Amount != 20000 || gotBody.Currency != "usd" || gotBody.Metadata["booking_id"] != "1" {
		t.Errorf("request body %+v", gotBody)
	}
}

func TestHTTPGatewayFreshIdempotencyKeyPerAttempt(t *testing.T) {
	keys := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys[r.Header.Get("Idempotency-Key")] = true
		json.NewEncoder(w).Encode(Intent{ID: "pi_1"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk", time.Second)
	gw.CreateIntent(context.Background(), 1000, "usd", nil)
	gw.CreateIntent(context.Background(), 1000, "usd", nil)
	if len(keys) != 2 {
		t.Fatalf("got %d distinct keys, want 2", len(keys))
	}
}

func TestHTTPGatewayMapsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk", time.Second)
	_, err := gw.CreateIntent(context.Background(), 1000, "usd", nil)
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GatewayError", err)
	}
	if ge.Code != "card_declined" || ge.HTTPStatus != http.StatusPaymentRequired {
		t.Fatalf("error %+v", ge)
	}
}

func TestHTTPGatewayMapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	gw := NewHTTPGateway(srv.URL, "sk", 200*time.Millisecond)
	_, err := gw.CreateRefund(context.Background(), "pi_1", 1000, "")
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Code != "network_error" {
		t.Fatalf("err = %v, want network_error GatewayError", err)
	}
}

func TestHTTPGatewayCreateRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/refunds" {
			t.Errorf("path %q", r.URL.Path)
		}
		var body refundRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.PaymentIntent != "pi_1" || body.Amount != 5000 || body.Reason != "requested_by_customer" {
			t.Errorf("request body %+v", body)
		}
		json.NewEncoder(w).Encode(Refund{ID: "re_1", Amount: 5000, Status: "succeeded"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk", time.Second)
	ref, err := gw.CreateRefund(context.Background(), "pi_1", 5000, "requested_by_customer")
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}
	if ref.ID != "re_1" || ref.Status != "succeeded" {
		t.Fatalf("refund %+v", ref)
	}
}
