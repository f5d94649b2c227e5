// Package payment implements the card-processing slice of the
// marketplace: a gateway client adapter, the payment status machine
// and the webhook event dispatcher.  The status machine depends only
// on narrow store interfaces so it can be exercised without a real
// database or gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Intent is the gateway-side object representing an in-progress
// charge.  ID correlates our local Payment record with webhook
// events; ClientSecret is handed to the browser to finish the charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Refund is the gateway's confirmation of a refund request.
type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// GatewayError is any failure reported by the payment gateway:
// network errors, validation rejections, insufficient funds.  It is
// always surfaced to the caller and never swallowed.
type GatewayError struct {
	Code       string // gateway error code, "network_error" for transport failures
	Message    string
	HTTPStatus int // response status, 0 for transport failures
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Code, e.Message)
	}
	return "gateway: " + e.Message
}

// Gateway abstracts the external payment provider.  Both operations
// are synchronous network round-trips; asynchronous outcome arrives
// later via webhooks.  Implementations must return *GatewayError for
// every provider-side failure.
type Gateway interface {
	// CreateIntent registers a charge of amountCents in the given
	// ISO 4217 currency.  Metadata is echoed back on webhook events
	// and in the provider dashboard.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	// CreateRefund reverses up to amountCents of a previously
	// completed intent.
	CreateRefund(ctx context.Context, intentID string, amountCents int64, reason string) (Refund, error)
}

// HTTPGateway talks JSON to the provider's REST API.  Every request
// carries a bearer key and a fresh Idempotency-Key header so a
// retried request can never double-charge, and the embedded client
// enforces a bounded timeout.
type HTTPGateway struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

// NewHTTPGateway builds a gateway client for the given API base URL
// and secret key.  The timeout bounds each round-trip; zero falls
// back to 15 seconds.
func NewHTTPGateway(baseURL, secretKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: timeout},
	}
}

type intentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type refundRequest struct {
	PaymentIntent string `json:"payment_intent"`
	Amount        int64  `json:"amount"`
	Reason        string `json:"reason,omitempty"`
}

// gatewayErrorBody mirrors the provider's error envelope.
type gatewayErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent implements Gateway.
func (g *HTTPGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	var out Intent
	err := g.post(ctx, "/v1/payment_intents", intentRequest{
		Amount:   amountCents,
		Currency: currency,
		Metadata: metadata,
	}, &out)
	return out, err
}

// CreateRefund implements Gateway.
func (g *HTTPGateway) CreateRefund(ctx context.Context, intentID string, amountCents int64, reason string) (Refund, error) {
	var out Refund
	err := g.post(ctx, "/v1/refunds", refundRequest{
		PaymentIntent: intentID,
		Amount:        amountCents,
		Reason:        reason,
	}, &out)
	return out, err
}

// post sends one JSON request and decodes the response into out.
// Non-2xx responses are decoded into the provider's error envelope
// and returned as *GatewayError.
func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &GatewayError{Code: "encode_error", Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &GatewayError{Code: "request_error", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.SecretKey)
	// One key per attempt: a network retry of this exact call may be
	// deduplicated by the provider, a new business operation gets a
	// new key.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := g.Client.Do(req)
	if err != nil {
		return &GatewayError{Code: "network_error", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &GatewayError{Code: "read_error", Message: err.Error(), HTTPStatus: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb gatewayErrorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			return &GatewayError{Code: eb.Error.Code, Message: eb.Error.Message, HTTPStatus: resp.StatusCode}
		}
		return &GatewayError{Code: "http_error", Message: http.StatusText(resp.StatusCode), HTTPStatus: resp.StatusCode}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &GatewayError{Code: "decode_error", Message: err.Error(), HTTPStatus: resp.StatusCode}
	}
	return nil
}
