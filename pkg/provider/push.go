package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type pushProvider struct {
	url    string
	secret string
	client *http.Client
}

// PushOption configures the push provider.
type PushOption func(*pushProvider)

// WithPushHTTPClient replaces the default HTTP client.
func WithPushHTTPClient(client *http.Client) PushOption {
	return func(p *pushProvider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewPushProvider delivers push payloads to a downstream gateway over a
// signed webhook. When a secret is set, requests carry an HMAC-SHA256
// signature bound to a timestamp (Stripe-style) so the gateway can reject
// forged or replayed deliveries.
func NewPushProvider(url, secret string, opts ...PushOption) Provider {
	p := &pushProvider{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pushProvider) Name() string { return "push-webhook" }

func (p *pushProvider) ValidatePayload(payload Payload) error {
	pp, ok := payload.(PushPayload)
	if !ok {
		return fmt.Errorf("%w: want PushPayload, got %T", ErrPayloadType, payload)
	}
	if pp.DeviceToken == "" {
		return fmt.Errorf("%w: deviceToken", ErrMissingField)
	}
	if pp.Title == "" && pp.Body == "" {
		return fmt.Errorf("%w: title or body", ErrMissingField)
	}
	return nil
}

func (p *pushProvider) Send(ctx context.Context, payload Payload) Result {
	pp, ok := payload.(PushPayload)
	if !ok {
		return Failure(CodeInvalidPayload, fmt.Sprintf("want PushPayload, got %T", payload), false)
	}

	body, err := json.Marshal(pp)
	if err != nil {
		return Failure(CodeInvalidPayload, fmt.Sprintf("marshal payload: %v", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Failure(CodeSendFailed, fmt.Sprintf("build request: %v", err), false)
	}
	req.Header.Set("Content-Type", "application/json")

	deliveryID := uuid.New().String()
	req.Header.Set("X-Webhook-ID", deliveryID)
	if p.secret != "" {
		timestamp := time.Now().Unix()
		req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))
		req.Header.Set("X-Webhook-Signature", signPushPayload(p.secret, timestamp, body))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Failure(CodeSendFailed, fmt.Sprintf("send request: %v", err), true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return Failure(CodeSendFailed, fmt.Sprintf("push gateway error: %s", resp.Status), retryable)
	}

	return Success(deliveryID)
}

// signPushPayload binds the signature to the timestamp so replayed requests
// fall outside the gateway's acceptance window.
func signPushPayload(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)
	return hex.EncodeToString(h.Sum(nil))
}
