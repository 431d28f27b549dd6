package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// CardpayClient talks to the hosted-checkout card gateway. Creating an intent
// only reserves intent to pay; confirmation arrives later on the signed
// webhook.
type CardpayClient struct {
	BaseURL   string
	SecretKey string
	client    *http.Client
}

func NewCardpayClient(baseURL, secretKey string, timeout time.Duration) *CardpayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CardpayClient{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type cardpayIntentReq struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// Intent is the gateway's view of a not-yet-confirmed payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreateIntent registers a payment intent with the gateway. Metadata is opaque
// to the gateway and comes back verbatim on the confirmation webhook.
func (c *CardpayClient) CreateIntent(ctx context.Context, amountCents int64, currency, description string, metadata map[string]string) (*Intent, error) {
	payload := cardpayIntentReq{
		AmountCents: amountCents,
		Currency:    currency,
		Description: description,
		Metadata:    metadata,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cardpay intent: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[Cardpay] intent rejected status=%d body=%s", resp.StatusCode, string(respBody))
		return nil, &GatewayError{Gateway: "cardpay", Status: resp.StatusCode, Body: string(respBody)}
	}
	var out Intent
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("cardpay intent decode: %w", err)
	}
	if out.ID == "" || out.ClientSecret == "" {
		return nil, &GatewayError{Gateway: "cardpay", Status: resp.StatusCode, Body: string(respBody)}
	}
	return &out, nil
}

// WebhookEvent is the envelope the gateway posts to our webhook endpoint.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountCents int64             `json:"amount"`
			Currency    string            `json:"currency"`
			Metadata    map[string]string `json:"metadata"`
			FailureMsg  string            `json:"failure_message"`
		} `json:"object"`
	} `json:"data"`
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// SignWebhookBody computes the signature the gateway sends in the
// X-Cardpay-Signature header: hex HMAC-SHA256 of the raw request body.
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the header value in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	expected := SignWebhookBody(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
