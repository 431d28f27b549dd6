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
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// AamarpayClient talks to the redirect-style gateway: Initiate returns a
// hosted payment page URL, and the gateway later posts the outcome to our
// callback endpoints through the payer's browser.
type AamarpayClient struct {
	BaseURL      string
	VerifyURL    string
	StoreID      string
	SignatureKey string
	client       *http.Client
	verifyClient *retryablehttp.Client
}

func NewAamarpayClient(baseURL, verifyURL, storeID, signatureKey string, timeout time.Duration) *AamarpayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	vc := retryablehttp.NewClient()
	vc.RetryMax = 3
	vc.HTTPClient.Timeout = timeout
	vc.Logger = nil
	return &AamarpayClient{
		BaseURL:      baseURL,
		VerifyURL:    verifyURL,
		StoreID:      storeID,
		SignatureKey: signatureKey,
		client:       &http.Client{Timeout: timeout},
		verifyClient: vc,
	}
}

// InitiateParams carries the transaction plus the opaque pass-through fields
// (OptA..OptD) that the gateway echoes back on its callbacks.
type InitiateParams struct {
	TranID        string
	AmountCents   int64
	Currency      string
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	OptA          string
	OptB          string
	OptC          string
	OptD          string
}

type aamarpayInitiateReq struct {
	StoreID      string `json:"store_id"`
	SignatureKey string `json:"signature_key"`
	TranID       string `json:"tran_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Desc         string `json:"desc"`
	CusName      string `json:"cus_name"`
	CusEmail     string `json:"cus_email"`
	CusPhone     string `json:"cus_phone"`
	SuccessURL   string `json:"success_url"`
	FailURL      string `json:"fail_url"`
	CancelURL    string `json:"cancel_url"`
	OptA         string `json:"opt_a"`
	OptB         string `json:"opt_b"`
	OptC         string `json:"opt_c"`
	OptD         string `json:"opt_d"`
	Type         string `json:"type"`
}

type aamarpayInitiateResp struct {
	Result     string `json:"result"`
	PaymentURL string `json:"payment_url"`
}

// Initiate registers the transaction and returns the hosted payment page URL.
func (c *AamarpayClient) Initiate(ctx context.Context, p InitiateParams) (string, error) {
	payload := aamarpayInitiateReq{
		StoreID:      c.StoreID,
		SignatureKey: c.SignatureKey,
		TranID:       p.TranID,
		Amount:       FormatAmount(p.AmountCents),
		Currency:     p.Currency,
		Desc:         p.Description,
		CusName:      p.CustomerName,
		CusEmail:     p.CustomerEmail,
		CusPhone:     p.CustomerPhone,
		SuccessURL:   p.SuccessURL,
		FailURL:      p.FailURL,
		CancelURL:    p.CancelURL,
		OptA:         p.OptA,
		OptB:         p.OptB,
		OptC:         p.OptC,
		OptD:         p.OptD,
		Type:         "json",
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	log.Printf("[Aamarpay] POST %s tran_id=%s amount=%s", c.BaseURL, p.TranID, payload.Amount)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("aamarpay initiate: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{Gateway: "aamarpay", Status: resp.StatusCode, Body: string(respBody)}
	}
	var out aamarpayInitiateResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("aamarpay initiate decode: %w", err)
	}
	if out.Result != "true" || out.PaymentURL == "" {
		log.Printf("[Aamarpay] initiate rejected tran_id=%s body=%s", p.TranID, string(respBody))
		return "", &GatewayError{Gateway: "aamarpay", Status: resp.StatusCode, Body: string(respBody)}
	}
	return out.PaymentURL, nil
}

// SignCallback computes the signature the gateway attaches to callbacks as
// verify_sign: HMAC-SHA256 over "tran_id|amount|status_code" with the store
// signature key, hex encoded.
func SignCallback(signatureKey, tranID, amount, statusCode string) string {
	mac := hmac.New(sha256.New, []byte(signatureKey))
	fmt.Fprintf(mac, "%s|%s|%s", tranID, amount, statusCode)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackSignature checks verify_sign in constant time.
func (c *AamarpayClient) VerifyCallbackSignature(tranID, amount, statusCode, verifySign string) bool {
	expected := SignCallback(c.SignatureKey, tranID, amount, statusCode)
	return hmac.Equal([]byte(expected), []byte(verifySign))
}

type aamarpayVerifyResp struct {
	PayStatus string `json:"pay_status"`
	Amount    string `json:"amount"`
}

// VerifyTransaction confirms a callback server-to-server. It is read-only at
// the gateway, so retrying on transient failures is safe. A client without a
// VerifyURL configured reports true and relies on the signature check alone.
func (c *AamarpayClient) VerifyTransaction(ctx context.Context, tranID string) (bool, error) {
	if c.VerifyURL == "" {
		return true, nil
	}
	u := fmt.Sprintf("%s?request_id=%s&store_id=%s&signature_key=%s&type=json",
		c.VerifyURL, url.QueryEscape(tranID), url.QueryEscape(c.StoreID), url.QueryEscape(c.SignatureKey))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.verifyClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("aamarpay verify: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return false, &GatewayError{Gateway: "aamarpay", Status: resp.StatusCode, Body: string(respBody)}
	}
	var out aamarpayVerifyResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return false, fmt.Errorf("aamarpay verify decode: %w", err)
	}
	return out.PayStatus == "Successful", nil
}

// FormatAmount renders cents as a major-unit decimal string, the format the
// gateway expects and echoes back on callbacks.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParseAmount converts a gateway decimal amount string back to cents.
func ParseAmount(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(f * 100)), nil
}
