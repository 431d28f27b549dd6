package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateReturnsPaymentURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "store-1", req["store_id"])
		assert.Equal(t, "TRAN_1", req["tran_id"])
		assert.Equal(t, "50.00", req["amount"])
		assert.Equal(t, "17", req["opt_a"])
		assert.Equal(t, "json", req["type"])

		json.NewEncoder(w).Encode(map[string]string{
			"result":      "true",
			"payment_url": "https://pay.example.com/TRAN_1",
		})
	}))
	defer srv.Close()

	c := NewAamarpayClient(srv.URL, "", "store-1", "sig-key", 5*time.Second)
	url, err := c.Initiate(context.Background(), InitiateParams{
		TranID:        "TRAN_1",
		AmountCents:   5000,
		Currency:      "BDT",
		CustomerName:  "Jane",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "01700000000",
		OptA:          "17",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/TRAN_1", url)
}

func TestInitiateGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"result": "false", "reason": "invalid store"})
	}))
	defer srv.Close()

	c := NewAamarpayClient(srv.URL, "", "store-1", "sig-key", 5*time.Second)
	_, err := c.Initiate(context.Background(), InitiateParams{TranID: "TRAN_2", AmountCents: 5000})
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Contains(t, gwErr.Body, "invalid store")
}

func TestVerifyCallbackSignature(t *testing.T) {
	c := NewAamarpayClient("http://unused", "", "store-1", "sig-key", time.Second)
	good := SignCallback("sig-key", "TRAN_1", "50.00", "2")

	assert.True(t, c.VerifyCallbackSignature("TRAN_1", "50.00", "2", good))
	assert.False(t, c.VerifyCallbackSignature("TRAN_1", "50.00", "2", "deadbeef"))
	assert.False(t, c.VerifyCallbackSignature("TRAN_1", "99.00", "2", good), "signature must bind the amount")
	assert.False(t, c.VerifyCallbackSignature("TRAN_1", "50.00", "7", good), "signature must bind the status code")
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TRAN_1", r.URL.Query().Get("request_id"))
		json.NewEncoder(w).Encode(map[string]string{"pay_status": "Successful", "amount": "50.00"})
	}))
	defer srv.Close()

	c := NewAamarpayClient("http://unused", srv.URL, "store-1", "sig-key", 5*time.Second)
	ok, err := c.VerifyTransaction(context.Background(), "TRAN_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyTransactionSkippedWithoutURL(t *testing.T) {
	c := NewAamarpayClient("http://unused", "", "store-1", "sig-key", time.Second)
	ok, err := c.VerifyTransaction(context.Background(), "TRAN_1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAmountRoundTrip(t *testing.T) {
	tests := []struct {
		cents int64
		str   string
	}{
		{5000, "50.00"},
		{100, "1.00"},
		{105, "1.05"},
		{999999, "9999.99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.str, FormatAmount(tt.cents))
		got, err := ParseAmount(tt.str)
		require.NoError(t, err)
		assert.Equal(t, tt.cents, got)
	}

	_, err := ParseAmount("not-a-number")
	assert.Error(t, err)
}
