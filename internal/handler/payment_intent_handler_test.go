package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fundify/internal/domain"
	"fundify/internal/models"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCampaigns struct {
	campaigns map[uint]*models.Campaign
}

func (s *stubCampaigns) GetByID(id uint) (*models.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	return c, nil
}

func newIntentRouter(campaigns CampaignGetter, gatewayURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client := payment.NewCardpayClient(gatewayURL, "sk_test", time.Second)
	h := NewPaymentIntentHandler(client, campaigns, "USD")
	r := gin.New()
	r.POST("/api/v1/payments/intent", h.CreateIntent)
	return r
}

func postIntent(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/intent", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIntentRejectsBelowMinimum(t *testing.T) {
	r := newIntentRouter(&stubCampaigns{}, "http://gateway.invalid")

	w := postIntent(r, gin.H{"campaign_id": 1, "amount": 0.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIntentUnknownCampaign(t *testing.T) {
	r := newIntentRouter(&stubCampaigns{campaigns: map[uint]*models.Campaign{}}, "http://gateway.invalid")

	w := postIntent(r, gin.H{"campaign_id": 99, "amount": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateIntentRejectsNonActiveCampaign(t *testing.T) {
	store := &stubCampaigns{campaigns: map[uint]*models.Campaign{
		5: {ID: 5, Title: "Done", Status: domain.CampaignStatusCompleted},
	}}
	r := newIntentRouter(store, "http://gateway.invalid")

	w := postIntent(r, gin.H{"campaign_id": 5, "amount": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIntentReturnsClientSecret(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/v1/payment_intents", req.URL.Path)
		assert.Equal(t, "Bearer sk_test", req.Header.Get("Authorization"))
		var body struct {
			AmountCents int64             `json:"amount"`
			Currency    string            `json:"currency"`
			Metadata    map[string]string `json:"metadata"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, int64(2550), body.AmountCents)
		assert.Equal(t, "USD", body.Currency)
		assert.Equal(t, "5", body.Metadata[payment.MetaCampaignID])
		assert.Equal(t, payment.AnonymousDonor, body.Metadata[payment.MetaDonorID])
		json.NewEncoder(w).Encode(gin.H{
			"id":            "pi_test",
			"client_secret": "pi_test_secret",
			"status":        "requires_payment_method",
		})
	}))
	defer gateway.Close()

	store := &stubCampaigns{campaigns: map[uint]*models.Campaign{
		5: {ID: 5, Title: "Clean Water", Status: domain.CampaignStatusActive},
	}}
	r := newIntentRouter(store, gateway.URL)

	w := postIntent(r, gin.H{"campaign_id": 5, "amount": 25.5})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ClientSecret    string `json:"clientSecret"`
		PaymentIntentID string `json:"paymentIntentId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_test_secret", resp.ClientSecret)
	assert.Equal(t, "pi_test", resp.PaymentIntentID)
}

func TestCreateIntentGatewayRejection(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"account disabled"}`))
	}))
	defer gateway.Close()

	store := &stubCampaigns{campaigns: map[uint]*models.Campaign{
		5: {ID: 5, Title: "Clean Water", Status: domain.CampaignStatusActive},
	}}
	r := newIntentRouter(store, gateway.URL)

	w := postIntent(r, gin.H{"campaign_id": 5, "amount": 10})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
