package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fundify/config"
	"fundify/internal/domain"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSignatureKey = "sig_test"
	testFrontendURL  = "http://localhost:3000"
)

func newCallbackRouter(rec *stubRecorder, audit *stubAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	// No VerifyURL: callbacks are authenticated by signature alone.
	client := payment.NewAamarpayClient("http://gateway.invalid", "", "store", testSignatureKey, time.Second)
	cfg := &config.AamarpayConfig{
		StoreID:         "store",
		SignatureKey:    testSignatureKey,
		Currency:        "BDT",
		CallbackBaseURL: "http://localhost:8090",
	}
	h := NewRedirectPaymentHandler(client, nil, nil, rec, audit, cfg, testFrontendURL)
	r := gin.New()
	r.POST("/api/v1/payments/aamarpay/success", h.Success)
	r.POST("/api/v1/payments/aamarpay/fail", h.Fail)
	r.POST("/api/v1/payments/aamarpay/cancel", h.Cancel)
	return r
}

func postCallback(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func successForm(tranID, amount, statusCode, campaignID, donor string) url.Values {
	return url.Values{
		"mer_txnid":   {tranID},
		"amount":      {amount},
		"status_code": {statusCode},
		"verify_sign": {payment.SignCallback(testSignatureKey, tranID, amount, statusCode)},
		"opt_a":       {campaignID},
		"opt_b":       {donor},
		"opt_c":       {"keep going"},
	}
}

func TestSuccessCallbackRecordsAndRedirects(t *testing.T) {
	rec := &stubRecorder{}
	r := newCallbackRouter(rec, &stubAudit{})

	w := postCallback(r, "/api/v1/payments/aamarpay/success",
		successForm("TRAN_1_ab", "150.00", "2", "7", "3"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), testFrontendURL+"/payment-success")
	assert.Contains(t, w.Header().Get("Location"), "tid=TRAN_1_ab")

	require.Len(t, rec.calls, 1)
	in := rec.calls[0]
	assert.Equal(t, uint(7), in.CampaignID)
	assert.Equal(t, int64(15000), in.AmountCents)
	require.NotNil(t, in.DonorID)
	assert.Equal(t, uint(3), *in.DonorID)
	assert.Equal(t, domain.GatewayAamarpay, in.Gateway)
	assert.Equal(t, "TRAN_1_ab", in.ExternalTxnID)
	assert.Equal(t, "keep going", in.Message)
}

func TestSuccessCallbackAnonymousDonor(t *testing.T) {
	rec := &stubRecorder{}
	r := newCallbackRouter(rec, &stubAudit{})

	w := postCallback(r, "/api/v1/payments/aamarpay/success",
		successForm("TRAN_2_cd", "5.00", "2", "7", payment.AnonymousDonor))

	assert.Equal(t, http.StatusFound, w.Code)
	require.Len(t, rec.calls, 1)
	assert.Nil(t, rec.calls[0].DonorID)
	assert.True(t, rec.calls[0].Anonymous)
}

func TestSuccessCallbackRejectsTamperedAmount(t *testing.T) {
	rec := &stubRecorder{}
	r := newCallbackRouter(rec, &stubAudit{})

	form := successForm("TRAN_3_ef", "150.00", "2", "7", "3")
	form.Set("amount", "1.00") // no longer matches verify_sign

	w := postCallback(r, "/api/v1/payments/aamarpay/success", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/payment-failure")
	assert.Empty(t, rec.calls, "tampered callbacks must not touch the ledger")
}

func TestSuccessCallbackRejectsForgedSignature(t *testing.T) {
	rec := &stubRecorder{}
	r := newCallbackRouter(rec, &stubAudit{})

	form := successForm("TRAN_4_gh", "9.99", "2", "7", "3")
	form.Set("verify_sign", "0000")

	w := postCallback(r, "/api/v1/payments/aamarpay/success", form)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/payment-failure")
	assert.Empty(t, rec.calls)
}

func TestSuccessCallbackNonSuccessStatus(t *testing.T) {
	rec := &stubRecorder{}
	r := newCallbackRouter(rec, &stubAudit{})

	// Correctly signed, but the gateway says the payment did not go through.
	w := postCallback(r, "/api/v1/payments/aamarpay/success",
		successForm("TRAN_5_ij", "9.99", "7", "7", "3"))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/payment-failure")
	assert.Empty(t, rec.calls)
}

func TestFailCallbackAuditsAndRedirects(t *testing.T) {
	rec := &stubRecorder{}
	audit := &stubAudit{}
	r := newCallbackRouter(rec, audit)

	w := postCallback(r, "/api/v1/payments/aamarpay/fail", url.Values{
		"mer_txnid":     {"TRAN_6_kl"},
		"failed_reason": {"insufficient funds"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/payment-failure")
	assert.Empty(t, rec.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "payment_failed", audit.logs[0].Action)
}

func TestCancelCallbackRedirects(t *testing.T) {
	rec := &stubRecorder{}
	audit := &stubAudit{}
	r := newCallbackRouter(rec, audit)

	w := postCallback(r, "/api/v1/payments/aamarpay/cancel", url.Values{
		"mer_txnid": {"TRAN_7_mn"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/payment-cancelled")
	assert.Empty(t, rec.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "payment_cancelled", audit.logs[0].Action)
}
