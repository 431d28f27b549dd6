package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fundify/config"
	"fundify/internal/domain"
	"fundify/internal/middleware"
	"fundify/internal/models"
	"fundify/internal/repository"
	"fundify/internal/service"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RedirectPaymentHandler drives the redirect-style gateway flow: Initiate
// sends the payer to the gateway's hosted page, and the gateway later posts
// the outcome back through the payer's browser to the callback endpoints.
// Callbacks always answer with a redirect to the frontend, never JSON, because
// the requester is a browser mid-payment.
type RedirectPaymentHandler struct {
	aamarpay    *payment.AamarpayClient
	campaigns   CampaignGetter
	userRepo    *repository.UserRepository
	reconcile   DonationRecorder
	audit       service.AuditStore
	cfg         *config.AamarpayConfig
	frontendURL string
}

func NewRedirectPaymentHandler(aamarpay *payment.AamarpayClient, campaigns CampaignGetter, userRepo *repository.UserRepository, reconcile DonationRecorder, audit service.AuditStore, cfg *config.AamarpayConfig, frontendURL string) *RedirectPaymentHandler {
	return &RedirectPaymentHandler{
		aamarpay:    aamarpay,
		campaigns:   campaigns,
		userRepo:    userRepo,
		reconcile:   reconcile,
		audit:       audit,
		cfg:         cfg,
		frontendURL: frontendURL,
	}
}

func newTranID() string {
	return fmt.Sprintf("TRAN_%d_%s", time.Now().UnixNano(), strings.Split(uuid.NewString(), "-")[0])
}

func (h *RedirectPaymentHandler) Initiate(c *gin.Context) {
	var req struct {
		CampaignID uint    `json:"campaign_id" binding:"required"`
		Amount     float64 `json:"amount" binding:"required"`
		Message    string  `json:"message"`
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Phone      string  `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amountCents := toCents(req.Amount)
	if amountCents < domain.MinAmountCents {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minimum donation is 1"})
		return
	}
	campaign, err := h.campaigns.GetByID(req.CampaignID)
	if err != nil {
		respondError(c, err)
		return
	}
	if campaign.Status != domain.CampaignStatusActive || !campaign.EndDate.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign is not accepting donations"})
		return
	}

	donor := payment.AnonymousDonor
	name, email := req.Name, req.Email
	if id := middleware.GetUserID(c); id != 0 {
		donor = strconv.FormatUint(uint64(id), 10)
		if u, err := h.userRepo.GetByID(id); err == nil {
			if name == "" {
				name = u.Name
			}
			if email == "" {
				email = u.Email
			}
		}
	}
	if name == "" {
		name = "Anonymous Donor"
	}
	if email == "" {
		email = "donor@fundify.local"
	}

	tranID := newTranID()
	base := h.cfg.CallbackBaseURL + "/api/v1/payments/aamarpay"
	paymentURL, err := h.aamarpay.Initiate(c.Request.Context(), payment.InitiateParams{
		TranID:        tranID,
		AmountCents:   amountCents,
		Currency:      h.cfg.Currency,
		Description:   fmt.Sprintf("Donation to %s", campaign.Title),
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: req.Phone,
		SuccessURL:    base + "/success",
		FailURL:       base + "/fail",
		CancelURL:     base + "/cancel",
		OptA:          strconv.FormatUint(uint64(campaign.ID), 10),
		OptB:          donor,
		OptC:          req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_url":    paymentURL,
		"transaction_id": tranID,
	})
}

// Success handles the gateway's post-payment callback. The outcome is only
// trusted after the callback signature checks out and the transaction is
// confirmed server-to-server; anything short of that redirects the payer to
// the failure page without touching the ledger.
func (h *RedirectPaymentHandler) Success(c *gin.Context) {
	tranID := c.PostForm("mer_txnid")
	amount := c.PostForm("amount")
	statusCode := c.PostForm("status_code")
	verifySign := c.PostForm("verify_sign")
	optA := c.PostForm("opt_a")
	optB := c.PostForm("opt_b")
	optC := c.PostForm("opt_c")

	if !h.aamarpay.VerifyCallbackSignature(tranID, amount, statusCode, verifySign) {
		log.Printf("[Aamarpay] callback signature mismatch tran_id=%s from %s", tranID, c.ClientIP())
		h.redirectFailure(c, tranID)
		return
	}
	if statusCode != "2" {
		log.Printf("[Aamarpay] success callback with non-success status_code=%s tran_id=%s", statusCode, tranID)
		h.redirectFailure(c, tranID)
		return
	}
	ok, err := h.aamarpay.VerifyTransaction(c.Request.Context(), tranID)
	if err != nil || !ok {
		log.Printf("[Aamarpay] transaction verification failed tran_id=%s ok=%t err=%v", tranID, ok, err)
		h.redirectFailure(c, tranID)
		return
	}

	campaignID, err := strconv.ParseUint(optA, 10, 32)
	if err != nil {
		log.Printf("[Aamarpay] callback missing campaign reference tran_id=%s opt_a=%q", tranID, optA)
		h.redirectFailure(c, tranID)
		return
	}
	amountCents, err := payment.ParseAmount(amount)
	if err != nil {
		log.Printf("[Aamarpay] callback with unparseable amount tran_id=%s amount=%q", tranID, amount)
		h.redirectFailure(c, tranID)
		return
	}
	var donorID *uint
	if optB != "" && optB != payment.AnonymousDonor {
		if id, err := strconv.ParseUint(optB, 10, 32); err == nil {
			v := uint(id)
			donorID = &v
		}
	}

	_, err = h.reconcile.RecordDonation(c.Request.Context(), service.RecordDonationInput{
		CampaignID:    uint(campaignID),
		AmountCents:   amountCents,
		DonorID:       donorID,
		Anonymous:     donorID == nil,
		Gateway:       domain.GatewayAamarpay,
		ExternalTxnID: tranID,
		Message:       optC,
		Payload:       c.Request.PostForm.Encode(),
	})
	if err != nil {
		// Money was captured; the event is parked in the anomaly queue. The
		// payer still paid, so send them to the failure page to contact support.
		h.redirectFailure(c, tranID)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/payment-success?tid=%s&amount=%s", h.frontendURL, tranID, amount))
}

func (h *RedirectPaymentHandler) Fail(c *gin.Context) {
	tranID := c.PostForm("mer_txnid")
	log.Printf("[Aamarpay] payment failed tran_id=%s reason=%s", tranID, c.PostForm("failed_reason"))
	_ = h.audit.Create(&models.AuditLog{
		Action:     "payment_failed",
		Resource:   "transaction",
		ResourceID: tranID,
		Detail:     c.PostForm("failed_reason"),
	})
	h.redirectFailure(c, tranID)
}

func (h *RedirectPaymentHandler) Cancel(c *gin.Context) {
	tranID := c.PostForm("mer_txnid")
	log.Printf("[Aamarpay] payment cancelled tran_id=%s", tranID)
	_ = h.audit.Create(&models.AuditLog{
		Action:     "payment_cancelled",
		Resource:   "transaction",
		ResourceID: tranID,
	})
	c.Redirect(http.StatusFound, h.frontendURL+"/payment-cancelled")
}

func (h *RedirectPaymentHandler) redirectFailure(c *gin.Context, tranID string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/payment-failure?tid="+tranID)
}
