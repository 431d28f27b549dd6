package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"fundify/internal/domain"
	"fundify/internal/middleware"
	"fundify/internal/models"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
)

// CampaignGetter is the read slice of the campaign store the payment
// handlers need.
type CampaignGetter interface {
	GetByID(id uint) (*models.Campaign, error)
}

// PaymentIntentHandler opens hosted-checkout payments on the card gateway.
// Nothing is recorded here; the donation lands when the signed webhook
// confirms the capture.
type PaymentIntentHandler struct {
	cardpay   *payment.CardpayClient
	campaigns CampaignGetter
	currency  string
}

func NewPaymentIntentHandler(cardpay *payment.CardpayClient, campaigns CampaignGetter, currency string) *PaymentIntentHandler {
	return &PaymentIntentHandler{cardpay: cardpay, campaigns: campaigns, currency: currency}
}

func (h *PaymentIntentHandler) CreateIntent(c *gin.Context) {
	var req struct {
		CampaignID uint    `json:"campaign_id" binding:"required"`
		Amount     float64 `json:"amount" binding:"required"`
		Message    string  `json:"message"`
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
	if campaign.Status != domain.CampaignStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign is not accepting donations"})
		return
	}

	donor := payment.AnonymousDonor
	if id := middleware.GetUserID(c); id != 0 {
		donor = strconv.FormatUint(uint64(id), 10)
	}
	metadata := map[string]string{
		payment.MetaCampaignID: strconv.FormatUint(uint64(campaign.ID), 10),
		payment.MetaDonorID:    donor,
		payment.MetaMessage:    req.Message,
	}
	intent, err := h.cardpay.CreateIntent(c.Request.Context(), amountCents, h.currency,
		fmt.Sprintf("Donation to %s", campaign.Title), metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}
