package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"fundify/internal/domain"
	"fundify/internal/models"
	"fundify/internal/service"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
)

// DonationRecorder is the reconciliation entry point the payment handlers
// feed confirmed events into.
type DonationRecorder interface {
	RecordDonation(ctx context.Context, in service.RecordDonationInput) (*models.Donation, error)
}

// PaymentWebhookHandler receives asynchronous confirmations from the card
// gateway. Signature verification fails closed: an unverifiable event mutates
// nothing and is rejected so the gateway redelivers it.
type PaymentWebhookHandler struct {
	webhookSecret string
	reconcile     DonationRecorder
	audit         service.AuditStore
}

func NewPaymentWebhookHandler(webhookSecret string, reconcile DonationRecorder, audit service.AuditStore) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{webhookSecret: webhookSecret, reconcile: reconcile, audit: audit}
}

func (h *PaymentWebhookHandler) HandleCardpay(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	sig := c.GetHeader("X-Cardpay-Signature")
	if sig == "" || !payment.VerifyWebhookSignature(h.webhookSecret, body, sig) {
		log.Printf("[Webhook] cardpay signature verification failed from %s", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
		return
	}

	switch event.Type {
	case payment.EventIntentSucceeded:
		obj := event.Data.Object
		campaignID, err := strconv.ParseUint(obj.Metadata[payment.MetaCampaignID], 10, 32)
		if err != nil {
			log.Printf("[Webhook] cardpay event %s missing campaign metadata", event.ID)
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing campaign metadata"})
			return
		}
		var donorID *uint
		if raw := obj.Metadata[payment.MetaDonorID]; raw != "" && raw != payment.AnonymousDonor {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				v := uint(id)
				donorID = &v
			}
		}
		_, err = h.reconcile.RecordDonation(c.Request.Context(), service.RecordDonationInput{
			CampaignID:    uint(campaignID),
			AmountCents:   obj.AmountCents,
			DonorID:       donorID,
			Anonymous:     donorID == nil,
			Gateway:       domain.GatewayCardpay,
			ExternalTxnID: obj.ID,
			Message:       obj.Metadata[payment.MetaMessage],
			Payload:       string(body),
		})
		if err != nil {
			// The event is dead-lettered already. A missing campaign will not
			// heal on redelivery, so acknowledge it; anything else gets a 500
			// and the gateway's retry, which the idempotency key absorbs.
			if errorsIsPermanent(err) {
				c.JSON(http.StatusOK, gin.H{"received": true})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
			return
		}

	case payment.EventIntentFailed:
		obj := event.Data.Object
		log.Printf("[Webhook] cardpay payment failed intent=%s campaign=%s: %s",
			obj.ID, obj.Metadata[payment.MetaCampaignID], obj.FailureMsg)
		_ = h.audit.Create(&models.AuditLog{
			Action:     "payment_failed",
			Resource:   "payment_intent",
			ResourceID: obj.ID,
			Detail:     obj.FailureMsg,
		})

	default:
		log.Printf("[Webhook] cardpay unhandled event type %q id=%s", event.Type, event.ID)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func errorsIsPermanent(err error) bool {
	return errors.Is(err, domain.ErrCampaignNotFound) || errors.Is(err, domain.ErrValidation)
}
