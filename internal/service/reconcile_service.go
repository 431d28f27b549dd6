package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"fundify/internal/domain"
	"fundify/internal/models"

	"github.com/sethvargo/go-retry"
)

// CampaignStore is the slice of the campaign repository the reconciliation
// engine needs: the single sanctioned donation write path.
type CampaignStore interface {
	AppendDonation(d *models.Donation) (*models.Donation, bool, error)
}

type AnomalyStore interface {
	Create(a *models.PaymentAnomaly) error
}

type AuditStore interface {
	Create(l *models.AuditLog) error
}

// Broadcaster pushes newly recorded donations to live feed subscribers.
type Broadcaster interface {
	BroadcastAll(payload interface{})
}

// ReconcileService converts confirmed external payment events into durable
// ledger mutations. It is the only component that writes donations; both
// payment adapters feed it. Duplicate deliveries are absorbed, terminal
// campaigns are flagged rather than rejected, and a confirmed payment that
// cannot be recorded is dead-lettered, never dropped.
type ReconcileService struct {
	store      CampaignStore
	anomalies  AnomalyStore
	audit      AuditStore
	feed       Broadcaster
	maxRetries uint64
	retryBase  time.Duration
}

func NewReconcileService(store CampaignStore, anomalies AnomalyStore, audit AuditStore, feed Broadcaster) *ReconcileService {
	return &ReconcileService{
		store:      store,
		anomalies:  anomalies,
		audit:      audit,
		feed:       feed,
		maxRetries: 4,
		retryBase:  100 * time.Millisecond,
	}
}

// RecordDonationInput identifies one confirmed payment. (Gateway,
// ExternalTxnID) is the idempotency key; Payload is the raw gateway event,
// kept only for dead-lettering.
type RecordDonationInput struct {
	CampaignID    uint
	AmountCents   int64
	DonorID       *uint
	Anonymous     bool
	Gateway       string
	ExternalTxnID string
	Message       string
	Payload       string
}

// RecordDonation records a confirmed payment against a campaign. Safe to call
// any number of times with the same (gateway, transaction id): redeliveries
// return the first recorded donation without touching the ledger again.
// Transient storage failures are retried with backoff; a payment that still
// cannot be recorded is written to the anomaly queue for manual
// reconciliation before the error is returned.
func (s *ReconcileService) RecordDonation(ctx context.Context, in RecordDonationInput) (*models.Donation, error) {
	var donation *models.Donation
	var created bool

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(s.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		d := &models.Donation{
			CampaignID:    in.CampaignID,
			DonorID:       in.DonorID,
			Anonymous:     in.Anonymous || in.DonorID == nil,
			AmountCents:   in.AmountCents,
			Message:       in.Message,
			Gateway:       in.Gateway,
			ExternalTxnID: in.ExternalTxnID,
			DonatedAt:     time.Now(),
		}
		res, wasCreated, err := s.store.AppendDonation(d)
		if err != nil {
			if errors.Is(err, domain.ErrCampaignNotFound) || errors.Is(err, domain.ErrValidation) {
				return err
			}
			return retry.RetryableError(err)
		}
		donation, created = res, wasCreated
		return nil
	})
	if err != nil {
		log.Printf("[Reconcile] FAILED to record %s txn=%s campaign=%d amount=%d: %v",
			in.Gateway, in.ExternalTxnID, in.CampaignID, in.AmountCents, err)
		s.deadLetter(in, err)
		return nil, err
	}

	if !created {
		log.Printf("[Reconcile] duplicate delivery absorbed: %s txn=%s campaign=%d",
			in.Gateway, in.ExternalTxnID, in.CampaignID)
		return donation, nil
	}

	if donation.NeedsReview {
		log.Printf("[Reconcile] donation %d recorded against non-active campaign %d, flagged for review",
			donation.ID, donation.CampaignID)
	} else {
		log.Printf("[Reconcile] donation recorded: %d cents to campaign %d via %s txn=%s",
			donation.AmountCents, donation.CampaignID, in.Gateway, in.ExternalTxnID)
	}

	s.writeAudit(donation)
	if s.feed != nil {
		s.feed.BroadcastAll(map[string]interface{}{
			"type":         "donation",
			"campaign_id":  donation.CampaignID,
			"amount_cents": donation.AmountCents,
			"anonymous":    donation.Anonymous,
			"message":      donation.Message,
			"donated_at":   donation.DonatedAt,
		})
	}
	return donation, nil
}

// deadLetter parks the event for manual reconciliation. Best effort: if the
// anomaly write fails too, the log line is the last trace, so it carries the
// full payload.
func (s *ReconcileService) deadLetter(in RecordDonationInput, cause error) {
	if s.anomalies == nil {
		return
	}
	a := &models.PaymentAnomaly{
		CampaignID:    in.CampaignID,
		Gateway:       in.Gateway,
		ExternalTxnID: in.ExternalTxnID,
		AmountCents:   in.AmountCents,
		Reason:        cause.Error(),
		Payload:       in.Payload,
	}
	if err := s.anomalies.Create(a); err != nil {
		payload, _ := json.Marshal(in)
		log.Printf("[Reconcile] CRITICAL: dead-letter write failed (%v) for event %s", err, payload)
	}
}

func (s *ReconcileService) writeAudit(d *models.Donation) {
	if s.audit == nil {
		return
	}
	action := "donation_recorded"
	if d.NeedsReview {
		action = "donation_flagged_for_review"
	}
	_ = s.audit.Create(&models.AuditLog{
		UserID:     d.DonorID,
		Action:     action,
		Resource:   "donation",
		ResourceID: d.ExternalTxnID,
		Detail:     d.Gateway,
	})
}
