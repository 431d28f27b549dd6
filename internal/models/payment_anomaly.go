package models

import "time"

// PaymentAnomaly is the dead-letter row for a confirmed external payment that
// could not be recorded against a campaign (unknown campaign, or storage kept
// failing after retries). Money has already moved at the gateway, so the event
// is parked here for manual reconciliation instead of being dropped.
type PaymentAnomaly struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CampaignID    uint      `gorm:"index" json:"campaign_id"`
	Gateway       string    `gorm:"size:20;not null" json:"gateway"`
	ExternalTxnID string    `gorm:"size:128;not null;index" json:"external_txn_id"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	Reason        string    `gorm:"size:500" json:"reason"`
	Payload       string    `gorm:"type:text" json:"payload"`
	Resolved      bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PaymentAnomaly) TableName() string {
	return "payment_anomalies"
}
