package models

import "time"

// Donation is one confirmed contribution recorded against a campaign.
// (campaign_id, gateway, external_txn_id) is the idempotency key: gateways
// retry confirmation delivery, and the unique index makes the second write
// resolve to the first instead of double-crediting.
type Donation struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	CampaignID    uint   `gorm:"not null;index;uniqueIndex:idx_donations_gateway_txn" json:"campaign_id"`
	DonorID       *uint  `gorm:"index" json:"donor_id"` // nil for anonymous gifts
	Anonymous     bool   `gorm:"not null;default:false" json:"anonymous"`
	AmountCents   int64  `gorm:"not null" json:"amount_cents"`
	Message       string `gorm:"size:500" json:"message"`
	Gateway       string `gorm:"size:20;not null;uniqueIndex:idx_donations_gateway_txn" json:"gateway"`
	ExternalTxnID string `gorm:"size:128;not null;uniqueIndex:idx_donations_gateway_txn" json:"external_txn_id"`

	// NeedsReview marks a payment that was already captured by the gateway but
	// arrived for a completed or suspended campaign. It is still recorded (the
	// money has moved) and left for manual review.
	NeedsReview bool `gorm:"not null;default:false;index" json:"needs_review"`

	DonatedAt time.Time `gorm:"not null" json:"donated_at"`

	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"-"`
	Donor    *User    `gorm:"foreignKey:DonorID" json:"-"`
}

func (Donation) TableName() string {
	return "donations"
}
