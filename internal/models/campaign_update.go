package models

import "time"

// CampaignUpdate is a creator-authored timeline entry on a campaign.
type CampaignUpdate struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;index" json:"campaign_id"`
	Title      string    `gorm:"size:100;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ImagesJSON string    `gorm:"type:text" json:"-"`
	PostedAt   time.Time `gorm:"not null" json:"posted_at"`

	Campaign Campaign `gorm:"foreignKey:CampaignID" json:"-"`
}

func (CampaignUpdate) TableName() string {
	return "campaign_updates"
}
