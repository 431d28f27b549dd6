package models

import (
	"time"

	"gorm.io/gorm"
)

type Campaign struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"size:30;not null;index:idx_campaigns_category_status" json:"category"`
	CreatorID   uint   `gorm:"not null;index" json:"creator_id"`
	CreatorName string `gorm:"size:120;not null" json:"creator_name"`

	// Funding aggregate. CurrentAmountCents is derived: it always equals the
	// sum of this campaign's donation amounts, and is only ever changed inside
	// the same transaction that appends the donation.
	GoalAmountCents    int64 `gorm:"not null" json:"goal_amount_cents"`
	CurrentAmountCents int64 `gorm:"not null;default:0" json:"current_amount_cents"`

	CoverImageURL string `gorm:"size:512;not null" json:"cover_image_url"`
	ImagesJSON    string `gorm:"type:text" json:"-"` // additional image URLs, JSON array

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null;index" json:"end_date"`

	Status string `gorm:"size:20;not null;index:idx_campaigns_category_status;default:'active'" json:"status"` // active | completed | suspended

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Creator   User             `gorm:"foreignKey:CreatorID" json:"-"`
	Donations []Donation       `gorm:"foreignKey:CampaignID" json:"donations,omitempty"`
	Updates   []CampaignUpdate `gorm:"foreignKey:CampaignID" json:"updates,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
