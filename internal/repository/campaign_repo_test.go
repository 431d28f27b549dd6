package repository

import (
	"testing"
	"time"

	"fundify/internal/domain"
	"fundify/internal/models"

	"github.com/stretchr/testify/assert"
)

// Validation happens before any query is issued, so these run against a
// repository with no database behind it.

func validCampaign() *models.Campaign {
	return &models.Campaign{
		Title:           "Clean Water for All",
		Description:     "Dig wells in remote villages.",
		Category:        "community",
		CreatorID:       1,
		CreatorName:     "Alice",
		GoalAmountCents: 500000,
		CoverImageURL:   "https://cdn.example.com/cover.jpg",
		StartDate:       time.Now(),
		EndDate:         time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestCreateValidation(t *testing.T) {
	r := NewCampaignRepository(nil)

	tests := []struct {
		name   string
		mutate func(*models.Campaign)
	}{
		{"empty title", func(c *models.Campaign) { c.Title = "" }},
		{"title too long", func(c *models.Campaign) {
			for len(c.Title) <= domain.MaxTitleLen {
				c.Title += "xxxxxxxxxx"
			}
		}},
		{"empty description", func(c *models.Campaign) { c.Description = "" }},
		{"unknown category", func(c *models.Campaign) { c.Category = "crypto" }},
		{"goal below minimum", func(c *models.Campaign) { c.GoalAmountCents = 99 }},
		{"missing cover image", func(c *models.Campaign) { c.CoverImageURL = "" }},
		{"end date before start", func(c *models.Campaign) { c.EndDate = c.StartDate.Add(-time.Hour) }},
		{"end date equals start", func(c *models.Campaign) { c.EndDate = c.StartDate }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			tt.mutate(c)
			assert.ErrorIs(t, r.Create(c), domain.ErrValidation)
		})
	}
}

func TestUpdateValidation(t *testing.T) {
	// Metadata edits must pass the same checks as creation.
	r := NewCampaignRepository(nil)

	tests := []struct {
		name   string
		mutate func(*models.Campaign)
	}{
		{"unknown category", func(c *models.Campaign) { c.Category = "crypto" }},
		{"empty title", func(c *models.Campaign) { c.Title = "" }},
		{"title too long", func(c *models.Campaign) {
			for len(c.Title) <= domain.MaxTitleLen {
				c.Title += "xxxxxxxxxx"
			}
		}},
		{"end date before start", func(c *models.Campaign) { c.EndDate = c.StartDate.Add(-time.Hour) }},
		{"missing cover image", func(c *models.Campaign) { c.CoverImageURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			c.ID = 1
			tt.mutate(c)
			assert.ErrorIs(t, r.Update(c), domain.ErrValidation)
		})
	}
}

func TestAppendDonationValidation(t *testing.T) {
	r := NewCampaignRepository(nil)

	_, _, err := r.AppendDonation(&models.Donation{
		CampaignID: 1, AmountCents: 50, Gateway: domain.GatewayCardpay, ExternalTxnID: "pi_1",
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "below minimum amount")

	_, _, err = r.AppendDonation(&models.Donation{
		CampaignID: 1, AmountCents: 500, ExternalTxnID: "pi_1",
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "missing gateway")

	_, _, err = r.AppendDonation(&models.Donation{
		CampaignID: 1, AmountCents: 500, Gateway: domain.GatewayCardpay,
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "missing transaction id")
}

func TestAddUpdateValidation(t *testing.T) {
	r := NewCampaignRepository(nil)
	assert.ErrorIs(t, r.AddUpdate(&models.CampaignUpdate{CampaignID: 1, Content: "body"}), domain.ErrValidation)
	assert.ErrorIs(t, r.AddUpdate(&models.CampaignUpdate{CampaignID: 1, Title: "t"}), domain.ErrValidation)
}
