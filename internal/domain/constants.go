package domain

const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

const (
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusSuspended = "suspended"
)

const (
	GatewayCardpay  = "cardpay"
	GatewayAamarpay = "aamarpay"
)

// Campaign categories
var CampaignCategories = []string{
	"education",
	"health",
	"environment",
	"animals",
	"community",
	"art",
	"technology",
	"other",
}

// ValidCategory reports whether c is one of the fixed campaign categories.
func ValidCategory(c string) bool {
	for _, v := range CampaignCategories {
		if v == c {
			return true
		}
	}
	return false
}

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 5000
	// MinAmountCents is one whole currency unit, the smallest goal or donation.
	MinAmountCents int64 = 100
)
