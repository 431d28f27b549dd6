package payment

import "fmt"

// GatewayError reports an upstream provider rejection or failure, carrying the
// gateway's diagnostic payload for the caller to surface.
type GatewayError struct {
	Gateway string
	Status  int
	Body    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway error: status=%d body=%s", e.Gateway, e.Status, e.Body)
}

// Metadata keys round-tripped through gateways so confirmation events can be
// reconciled back to a campaign and donor.
const (
	MetaCampaignID = "campaign_id"
	MetaDonorID    = "donor_id"
	MetaMessage    = "message"

	// AnonymousDonor marks a donation made without an authenticated account.
	AnonymousDonor = "anonymous"
)
