// Package policy centralizes the authorization rules for privileged campaign
// mutations so every endpoint applies the same predicate.
package policy

import (
	"fundify/internal/domain"
	"fundify/internal/models"
)

// Actor is the authenticated principal attempting a mutation.
type Actor struct {
	ID   uint
	Role string
}

// CanMutate allows the campaign creator and privileged roles to update or
// delete a campaign.
func CanMutate(actor Actor, campaign *models.Campaign) bool {
	if actor.ID != 0 && actor.ID == campaign.CreatorID {
		return true
	}
	return privileged(actor.Role)
}

// CanSuspend is stricter than CanMutate: suspension is a moderation action
// reserved for admins and moderators, not the creator.
func CanSuspend(actor Actor) bool {
	return privileged(actor.Role)
}

func privileged(role string) bool {
	return role == domain.RoleAdmin || role == domain.RoleModerator
}
