package domain

import "errors"

// Sentinel errors shared across repositories, services and handlers.
// Handlers map these to HTTP status codes in one place.
var (
	ErrValidation       = errors.New("validation failed")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidState     = errors.New("campaign is not accepting donations")
	ErrSignature        = errors.New("signature verification failed")
	ErrGateway          = errors.New("payment gateway error")
	ErrConflict         = errors.New("status transition conflict")
	ErrHasDonations     = errors.New("campaign has donations and cannot be deleted")
	ErrForbidden        = errors.New("not allowed")
)
