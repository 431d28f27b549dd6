package handler

import (
	"errors"
	"net/http"

	"fundify/internal/domain"
	"fundify/pkg/payment"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to HTTP status codes in one place so every
// endpoint reports the same taxonomy.
func respondError(c *gin.Context, err error) {
	var gwErr *payment.GatewayError
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCampaignNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrHasDonations):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &gwErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway rejected the request", "details": gwErr.Body})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
