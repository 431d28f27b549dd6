package handler

import (
	"net/http"
	"strconv"

	"fundify/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the reconciliation backlog: parked payment anomalies
// and donations that landed on non-active campaigns.
type AdminHandler struct {
	anomalyRepo  *repository.PaymentAnomalyRepository
	campaignRepo *repository.CampaignRepository
	auditRepo    *repository.AuditLogRepository
}

func NewAdminHandler(anomalyRepo *repository.PaymentAnomalyRepository, campaignRepo *repository.CampaignRepository, auditRepo *repository.AuditLogRepository) *AdminHandler {
	return &AdminHandler{anomalyRepo: anomalyRepo, campaignRepo: campaignRepo, auditRepo: auditRepo}
}

func (h *AdminHandler) ListAnomalies(c *gin.Context) {
	anomalies, err := h.anomalyRepo.Unresolved()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": anomalies})
}

func (h *AdminHandler) ResolveAnomaly(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anomaly id"})
		return
	}
	if err := h.anomalyRepo.MarkResolved(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) AuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	logs, err := h.auditRepo.Recent(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *AdminHandler) ListFlaggedDonations(c *gin.Context) {
	donations, err := h.campaignRepo.FlaggedDonations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donations": donations})
}
