package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"fundify/internal/domain"
	"fundify/internal/middleware"
	"fundify/internal/models"
	"fundify/internal/policy"
	"fundify/internal/repository"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignRepo *repository.CampaignRepository
	userRepo     *repository.UserRepository
	auditRepo    *repository.AuditLogRepository
}

func NewCampaignHandler(campaignRepo *repository.CampaignRepository, userRepo *repository.UserRepository, auditRepo *repository.AuditLogRepository) *CampaignHandler {
	return &CampaignHandler{campaignRepo: campaignRepo, userRepo: userRepo, auditRepo: auditRepo}
}

// toCents converts a major-unit amount from the API into cents.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (h *CampaignHandler) Create(c *gin.Context) {
	creatorID := middleware.GetUserID(c)
	var req struct {
		Title         string    `json:"title" binding:"required"`
		Description   string    `json:"description" binding:"required"`
		Category      string    `json:"category" binding:"required"`
		GoalAmount    float64   `json:"goal_amount" binding:"required"`
		CoverImageURL string    `json:"cover_image_url" binding:"required"`
		Images        []string  `json:"images"`
		EndDate       time.Time `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	creator, err := h.userRepo.GetByID(creatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	imagesJSON := ""
	if len(req.Images) > 0 {
		b, _ := json.Marshal(req.Images)
		imagesJSON = string(b)
	}
	campaign := &models.Campaign{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		CreatorID:       creator.ID,
		CreatorName:     creator.Name,
		GoalAmountCents: toCents(req.GoalAmount),
		CoverImageURL:   req.CoverImageURL,
		ImagesJSON:      imagesJSON,
		EndDate:         req.EndDate,
	}
	if err := h.campaignRepo.Create(campaign); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "campaign": campaign})
}

func (h *CampaignHandler) Get(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, err := h.campaignRepo.GetDetailed(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

func (h *CampaignHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	campaigns, err := h.campaignRepo.List(repository.CampaignFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// Update edits campaign metadata. Creator or privileged roles only.
func (h *CampaignHandler) Update(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, err := h.campaignRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.CanMutate(middleware.Actor(c), campaign) {
		respondError(c, domain.ErrForbidden)
		return
	}
	var req struct {
		Title         *string    `json:"title"`
		Description   *string    `json:"description"`
		Category      *string    `json:"category"`
		CoverImageURL *string    `json:"cover_image_url"`
		Images        []string   `json:"images"`
		EndDate       *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		campaign.Title = *req.Title
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.Category != nil {
		campaign.Category = *req.Category
	}
	if req.CoverImageURL != nil {
		campaign.CoverImageURL = *req.CoverImageURL
	}
	if req.Images != nil {
		b, _ := json.Marshal(req.Images)
		campaign.ImagesJSON = string(b)
	}
	if req.EndDate != nil {
		campaign.EndDate = *req.EndDate
	}
	if err := h.campaignRepo.Update(campaign); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign})
}

// Complete ends a campaign early. Same rule as other creator mutations.
func (h *CampaignHandler) Complete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, err := h.campaignRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.CanMutate(middleware.Actor(c), campaign) {
		respondError(c, domain.ErrForbidden)
		return
	}
	if err := h.campaignRepo.TransitionStatus(id, domain.CampaignStatusActive, domain.CampaignStatusCompleted); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.CampaignStatusCompleted})
}

// Suspend is a moderation action: admins and moderators only, and there is no
// path back to active.
func (h *CampaignHandler) Suspend(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	if !policy.CanSuspend(middleware.Actor(c)) {
		respondError(c, domain.ErrForbidden)
		return
	}
	if err := h.campaignRepo.TransitionStatus(id, domain.CampaignStatusActive, domain.CampaignStatusSuspended); err != nil {
		respondError(c, err)
		return
	}
	actorID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &actorID,
		Action:     "campaign_suspended",
		Resource:   "campaign",
		ResourceID: strconv.FormatUint(uint64(id), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "status": domain.CampaignStatusSuspended})
}

func (h *CampaignHandler) Delete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, err := h.campaignRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.CanMutate(middleware.Actor(c), campaign) {
		respondError(c, domain.ErrForbidden)
		return
	}
	if err := h.campaignRepo.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	actorID := middleware.GetUserID(c)
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &actorID,
		Action:     "campaign_deleted",
		Resource:   "campaign",
		ResourceID: strconv.FormatUint(uint64(id), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostUpdate appends a creator timeline entry to the campaign.
func (h *CampaignHandler) PostUpdate(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}
	campaign, err := h.campaignRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !policy.CanMutate(middleware.Actor(c), campaign) {
		respondError(c, domain.ErrForbidden)
		return
	}
	var req struct {
		Title   string   `json:"title" binding:"required"`
		Content string   `json:"content" binding:"required"`
		Images  []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	imagesJSON := ""
	if len(req.Images) > 0 {
		b, _ := json.Marshal(req.Images)
		imagesJSON = string(b)
	}
	update := &models.CampaignUpdate{
		CampaignID: campaign.ID,
		Title:      req.Title,
		Content:    req.Content,
		ImagesJSON: imagesJSON,
	}
	if err := h.campaignRepo.AddUpdate(update); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "update": update})
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
