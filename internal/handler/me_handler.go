package handler

import (
	"net/http"

	"fundify/internal/middleware"
	"fundify/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cld "fundify/pkg/cloudinary"
)

// MeHandler serves the authenticated user's own profile and donation history.
type MeHandler struct {
	userRepo     *repository.UserRepository
	campaignRepo *repository.CampaignRepository
	images       cld.Client
}

func NewMeHandler(userRepo *repository.UserRepository, campaignRepo *repository.CampaignRepository, images cld.Client) *MeHandler {
	return &MeHandler{userRepo: userRepo, campaignRepo: campaignRepo, images: images}
}

func (h *MeHandler) Profile(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *MeHandler) UpdateProfile(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	var req struct {
		Name *string `json:"name"`
		Bio  *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if err := h.userRepo.Update(user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *MeHandler) UploadAvatar(c *gin.Context) {
	user, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read avatar file"})
		return
	}
	defer file.Close()

	url, _, err := h.images.UploadImage(c.Request.Context(), file, "avatars", uuid.NewString())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	user.AvatarURL = url
	if err := h.userRepo.Update(user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "avatar_url": url})
}

// Donations returns the caller's donation history across campaigns.
func (h *MeHandler) Donations(c *gin.Context) {
	rows, err := h.campaignRepo.DonationsByDonor(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"donations": rows})
}
