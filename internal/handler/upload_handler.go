package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cld "fundify/pkg/cloudinary"
)

// UploadHandler stores campaign images and returns their CDN URLs.
type UploadHandler struct {
	images cld.Client
}

func NewUploadHandler(images cld.Client) *UploadHandler {
	return &UploadHandler{images: images}
}

func (h *UploadHandler) UploadCampaignImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer file.Close()

	url, thumbURL, err := h.images.UploadImage(c.Request.Context(), file, "campaigns", uuid.NewString())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "thumbnail_url": thumbURL})
}
