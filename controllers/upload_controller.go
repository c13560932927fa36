package controllers

import (
	"net/http"
	"strings"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/atelier-jewels/atelier-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadPrefix is the storage folder every uploaded image lives under
const uploadPrefix = "uploads/"

// UploadController stores images and hands out links to them
type UploadController struct {
	images services.ImageService
}

// NewUploadController creates an UploadController
func NewUploadController(images services.ImageService) *UploadController {
	return &UploadController{images: images}
}

// UploadImage handles POST /api/v1/uploads - stores a PNG or JPEG from the "image" form field
// Responds with the storage key to reference from products, portfolios and orders, plus a read URL.
func (uc *UploadController) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required")
		return
	}

	key, err := uc.images.UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		respondServiceError(c, err, "Failed to upload image")
		return
	}

	url, err := uc.images.GetImageURL(c.Request.Context(), key)
	if err != nil {
		// The image is stored; the caller can still fetch a link later
		logger.FromCtx(c.Request.Context()).Warn("failed to sign uploaded image", zap.String("key", key), zap.Error(err))
	}

	respondData(c, http.StatusCreated, gin.H{
		"key": key,
		"url": url,
	})
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - redirects to a short-lived link for the image
func (uc *UploadController) GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	if _, ok := utils.ContentTypeFor(filename); !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only .png, .jpg and .jpeg files are supported")
		return
	}

	url, err := uc.images.GetImageURL(c.Request.Context(), uploadPrefix+filename)
	if err != nil {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Redirect(http.StatusTemporaryRedirect, url)
}
