package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/middleware"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/atelier-jewels/atelier-api/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// notFoundCodes maps each lookup failure to its error code. Order matters:
// the generic ErrNotFound is matched last.
var notFoundCodes = []struct {
	err  error
	code string
}{
	{services.ErrProductNotFound, "PRODUCT_NOT_FOUND"},
	{services.ErrOrderNotFound, "ORDER_NOT_FOUND"},
	{services.ErrMilestoneNotFound, "MILESTONE_NOT_FOUND"},
	{services.ErrDesignerNotFound, "DESIGNER_NOT_FOUND"},
	{services.ErrPortfolioItemNotFound, "PORTFOLIO_ITEM_NOT_FOUND"},
	{services.ErrCartItemNotFound, "CART_ITEM_NOT_FOUND"},
	{services.ErrUserNotFound, "USER_NOT_FOUND"},
	{services.ErrNotFound, "NOT_FOUND"},
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondValidation reports a request that failed gin binding
func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError translates a store error into the envelope. message is
// used for failures the caller cannot fix.
func respondServiceError(c *gin.Context, err error, message string) {
	var uploadErr *utils.FileUploadError
	switch {
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, services.ErrNotFound):
		for _, nf := range notFoundCodes {
			if errors.Is(err, nf.err) {
				respondError(c, http.StatusNotFound, nf.code, err.Error())
				return
			}
		}
	case errors.Is(err, services.ErrValidation):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrEmptyCart):
		respondError(c, http.StatusBadRequest, "EMPTY_CART", "Your cart is empty")
	case errors.Is(err, services.ErrCatalogEmpty):
		respondError(c, http.StatusNotFound, "CATALOG_EMPTY", "The catalog has no products")
	case errors.Is(err, services.ErrNoCurrentUser):
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "No user is signed in for this session")
	case errors.Is(err, services.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		_ = c.Error(err)
		logger.FromCtx(c.Request.Context()).Error(message, zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", message)
	}
}

// parseID reads a positive numeric path parameter, answering 400 when it is not one
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param)
		return 0, false
	}
	return uint(id), true
}

// sessionID returns the caller's session id, answering 401 when there is none
func sessionID(c *gin.Context) (string, bool) {
	id, err := middleware.GetUserID(c)
	if err != nil || id == "" {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return "", false
	}
	return id, true
}
