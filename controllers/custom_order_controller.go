package controllers

import (
	"net/http"
	"strconv"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/middleware"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AssignDesignerRequest represents the request body for assigning a designer to an order
type AssignDesignerRequest struct {
	DesignerID uint `json:"designer_id" binding:"required"`
}

// CustomOrderController serves custom orders and their milestone checklist
type CustomOrderController struct {
	orders    *services.CustomOrderService
	designers *services.DesignerService
	images    services.ImageService
	roles     middleware.RoleChecker
}

// NewCustomOrderController creates a CustomOrderController
func NewCustomOrderController(orders *services.CustomOrderService, designers *services.DesignerService, images services.ImageService, roles middleware.RoleChecker) *CustomOrderController {
	return &CustomOrderController{orders: orders, designers: designers, images: images, roles: roles}
}

// isStaff reports whether the session acts as a designer or admin
func (oc *CustomOrderController) isStaff(c *gin.Context, session string) bool {
	return oc.roles.HasAnyRole(c.Request.Context(), session, models.RoleDesigner, models.RoleAdmin)
}

// ListOrders handles GET /api/v1/custom-orders
// Designers and admins see every order; everyone else sees only their own.
// Query params: status, customer_id, designer_id, priority
func (oc *CustomOrderController) ListOrders(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	filter := services.CustomOrderFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Priority:   models.Priority(c.Query("priority")),
	}
	if raw := c.Query("designer_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid designer_id")
			return
		}
		designerID := uint(id)
		filter.DesignerID = &designerID
	}
	if !oc.isStaff(c, session) {
		filter.CustomerID = session
	}

	orders, err := oc.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve custom orders")
		return
	}
	respondData(c, http.StatusOK, orders)
}

// GetStatistics handles GET /api/v1/custom-orders/stats
func (oc *CustomOrderController) GetStatistics(c *gin.Context) {
	stats, err := oc.orders.Statistics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to compute order statistics")
		return
	}
	respondData(c, http.StatusOK, stats)
}

// loadVisible fetches an order the caller may see: their own, or any for staff
func (oc *CustomOrderController) loadVisible(c *gin.Context) (*models.CustomOrder, bool) {
	session, ok := sessionID(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := oc.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve custom order")
		return nil, false
	}
	if order.CustomerID != session && !oc.isStaff(c, session) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return nil, false
	}
	return order, true
}

// GetOrder handles GET /api/v1/custom-orders/:id
func (oc *CustomOrderController) GetOrder(c *gin.Context) {
	order, ok := oc.loadVisible(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, order)
}

// CreateOrder handles POST /api/v1/custom-orders
func (oc *CustomOrderController) CreateOrder(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req services.CustomOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if !req.Budget.IsPositive() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "budget must be greater than zero")
		return
	}
	if req.Specifications.Type == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "specifications.type is required")
		return
	}
	req.CustomerID = session

	order, err := oc.orders.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create custom order")
		return
	}
	respondData(c, http.StatusCreated, order)
}

// UpdateOrder handles PUT /api/v1/custom-orders/:id (owner or staff)
func (oc *CustomOrderController) UpdateOrder(c *gin.Context) {
	order, ok := oc.loadVisible(c)
	if !ok {
		return
	}

	var patch services.CustomOrderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}
	if patch.Budget != nil && !patch.Budget.IsPositive() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "budget must be greater than zero")
		return
	}

	updated, err := oc.orders.Update(c.Request.Context(), order.ID, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update custom order")
		return
	}
	respondData(c, http.StatusOK, updated)
}

// DeleteOrder handles DELETE /api/v1/custom-orders/:id (admins only)
func (oc *CustomOrderController) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := oc.orders.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to delete custom order")
		return
	}
	respondData(c, http.StatusOK, order)
}

// AssignDesigner handles POST /api/v1/custom-orders/:id/assign (admins only)
func (oc *CustomOrderController) AssignDesigner(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AssignDesignerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	designer, err := oc.designers.GetByID(c.Request.Context(), req.DesignerID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve designer")
		return
	}

	order, err := oc.orders.AssignDesigner(c.Request.Context(), id, designer.ID, designer.Name)
	if err != nil {
		respondServiceError(c, err, "Failed to assign designer")
		return
	}
	respondData(c, http.StatusOK, order)
}

// UpdateMilestone handles PATCH /api/v1/custom-orders/:id/milestones/:milestoneId (designers and admins)
func (oc *CustomOrderController) UpdateMilestone(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseID(c, "milestoneId")
	if !ok {
		return
	}

	var patch models.MilestonePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}

	order, err := oc.orders.UpdateMilestone(c.Request.Context(), id, milestoneID, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update milestone")
		return
	}
	respondData(c, http.StatusOK, order)
}

// UploadMilestoneImage handles POST /api/v1/custom-orders/:id/milestones/:milestoneId/images (designers and admins)
// Expects a multipart form with an "image" file.
func (oc *CustomOrderController) UploadMilestoneImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseID(c, "milestoneId")
	if !ok {
		return
	}

	// Fail before storing anything when the order is unknown
	if _, err := oc.orders.GetByID(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to retrieve custom order")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required")
		return
	}

	key, err := oc.images.UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		respondServiceError(c, err, "Failed to upload image")
		return
	}

	order, err := oc.orders.AddMilestoneImage(c.Request.Context(), id, milestoneID, key)
	if err != nil {
		if delErr := oc.images.DeleteImage(c.Request.Context(), key); delErr != nil {
			logger.FromCtx(c.Request.Context()).Warn("failed to remove orphaned image",
				zap.String("key", key),
				zap.Error(delErr),
			)
		}
		respondServiceError(c, err, "Failed to attach image")
		return
	}
	respondData(c, http.StatusCreated, order)
}
