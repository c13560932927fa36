package controllers

import (
	"net/http"
	"strconv"

	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// CreateDesignerRequest represents the request body for onboarding a designer.
// Rating, order counters and portfolio always start empty.
type CreateDesignerRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Bio         string   `json:"bio"`
	Avatar      string   `json:"avatar"`
	Specialties []string `json:"specialties"`
	Location    string   `json:"location"`
}

// DesignerController serves designer profiles, portfolios and jewelry uploads
type DesignerController struct {
	designers *services.DesignerService
	catalog   *services.CatalogService
}

// NewDesignerController creates a DesignerController
func NewDesignerController(designers *services.DesignerService, catalog *services.CatalogService) *DesignerController {
	return &DesignerController{designers: designers, catalog: catalog}
}

// ListDesigners handles GET /api/v1/designers
// Query params: specialty, location, min_rating
func (dc *DesignerController) ListDesigners(c *gin.Context) {
	filter := services.DesignerFilter{
		Specialty: c.Query("specialty"),
		Location:  c.Query("location"),
	}
	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid min_rating")
			return
		}
		filter.MinRating = &rating
	}

	designers, err := dc.designers.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve designers")
		return
	}
	respondData(c, http.StatusOK, designers)
}

// GetSpecialties handles GET /api/v1/designers/specialties
func (dc *DesignerController) GetSpecialties(c *gin.Context) {
	specialties, err := dc.designers.Specialties(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve specialties")
		return
	}
	respondData(c, http.StatusOK, specialties)
}

// GetLocations handles GET /api/v1/designers/locations
func (dc *DesignerController) GetLocations(c *gin.Context) {
	locations, err := dc.designers.Locations(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve locations")
		return
	}
	respondData(c, http.StatusOK, locations)
}

// GetDesigner handles GET /api/v1/designers/:id
func (dc *DesignerController) GetDesigner(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	designer, err := dc.designers.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve designer")
		return
	}
	respondData(c, http.StatusOK, designer)
}

// GetDesignerProducts handles GET /api/v1/designers/:id/products
func (dc *DesignerController) GetDesignerProducts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := dc.designers.GetByID(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to retrieve designer")
		return
	}
	products, err := dc.catalog.ByDesignerID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve designer products")
		return
	}
	respondData(c, http.StatusOK, products)
}

// CreateDesigner handles POST /api/v1/designers (admins only)
func (dc *DesignerController) CreateDesigner(c *gin.Context) {
	var req CreateDesignerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	designer, err := dc.designers.Create(c.Request.Context(), models.Designer{
		Name:        req.Name,
		Email:       req.Email,
		Bio:         req.Bio,
		Avatar:      req.Avatar,
		Specialties: models.StringList(req.Specialties),
		Location:    req.Location,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create designer")
		return
	}
	respondData(c, http.StatusCreated, designer)
}

// UpdateDesigner handles PUT /api/v1/designers/:id (admins only)
func (dc *DesignerController) UpdateDesigner(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch services.DesignerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}

	designer, err := dc.designers.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update designer")
		return
	}
	respondData(c, http.StatusOK, designer)
}

// DeleteDesigner handles DELETE /api/v1/designers/:id (admins only)
func (dc *DesignerController) DeleteDesigner(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	designer, err := dc.designers.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to delete designer")
		return
	}
	respondData(c, http.StatusOK, designer)
}

// AddPortfolioItem handles POST /api/v1/designers/:id/portfolio (designers and admins)
func (dc *DesignerController) AddPortfolioItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PortfolioInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	item, err := dc.designers.AddPortfolioItem(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to add portfolio item")
		return
	}
	respondData(c, http.StatusCreated, item)
}

// RemovePortfolioItem handles DELETE /api/v1/designers/:id/portfolio/:itemId (designers and admins)
func (dc *DesignerController) RemovePortfolioItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}

	item, err := dc.designers.RemovePortfolioItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondServiceError(c, err, "Failed to remove portfolio item")
		return
	}
	respondData(c, http.StatusOK, item)
}

// UploadJewelry handles POST /api/v1/designers/:id/jewelry (designers and admins)
// The piece lands in the designer's portfolio and in the catalog together.
func (dc *DesignerController) UploadJewelry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.JewelryUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if req.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "price must not be negative")
		return
	}

	result, err := dc.designers.UploadJewelry(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to upload jewelry")
		return
	}
	respondData(c, http.StatusCreated, result)
}
