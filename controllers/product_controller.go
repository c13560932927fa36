package controllers

import (
	"net/http"

	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the request body for adding a product to the catalog
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category" binding:"required"`
	Metal       string          `json:"metal"`
	Gemstones   []string        `json:"gemstones"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Images      []string        `json:"images"`
	DesignerID  *uint           `json:"designer_id"`
}

// ProductController serves the catalog
type ProductController struct {
	catalog *services.CatalogService
}

// NewProductController creates a ProductController
func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// ListProducts handles GET /api/v1/products
// Query params: category, metal, min_price, max_price, search, sort (price-low|price-high|name)
func (pc *ProductController) ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Category: c.Query("category"),
		Metal:    c.Query("metal"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort"),
	}

	var ok bool
	if filter.MinPrice, ok = decimalQuery(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = decimalQuery(c, "max_price"); !ok {
		return
	}

	products, err := pc.catalog.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve products")
		return
	}
	respondData(c, http.StatusOK, products)
}

// decimalQuery parses an optional decimal query parameter
func decimalQuery(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_PARAMETER", "Invalid "+name)
		return nil, false
	}
	return &d, true
}

// GetFeatured handles GET /api/v1/products/featured
func (pc *ProductController) GetFeatured(c *gin.Context) {
	products, err := pc.catalog.Featured(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve featured products")
		return
	}
	respondData(c, http.StatusOK, products)
}

// GetCategories handles GET /api/v1/products/categories
func (pc *ProductController) GetCategories(c *gin.Context) {
	categories, err := pc.catalog.Categories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve categories")
		return
	}
	respondData(c, http.StatusOK, categories)
}

// GetMetalTypes handles GET /api/v1/products/metals
func (pc *ProductController) GetMetalTypes(c *gin.Context) {
	metals, err := pc.catalog.MetalTypes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve metal types")
		return
	}
	respondData(c, http.StatusOK, metals)
}

// GetPriceRange handles GET /api/v1/products/price-range
func (pc *ProductController) GetPriceRange(c *gin.Context) {
	priceRange, err := pc.catalog.PriceRange(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to compute price range")
		return
	}
	respondData(c, http.StatusOK, priceRange)
}

// GetProduct handles GET /api/v1/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := pc.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve product")
		return
	}
	respondData(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products (admins only)
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if req.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "price must not be negative")
		return
	}

	product, err := pc.catalog.Create(c.Request.Context(), models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Metal:       req.Metal,
		Gemstones:   models.StringList(req.Gemstones),
		Price:       req.Price,
		Stock:       req.Stock,
		Images:      models.StringList(req.Images),
		DesignerID:  req.DesignerID,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create product")
		return
	}
	respondData(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/:id (admins only)
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "price must not be negative")
		return
	}

	product, err := pc.catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update product")
		return
	}
	respondData(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id (admins only)
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := pc.catalog.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to delete product")
		return
	}
	respondData(c, http.StatusOK, product)
}
