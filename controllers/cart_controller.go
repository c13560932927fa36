package controllers

import (
	"net/http"

	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// AddCartItemRequest represents the request body for adding a product to the cart
type AddCartItemRequest struct {
	ProductID       uint                   `json:"product_id" binding:"required"`
	Quantity        int                    `json:"quantity"`
	SelectedOptions map[string]interface{} `json:"selected_options"`
}

// CartController serves the caller's cart. Every route is scoped to the session id.
type CartController struct {
	cart     *services.CartService
	checkout *services.CheckoutService
}

// NewCartController creates a CartController
func NewCartController(cart *services.CartService, checkout *services.CheckoutService) *CartController {
	return &CartController{cart: cart, checkout: checkout}
}

// GetCart handles GET /api/v1/cart
func (cc *CartController) GetCart(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	lines, err := cc.cart.GetAll(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to load cart")
		return
	}
	respondData(c, http.StatusOK, lines)
}

// GetTotal handles GET /api/v1/cart/total
func (cc *CartController) GetTotal(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	total, err := cc.cart.GetTotal(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to compute cart total")
		return
	}
	respondData(c, http.StatusOK, total)
}

// GetCount handles GET /api/v1/cart/count
func (cc *CartController) GetCount(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	count, err := cc.cart.ItemCount(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to count cart items")
		return
	}
	respondData(c, http.StatusOK, gin.H{"count": count})
}

// AddItem handles POST /api/v1/cart/items
func (cc *CartController) AddItem(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	item, err := cc.cart.Add(c.Request.Context(), session, req.ProductID, req.Quantity, req.SelectedOptions)
	if err != nil {
		respondServiceError(c, err, "Failed to add item to cart")
		return
	}
	respondData(c, http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/cart/items/:id
func (cc *CartController) UpdateItem(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var patch services.CartItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}

	item, err := cc.cart.Update(c.Request.Context(), session, id, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update cart item")
		return
	}
	respondData(c, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/v1/cart/items/:id
func (cc *CartController) RemoveItem(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := cc.cart.Remove(c.Request.Context(), session, id)
	if err != nil {
		respondServiceError(c, err, "Failed to remove cart item")
		return
	}
	respondData(c, http.StatusOK, item)
}

// ClearCart handles DELETE /api/v1/cart
func (cc *CartController) ClearCart(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	removed, err := cc.cart.Clear(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to clear cart")
		return
	}
	respondData(c, http.StatusOK, gin.H{"removed": removed})
}

// Checkout handles POST /api/v1/checkout
func (cc *CartController) Checkout(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	receipt, err := cc.checkout.Checkout(c.Request.Context(), session, req)
	if err != nil {
		respondServiceError(c, err, "Failed to place order")
		return
	}
	respondData(c, http.StatusCreated, receipt)
}
