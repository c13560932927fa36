package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := setupTestDB(t)
	catalog := services.NewCatalogService(db)
	cart := services.NewCartService(db, catalog)
	cc := NewCartController(cart, services.NewCheckoutService(cart))

	for _, p := range []models.Product{
		{Name: "Ring", Category: "Rings", Price: decimal.NewFromInt(30000)},
		{Name: "Chain", Category: "Necklaces", Price: decimal.NewFromInt(20000)},
		{Name: "Stud", Category: "Earrings", Price: decimal.NewFromInt(10000)},
	} {
		_, err := catalog.Create(context.Background(), p)
		require.NoError(t, err)
	}

	router := setupTestRouter()
	v1 := router.Group("/api/v1", asSession())
	v1.GET("/cart", cc.GetCart)
	v1.GET("/cart/total", cc.GetTotal)
	v1.GET("/cart/count", cc.GetCount)
	v1.POST("/cart/items", cc.AddItem)
	v1.PUT("/cart/items/:id", cc.UpdateItem)
	v1.DELETE("/cart/items/:id", cc.RemoveItem)
	v1.DELETE("/cart", cc.ClearCart)
	v1.POST("/checkout", cc.Checkout)
	return router
}

func checkoutForm() gin.H {
	return gin.H{
		"shipping": gin.H{
			"first_name": "Priya",
			"last_name":  "Menon",
			"email":      "priya@example.com",
			"phone":      "9845000000",
			"address":    "12 MG Road",
			"city":       "Bengaluru",
			"state":      "Karnataka",
			"pincode":    "560001",
		},
		"payment_method": "upi",
	}
}

func TestCart_AddAndTotals(t *testing.T) {
	router := setupCartRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 1, "quantity": 1, "selected_options": gin.H{"size": "6"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.CartItem
	decodeData(t, w, &item)
	assert.Equal(t, uint(1), item.ID)
	assert.Equal(t, "6", item.SelectedOptions["size"])

	w = doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 3})
	require.Equal(t, http.StatusCreated, w.Code)

	var lines []services.CartLine
	decodeData(t, doJSON(router, http.MethodGet, "/api/v1/cart", "s1", nil), &lines)
	require.Len(t, lines, 2)
	assert.Equal(t, "Ring", lines[0].Product.Name)

	var total services.CartTotal
	decodeData(t, doJSON(router, http.MethodGet, "/api/v1/cart/total", "s1", nil), &total)
	assert.True(t, decimal.NewFromInt(40000).Equal(total.Subtotal))
	assert.True(t, decimal.NewFromInt(1200).Equal(total.Tax))
	assert.True(t, decimal.NewFromInt(500).Equal(total.Shipping))
	assert.True(t, decimal.NewFromInt(41700).Equal(total.Total))
	assert.Equal(t, 2, total.ItemCount)

	var count struct {
		Count int `json:"count"`
	}
	decodeData(t, doJSON(router, http.MethodGet, "/api/v1/cart/count", "s1", nil), &count)
	assert.Equal(t, 2, count.Count)

	decodeData(t, doJSON(router, http.MethodGet, "/api/v1/cart/count", "s2", nil), &count)
	assert.Zero(t, count.Count, "carts are per session")
}

func TestCart_AddValidation(t *testing.T) {
	router := setupCartRouter(t)

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 1, "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)

	w = doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", decode(t, w).Error.Code)
}

func TestCart_UpdateRemoveClear(t *testing.T) {
	router := setupCartRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 1}).Code)
	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 2}).Code)

	w := doJSON(router, http.MethodPut, "/api/v1/cart/items/1", "s1", gin.H{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	var item models.CartItem
	decodeData(t, w, &item)
	assert.Equal(t, 3, item.Quantity)

	w = doJSON(router, http.MethodPut, "/api/v1/cart/items/1", "s2", gin.H{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, w.Code, "another session cannot touch the line")
	assert.Equal(t, "CART_ITEM_NOT_FOUND", decode(t, w).Error.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/cart/items/1", "s1", gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/cart/items/2", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodDelete, "/api/v1/cart/items/2", "s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/cart", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cleared struct {
		Removed int `json:"removed"`
	}
	decodeData(t, w, &cleared)
	assert.Equal(t, 1, cleared.Removed)
}

func TestCart_RequiresSession(t *testing.T) {
	router := setupCartRouter(t)

	w := doJSON(router, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w).Error.Code)
}

func TestCheckout(t *testing.T) {
	router := setupCartRouter(t)

	t.Run("Empty cart is refused", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/checkout", "s1", checkoutForm())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "EMPTY_CART", decode(t, w).Error.Code)
	})

	require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/v1/cart/items", "s1", gin.H{"product_id": 1, "quantity": 2}).Code)

	t.Run("Missing shipping fields", func(t *testing.T) {
		form := checkoutForm()
		delete(form["shipping"].(gin.H), "pincode")
		w := doJSON(router, http.MethodPost, "/api/v1/checkout", "s1", form)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
	})

	t.Run("Unknown payment method", func(t *testing.T) {
		form := checkoutForm()
		form["payment_method"] = "crypto"
		w := doJSON(router, http.MethodPost, "/api/v1/checkout", "s1", form)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Places the order and empties the cart", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/checkout", "s1", checkoutForm())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var receipt services.Receipt
		decodeData(t, w, &receipt)
		assert.True(t, strings.HasPrefix(receipt.ConfirmationNumber, "ATL-"))
		assert.True(t, decimal.NewFromInt(60000).Equal(receipt.Totals.Subtotal))
		assert.True(t, receipt.Totals.Shipping.IsZero())
		assert.True(t, decimal.NewFromInt(61800).Equal(receipt.Totals.Total))
		assert.Equal(t, "upi", receipt.PaymentMethod)
		assert.Equal(t, "Priya", receipt.Shipping.FirstName)

		var count struct {
			Count int `json:"count"`
		}
		decodeData(t, doJSON(router, http.MethodGet, "/api/v1/cart/count", "s1", nil), &count)
		assert.Zero(t, count.Count)
	})
}
