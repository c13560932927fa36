package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Payment methods a shopper can pick. Nothing is charged.
const (
	PaymentCard = "card"
	PaymentUPI  = "upi"
	PaymentCOD  = "cod"
)

// ShippingDetails is the delivery address collected at checkout
type ShippingDetails struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Pincode   string `json:"pincode" binding:"required"`
	Country   string `json:"country"`
}

// CheckoutRequest is the checkout form
type CheckoutRequest struct {
	Shipping      ShippingDetails `json:"shipping"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=card upi cod"`
}

// Receipt is the order summary returned once the cart has been checked out
type Receipt struct {
	ConfirmationNumber string          `json:"confirmation_number"`
	Items              []CartLine      `json:"items"`
	Totals             CartTotal       `json:"totals"`
	Shipping           ShippingDetails `json:"shipping"`
	PaymentMethod      string          `json:"payment_method"`
	PlacedAt           time.Time       `json:"placed_at"`
}

// CheckoutService turns a session's cart into a placed order
type CheckoutService struct {
	cart *CartService
	now  func() time.Time
}

// NewCheckoutService creates a checkout over cart
func NewCheckoutService(cart *CartService) *CheckoutService {
	return &CheckoutService{cart: cart, now: time.Now}
}

// Checkout prices the session's cart, empties it and returns the receipt.
// Reading and clearing share one transaction and only the rows that were
// priced are removed, so a line added meanwhile stays in the cart.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (*Receipt, error) {
	method := req.PaymentMethod
	if method == "" {
		method = PaymentCard
	}
	shipping := req.Shipping
	if strings.TrimSpace(shipping.Country) == "" {
		shipping.Country = "India"
	}

	var receipt *Receipt
	err := s.cart.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart := s.cart.WithTx(tx)
		lines, ids, err := cart.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		if _, err := cart.removeLines(ctx, sessionID, ids); err != nil {
			return fmt.Errorf("failed to place order: %w", err)
		}

		receipt = &Receipt{
			ConfirmationNumber: "ATL-" + strings.ToUpper(uuid.NewString()[:8]),
			Items:              lines,
			Totals:             *computeTotal(lines),
			Shipping:           shipping,
			PaymentMethod:      method,
			PlacedAt:           s.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order placed",
		zap.String("confirmation_number", receipt.ConfirmationNumber),
		zap.String("total", receipt.Totals.Total.String()),
		zap.Int("item_count", receipt.Totals.ItemCount),
	)
	return receipt, nil
}
