package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pricing rules applied by GetTotal
var (
	TaxRatePercent        = decimal.NewFromInt(3)
	FreeShippingThreshold = decimal.NewFromInt(50000)
	FlatShippingFee       = decimal.NewFromInt(500)
)

// CartLine is a cart item with its resolved product
type CartLine struct {
	models.CartItem
	Product models.Product `json:"product"`
}

// CartTotal summarizes a cart
type CartTotal struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// CartItemPatch is a partial cart line update
type CartItemPatch struct {
	Quantity        *int                   `json:"quantity" binding:"omitempty,gte=1"`
	SelectedOptions map[string]interface{} `json:"selected_options"`
}

// CartService stores per-session cart lines
type CartService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewCartService creates a cart store resolving products through catalog
func NewCartService(db *gorm.DB, catalog *CatalogService) *CartService {
	return &CartService{db: db, catalog: catalog}
}

// WithTx returns a cart store bound to an open transaction
func (s *CartService) WithTx(tx *gorm.DB) *CartService {
	return &CartService{db: tx, catalog: s.catalog.WithTx(tx)}
}

// GetAll returns the session's lines with products resolved. Lines whose
// product no longer exists are dropped.
func (s *CartService) GetAll(ctx context.Context, sessionID string) ([]CartLine, error) {
	lines, _, err := s.load(ctx, sessionID)
	return lines, err
}

// load resolves the session's lines and also returns the id of every row
// read, unresolved ones included
func (s *CartService) load(ctx context.Context, sessionID string) ([]CartLine, []uint, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}

	ids := make([]uint, 0, len(items))
	lines := make([]CartLine, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		product, err := s.catalog.GetByID(ctx, item.ProductID)
		if errors.Is(err, ErrNotFound) {
			logger.FromCtx(ctx).Debug("dropping cart line with unknown product",
				zap.Uint("cart_item_id", item.ID),
				zap.Uint("product_id", item.ProductID),
			)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, CartLine{CartItem: item, Product: *product})
	}
	return lines, ids, nil
}

// Add puts quantity of a product in the cart. An existing line for the same
// product accumulates quantity and merges options, new keys winning.
func (s *CartService) Add(ctx context.Context, sessionID string, productID uint, quantity int, options map[string]interface{}) (*models.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.catalog.WithTx(tx).GetByID(ctx, productID); err != nil {
			return err
		}

		err := tx.Where("session_id = ? AND product_id = ?", sessionID, productID).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += quantity
			item.SelectedOptions = mergeOptions(item.SelectedOptions, options)
			return tx.Save(&item).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			id, err := nextID(tx.Model(&models.CartItem{}))
			if err != nil {
				return err
			}
			item = models.CartItem{
				ID:              id,
				SessionID:       sessionID,
				ProductID:       productID,
				Quantity:        quantity,
				SelectedOptions: mergeOptions(nil, options),
			}
			return tx.Create(&item).Error
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return &item, nil
}

// Update merges patch into one of the session's lines
func (s *CartService) Update(ctx context.Context, sessionID string, id uint, patch CartItemPatch) (*models.CartItem, error) {
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	var item *models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.find(tx, sessionID, id)
		if err != nil {
			return err
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.SelectedOptions != nil {
			item.SelectedOptions = mergeOptions(item.SelectedOptions, patch.SelectedOptions)
		}
		return tx.Save(item).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

// Remove deletes one of the session's lines and returns it
func (s *CartService) Remove(ctx context.Context, sessionID string, id uint) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.find(tx, sessionID, id)
		if err != nil {
			return err
		}
		return tx.Delete(&models.CartItem{}, item.ID).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return item, nil
}

// Clear empties the session's cart and returns how many lines were removed
func (s *CartService) Clear(ctx context.Context, sessionID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// removeLines deletes only the given rows of the session's cart
func (s *CartService) removeLines(ctx context.Context, sessionID string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("session_id = ? AND id IN ?", sessionID, ids).Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetTotal prices the resolved lines: 3% tax, free shipping above the threshold
func (s *CartService) GetTotal(ctx context.Context, sessionID string) (*CartTotal, error) {
	lines, err := s.GetAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return computeTotal(lines), nil
}

// ItemCount sums quantities over every line, resolved or not
func (s *CartService) ItemCount(ctx context.Context, sessionID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return int(count), nil
}

func computeTotal(lines []CartLine) *CartTotal {
	total := &CartTotal{Subtotal: decimal.Zero}
	for _, line := range lines {
		total.Subtotal = total.Subtotal.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		total.ItemCount += line.Quantity
	}

	total.Tax = total.Subtotal.Mul(TaxRatePercent).Div(decimal.NewFromInt(100))
	total.Shipping = FlatShippingFee
	if total.Subtotal.GreaterThan(FreeShippingThreshold) {
		total.Shipping = decimal.Zero
	}
	total.Total = total.Subtotal.Add(total.Tax).Add(total.Shipping)
	return total
}

func (s *CartService) find(tx *gorm.DB, sessionID string, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := tx.Where("session_id = ? AND id = ?", sessionID, id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func mergeOptions(current datatypes.JSONMap, incoming map[string]interface{}) datatypes.JSONMap {
	merged := datatypes.JSONMap{}
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
