package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sort keys accepted by ProductFilter.SortBy
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

// featuredCount is how many products the shop front highlights
const featuredCount = 4

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Metal    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	SortBy   string
}

// ProductPatch is a partial product update. The id is never patched.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Metal       *string          `json:"metal"`
	Gemstones   []string         `json:"gemstones"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Images      []string         `json:"images"`
	DesignerID  *uint            `json:"designer_id"`
}

// PriceRange is the lowest and highest price in the catalog
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CatalogService stores the purchasable products
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a catalog store over db
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// WithTx returns a catalog store bound to an open transaction
func (s *CatalogService) WithTx(tx *gorm.DB) *CatalogService {
	return &CatalogService{db: tx}
}

// List returns products matching the filter as a fresh slice
func (s *CatalogService) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})

	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.Metal != "" {
		q = q.Where("LOWER(metal) = LOWER(?)", f.Metal)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		q = q.Where(
			`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}

	switch f.SortBy {
	case SortPriceLow:
		q = q.Order("price ASC").Order("id ASC")
	case SortPriceHigh:
		q = q.Order("price DESC").Order("id ASC")
	case SortName:
		q = q.Order("name ASC").Order("id ASC")
	default:
		q = q.Order("id ASC")
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID returns a single product
func (s *CatalogService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// Featured returns the first products of the catalog
func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("id ASC").Limit(featuredCount).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

// Create stores a copy of product under the next free id
func (s *CatalogService) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx.Model(&models.Product{}))
		if err != nil {
			return err
		}
		product.ID = id
		product.Gemstones = models.StringList(models.UniqueStrings(product.Gemstones))
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logger.FromCtx(ctx).Info("product created",
		zap.Uint("product_id", product.ID),
		zap.String("category", product.Category),
	)
	return &product, nil
}

// Update merges patch over the stored product
func (s *CatalogService) Update(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	var product *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.apply(product)
		return tx.Save(product).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (p ProductPatch) apply(product *models.Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Metal != nil {
		product.Metal = *p.Metal
	}
	if p.Gemstones != nil {
		product.Gemstones = models.StringList(models.UniqueStrings(p.Gemstones))
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Images != nil {
		product.Images = models.StringList(p.Images)
	}
	if p.DesignerID != nil {
		product.DesignerID = p.DesignerID
	}
}

// Delete removes a product and returns it
func (s *CatalogService) Delete(ctx context.Context, id uint) (*models.Product, error) {
	var product *models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, err = s.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	logger.FromCtx(ctx).Info("product deleted", zap.Uint("product_id", id))
	return product, nil
}

// Categories returns the distinct categories in first-seen order
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "category")
}

// MetalTypes returns the distinct metals in first-seen order
func (s *CatalogService) MetalTypes(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "metal")
}

func (s *CatalogService) distinctColumn(ctx context.Context, column string) ([]string, error) {
	var values []string
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Order("id ASC").Pluck(column, &values).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	return distinct(values), nil
}

// PriceRange returns the cheapest and most expensive prices
func (s *CatalogService) PriceRange(ctx context.Context) (*PriceRange, error) {
	var prices []decimal.Decimal
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Pluck("price", &prices).Error; err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	if len(prices) == 0 {
		return nil, ErrCatalogEmpty
	}
	return &PriceRange{Min: decimal.Min(prices[0], prices[1:]...), Max: decimal.Max(prices[0], prices[1:]...)}, nil
}

// ByDesignerID returns the products linked to a designer
func (s *CatalogService) ByDesignerID(ctx context.Context, designerID uint) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Where("designer_id = ?", designerID).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list designer products: %w", err)
	}
	return products, nil
}
