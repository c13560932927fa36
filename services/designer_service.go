package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DesignerFilter narrows a designer listing. Zero values mean "no filter".
type DesignerFilter struct {
	Specialty string
	Location  string
	MinRating *float64
}

// DesignerPatch is a partial profile update. Counters and portfolio are not patchable here.
type DesignerPatch struct {
	Name        *string  `json:"name"`
	Email       *string  `json:"email" binding:"omitempty,email"`
	Bio         *string  `json:"bio"`
	Avatar      *string  `json:"avatar"`
	Specialties []string `json:"specialties"`
	Location    *string  `json:"location"`
	Rating      *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
}

// PortfolioInput describes a new portfolio entry
type PortfolioInput struct {
	Image          string   `json:"image"`
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	Metal          string   `json:"metal"`
	Gemstones      []string `json:"gemstones"`
	CompletionTime string   `json:"completion_time"`
}

// JewelryUpload is a finished piece a designer publishes to both their
// portfolio and the catalog
type JewelryUpload struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category" binding:"required"`
	Metal          string          `json:"metal" binding:"required"`
	Gemstones      []string        `json:"gemstones"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock" binding:"gte=0"`
	Images         []string        `json:"images"`
	CompletionTime string          `json:"completion_time"`
}

// UploadResult is what UploadJewelry wrote
type UploadResult struct {
	Designer *models.Designer `json:"designer"`
	Product  *models.Product  `json:"product"`
}

// DesignerService stores designer profiles and portfolios
type DesignerService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewDesignerService creates a designer store. catalog receives uploaded jewelry.
func NewDesignerService(db *gorm.DB, catalog *CatalogService) *DesignerService {
	return &DesignerService{db: db, catalog: catalog}
}

func preloadPortfolio(db *gorm.DB) *gorm.DB {
	return db.Preload("Portfolio", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

// List returns designers matching the filter
func (s *DesignerService) List(ctx context.Context, f DesignerFilter) ([]models.Designer, error) {
	q := preloadPortfolio(s.db.WithContext(ctx))
	if f.Location != "" {
		q = q.Where(`LOWER(location) LIKE ? ESCAPE '\'`, containsPattern(f.Location))
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}

	var designers []models.Designer
	if err := q.Order("id ASC").Find(&designers).Error; err != nil {
		return nil, fmt.Errorf("failed to list designers: %w", err)
	}

	// specialties live in a JSON column, so match them here
	out := make([]models.Designer, 0, len(designers))
	for _, d := range designers {
		if f.Specialty == "" || hasSpecialty(d.Specialties, f.Specialty) {
			out = append(out, d)
		}
	}
	return out, nil
}

func hasSpecialty(specialties []string, term string) bool {
	term = strings.ToLower(term)
	for _, s := range specialties {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// GetByID returns a designer with their portfolio
func (s *DesignerService) GetByID(ctx context.Context, id uint) (*models.Designer, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *DesignerService) load(tx *gorm.DB, id uint) (*models.Designer, error) {
	var designer models.Designer
	if err := preloadPortfolio(tx).First(&designer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignerNotFound
		}
		return nil, fmt.Errorf("failed to load designer: %w", err)
	}
	return &designer, nil
}

// Create stores a new designer with zeroed counters and an empty portfolio
func (s *DesignerService) Create(ctx context.Context, designer models.Designer) (*models.Designer, error) {
	designer.Rating = 0
	designer.CompletedOrders = 0
	designer.ActiveOrders = 0
	designer.Portfolio = []models.PortfolioItem{}
	designer.Specialties = models.StringList(models.UniqueStrings(designer.Specialties))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx.Model(&models.Designer{}))
		if err != nil {
			return err
		}
		designer.ID = id
		return tx.Omit(clause.Associations).Create(&designer).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create designer: %w", err)
	}

	logger.FromCtx(ctx).Info("designer created", zap.Uint("designer_id", designer.ID))
	return &designer, nil
}

// Update merges patch over the stored profile
func (s *DesignerService) Update(ctx context.Context, id uint, patch DesignerPatch) (*models.Designer, error) {
	var designer *models.Designer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		designer, err = s.load(tx, id)
		if err != nil {
			return err
		}
		patch.apply(designer)
		return tx.Omit(clause.Associations).Save(designer).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update designer: %w", err)
	}
	return designer, nil
}

func (p DesignerPatch) apply(d *models.Designer) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Bio != nil {
		d.Bio = *p.Bio
	}
	if p.Avatar != nil {
		d.Avatar = *p.Avatar
	}
	if p.Specialties != nil {
		d.Specialties = models.StringList(models.UniqueStrings(p.Specialties))
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Rating != nil {
		d.Rating = *p.Rating
	}
}

// Delete removes a designer and their portfolio. Products keep their designer id.
func (s *DesignerService) Delete(ctx context.Context, id uint) (*models.Designer, error) {
	var designer *models.Designer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		designer, err = s.load(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("designer_id = ?", id).Delete(&models.PortfolioItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Designer{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete designer: %w", err)
	}

	logger.FromCtx(ctx).Info("designer deleted", zap.Uint("designer_id", id))
	return designer, nil
}

// AddPortfolioItem appends an entry to the designer's portfolio
func (s *DesignerService) AddPortfolioItem(ctx context.Context, designerID uint, in PortfolioInput) (*models.PortfolioItem, error) {
	var item *models.PortfolioItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.addPortfolioItem(tx, designerID, in)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add portfolio item: %w", err)
	}
	return item, nil
}

func (s *DesignerService) addPortfolioItem(tx *gorm.DB, designerID uint, in PortfolioInput) (*models.PortfolioItem, error) {
	var exists int64
	if err := tx.Model(&models.Designer{}).Where("id = ?", designerID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrDesignerNotFound
	}

	id, err := nextID(tx.Model(&models.PortfolioItem{}).Where("designer_id = ?", designerID))
	if err != nil {
		return nil, err
	}
	item := models.PortfolioItem{
		DesignerID:     designerID,
		ID:             id,
		Image:          in.Image,
		Title:          in.Title,
		Description:    in.Description,
		Tags:           models.StringList(models.UniqueStrings(in.Tags)),
		Metal:          in.Metal,
		Gemstones:      models.StringList(models.UniqueStrings(in.Gemstones)),
		CompletionTime: in.CompletionTime,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemovePortfolioItem deletes one entry and returns it
func (s *DesignerService) RemovePortfolioItem(ctx context.Context, designerID, itemID uint) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.load(tx, designerID); err != nil {
			return err
		}
		err := tx.Where("designer_id = ? AND id = ?", designerID, itemID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPortfolioItemNotFound
		}
		if err != nil {
			return err
		}
		return tx.Where("designer_id = ? AND id = ?", designerID, itemID).Delete(&models.PortfolioItem{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to remove portfolio item: %w", err)
	}
	return &item, nil
}

// Specialties returns every distinct specialty in designer id order
func (s *DesignerService) Specialties(ctx context.Context) ([]string, error) {
	var designers []models.Designer
	if err := s.db.WithContext(ctx).Select("id", "specialties").Order("id ASC").Find(&designers).Error; err != nil {
		return nil, fmt.Errorf("failed to list specialties: %w", err)
	}
	var all []string
	for _, d := range designers {
		all = append(all, d.Specialties...)
	}
	return distinct(all), nil
}

// Locations returns every distinct non-empty location in designer id order
func (s *DesignerService) Locations(ctx context.Context) ([]string, error) {
	var locations []string
	if err := s.db.WithContext(ctx).Model(&models.Designer{}).Where("location <> ''").Order("id ASC").Pluck("location", &locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return distinct(locations), nil
}

// UploadJewelry publishes a finished piece: a portfolio entry on the designer
// and a catalog product linked back to them. Both writes share one
// transaction; a failure leaves neither behind.
func (s *DesignerService) UploadJewelry(ctx context.Context, designerID uint, in JewelryUpload) (*UploadResult, error) {
	gemstones := models.UniqueStrings(in.Gemstones)
	tags := models.UniqueStrings(append([]string{in.Category, in.Metal}, gemstones...))
	image := ""
	if len(in.Images) > 0 {
		image = in.Images[0]
	}

	result := &UploadResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.addPortfolioItem(tx, designerID, PortfolioInput{
			Image:          image,
			Title:          in.Name,
			Description:    in.Description,
			Tags:           tags,
			Metal:          in.Metal,
			Gemstones:      gemstones,
			CompletionTime: in.CompletionTime,
		}); err != nil {
			return err
		}

		product, err := s.catalog.WithTx(tx).Create(ctx, models.Product{
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			Metal:       in.Metal,
			Gemstones:   models.StringList(gemstones),
			Price:       in.Price,
			Stock:       in.Stock,
			Images:      models.StringList(in.Images),
			DesignerID:  &designerID,
		})
		if err != nil {
			return err
		}
		result.Product = product

		result.Designer, err = s.load(tx, designerID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to upload jewelry: %w", err)
	}

	logger.FromCtx(ctx).Info("jewelry uploaded",
		zap.Uint("designer_id", designerID),
		zap.Uint("product_id", result.Product.ID),
	)
	return result, nil
}
