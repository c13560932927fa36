// Package seed loads the static storefront collection into empty stores.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed data/seed.yaml
var defaultSeed []byte

// File is the seed collection
type File struct {
	Users        []models.User  `yaml:"users"`
	Designers    []DesignerSeed `yaml:"designers"`
	Products     []ProductSeed  `yaml:"products"`
	CustomOrders []OrderSeed    `yaml:"custom_orders"`
}

// DesignerSeed is a designer profile with its counters and portfolio
type DesignerSeed struct {
	Name            string          `yaml:"name"`
	Email           string          `yaml:"email"`
	Bio             string          `yaml:"bio"`
	Avatar          string          `yaml:"avatar"`
	Specialties     []string        `yaml:"specialties"`
	Location        string          `yaml:"location"`
	Rating          float64         `yaml:"rating"`
	CompletedOrders int             `yaml:"completed_orders"`
	ActiveOrders    int             `yaml:"active_orders"`
	Portfolio       []PortfolioSeed `yaml:"portfolio"`
}

// PortfolioSeed is one showcase entry
type PortfolioSeed struct {
	Title          string   `yaml:"title"`
	Image          string   `yaml:"image"`
	Description    string   `yaml:"description"`
	Tags           []string `yaml:"tags"`
	Metal          string   `yaml:"metal"`
	Gemstones      []string `yaml:"gemstones"`
	CompletionTime string   `yaml:"completion_time"`
}

// ProductSeed is a catalog product. Designer refers to a designer by name.
type ProductSeed struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Metal       string   `yaml:"metal"`
	Gemstones   []string `yaml:"gemstones"`
	Price       float64  `yaml:"price"`
	Stock       int      `yaml:"stock"`
	Images      []string `yaml:"images"`
	Designer    string   `yaml:"designer"`
}

// OrderSeed is a custom order replayed through the lifecycle
type OrderSeed struct {
	Customer            string             `yaml:"customer"`
	Specifications      SpecificationsSeed `yaml:"specifications"`
	Budget              float64            `yaml:"budget"`
	Priority            models.Priority    `yaml:"priority"`
	ReferenceImages     []string           `yaml:"reference_images"`
	Designer            string             `yaml:"designer"`
	CompletedMilestones int                `yaml:"completed_milestones"`
}

// SpecificationsSeed mirrors models.Specifications
type SpecificationsSeed struct {
	Type      string   `yaml:"type"`
	Metal     string   `yaml:"metal"`
	Gemstones []string `yaml:"gemstones"`
	Occasion  string   `yaml:"occasion"`
	Style     string   `yaml:"style"`
	Notes     string   `yaml:"notes"`
}

// Default returns the embedded collection
func Default() (*File, error) {
	return Parse(defaultSeed)
}

// LoadFile reads a collection from path, or the embedded one when path is empty
func LoadFile(path string) (*File, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML data into a File
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	for i := range f.Users {
		if f.Users[i].Role == "" {
			f.Users[i].Role = models.RoleCustomer
		}
	}
	return &f, nil
}

// Stores are the stores a collection is written through
type Stores struct {
	Catalog   *services.CatalogService
	Designers *services.DesignerService
	Orders    *services.CustomOrderService
}

// Summary counts what Apply wrote
type Summary struct {
	Users        int
	Designers    int
	Products     int
	CustomOrders int
}

// Apply writes each section of f whose table is still empty. Running it
// against an already seeded database writes nothing.
func Apply(ctx context.Context, db *gorm.DB, stores Stores, f *File) (*Summary, error) {
	summary := &Summary{}
	log := logger.FromCtx(ctx)

	empty, err := isEmpty(ctx, db, &models.User{})
	if err != nil {
		return nil, err
	}
	if empty && len(f.Users) > 0 {
		users := append([]models.User(nil), f.Users...)
		if err := db.WithContext(ctx).Create(&users).Error; err != nil {
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
		summary.Users = len(users)
	}

	designerIDs := map[string]uint{}
	empty, err = isEmpty(ctx, db, &models.Designer{})
	if err != nil {
		return nil, err
	}
	if empty {
		for _, d := range f.Designers {
			id, err := seedDesigner(ctx, db, stores.Designers, d)
			if err != nil {
				return nil, err
			}
			designerIDs[d.Name] = id
			summary.Designers++
		}
	} else {
		var existing []models.Designer
		if err := db.WithContext(ctx).Select("id", "name").Find(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to load designers: %w", err)
		}
		for _, d := range existing {
			designerIDs[d.Name] = d.ID
		}
	}

	empty, err = isEmpty(ctx, db, &models.Product{})
	if err != nil {
		return nil, err
	}
	if empty {
		for _, p := range f.Products {
			product := models.Product{
				Name:        p.Name,
				Description: p.Description,
				Category:    p.Category,
				Metal:       p.Metal,
				Gemstones:   models.StringList(p.Gemstones),
				Price:       decimal.NewFromFloat(p.Price),
				Stock:       p.Stock,
				Images:      models.StringList(p.Images),
			}
			if id, ok := designerIDs[p.Designer]; ok {
				product.DesignerID = &id
			}
			if _, err := stores.Catalog.Create(ctx, product); err != nil {
				return nil, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
			}
			summary.Products++
		}
	}

	empty, err = isEmpty(ctx, db, &models.CustomOrder{})
	if err != nil {
		return nil, err
	}
	if empty {
		for _, o := range f.CustomOrders {
			if err := seedOrder(ctx, stores.Orders, designerIDs, o); err != nil {
				return nil, err
			}
			summary.CustomOrders++
		}
	}

	log.Info("seed applied",
		zap.Int("users", summary.Users),
		zap.Int("designers", summary.Designers),
		zap.Int("products", summary.Products),
		zap.Int("custom_orders", summary.CustomOrders),
	)
	return summary, nil
}

func isEmpty(ctx context.Context, db *gorm.DB, model interface{}) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count seed target: %w", err)
	}
	return count == 0, nil
}

func seedDesigner(ctx context.Context, db *gorm.DB, designers *services.DesignerService, d DesignerSeed) (uint, error) {
	created, err := designers.Create(ctx, models.Designer{
		Name:        d.Name,
		Email:       d.Email,
		Bio:         d.Bio,
		Avatar:      d.Avatar,
		Specialties: models.StringList(d.Specialties),
		Location:    d.Location,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed designer %q: %w", d.Name, err)
	}

	// Create starts every designer from zero; the seed carries real history.
	err = db.WithContext(ctx).Model(&models.Designer{}).Where("id = ?", created.ID).Updates(map[string]interface{}{
		"rating":           d.Rating,
		"completed_orders": d.CompletedOrders,
		"active_orders":    d.ActiveOrders,
	}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to seed designer %q counters: %w", d.Name, err)
	}

	for _, p := range d.Portfolio {
		if _, err := designers.AddPortfolioItem(ctx, created.ID, services.PortfolioInput{
			Image:          p.Image,
			Title:          p.Title,
			Description:    p.Description,
			Tags:           p.Tags,
			Metal:          p.Metal,
			Gemstones:      p.Gemstones,
			CompletionTime: p.CompletionTime,
		}); err != nil {
			return 0, fmt.Errorf("failed to seed portfolio of %q: %w", d.Name, err)
		}
	}
	return created.ID, nil
}

// seedOrder stores o with the roster email as its customer id. Customer
// sessions are keyed by session id, so seeded orders are visible to staff only.
func seedOrder(ctx context.Context, orders *services.CustomOrderService, designerIDs map[string]uint, o OrderSeed) error {
	order, err := orders.Create(ctx, services.CustomOrderInput{
		CustomerID: o.Customer,
		Specifications: models.Specifications{
			Type:      o.Specifications.Type,
			Metal:     o.Specifications.Metal,
			Gemstones: models.StringList(o.Specifications.Gemstones),
			Occasion:  o.Specifications.Occasion,
			Style:     o.Specifications.Style,
			Notes:     o.Specifications.Notes,
		},
		Budget:          decimal.NewFromFloat(o.Budget),
		ReferenceImages: o.ReferenceImages,
		Priority:        o.Priority,
	})
	if err != nil {
		return fmt.Errorf("failed to seed custom order for %s: %w", o.Customer, err)
	}

	if id, ok := designerIDs[o.Designer]; ok {
		if _, err := orders.AssignDesigner(ctx, order.ID, id, o.Designer); err != nil {
			return fmt.Errorf("failed to assign seeded order %d: %w", order.ID, err)
		}
	}

	status := models.MilestoneCompleted
	for id := 2; id <= o.CompletedMilestones && id <= len(order.Milestones); id++ {
		if _, err := orders.UpdateMilestone(ctx, order.ID, uint(id), models.MilestonePatch{Status: &status}); err != nil {
			return fmt.Errorf("failed to advance seeded order %d: %w", order.ID, err)
		}
	}
	return nil
}
