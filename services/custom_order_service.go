package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomOrderInput is a customer's custom order submission
type CustomOrderInput struct {
	CustomerID          string                `json:"-"`
	Specifications      models.Specifications `json:"specifications"`
	Budget              decimal.Decimal       `json:"budget"`
	ReferenceImages     []string              `json:"reference_images"`
	Priority            models.Priority       `json:"priority" binding:"omitempty,oneof=low medium high"`
	EstimatedCompletion *time.Time            `json:"estimated_completion"`
}

// CustomOrderPatch updates the non-lifecycle fields of an order
type CustomOrderPatch struct {
	Specifications      *models.Specifications `json:"specifications"`
	Budget              *decimal.Decimal       `json:"budget"`
	ReferenceImages     []string               `json:"reference_images"`
	Priority            *models.Priority       `json:"priority" binding:"omitempty,oneof=low medium high"`
	EstimatedCompletion *time.Time             `json:"estimated_completion"`
}

// CustomOrderFilter narrows an order listing. Zero values mean "no filter".
type CustomOrderFilter struct {
	Status     string
	CustomerID string
	DesignerID *uint
	Priority   models.Priority
}

// OrderStatistics summarizes the order book
type OrderStatistics struct {
	TotalOrders   int            `json:"total_orders"`
	StatusCounts  map[string]int `json:"status_counts"`
	AverageBudget int64          `json:"average_budget"`
}

// CustomOrderService stores custom orders and drives their milestone lifecycle
type CustomOrderService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCustomOrderService creates a custom order store over db
func NewCustomOrderService(db *gorm.DB) *CustomOrderService {
	return &CustomOrderService{db: db, now: time.Now}
}

// SetClock replaces the time source used for milestone dates (primarily for testing)
func (s *CustomOrderService) SetClock(now func() time.Time) {
	s.now = now
}

func preloadMilestones(db *gorm.DB) *gorm.DB {
	return db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

// List returns every order matching the filter
func (s *CustomOrderService) List(ctx context.Context, f CustomOrderFilter) ([]models.CustomOrder, error) {
	q := preloadMilestones(s.db.WithContext(ctx))
	if f.Status != "" {
		q = q.Where("LOWER(status) = LOWER(?)", f.Status)
	}
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.DesignerID != nil {
		q = q.Where("designer_id = ?", *f.DesignerID)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	orders := []models.CustomOrder{}
	if err := q.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom orders: %w", err)
	}
	for i := range orders {
		orders[i].Refresh()
	}
	return orders, nil
}

// GetByID returns a single order with its milestones
func (s *CustomOrderService) GetByID(ctx context.Context, id uint) (*models.CustomOrder, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *CustomOrderService) load(tx *gorm.DB, id uint) (*models.CustomOrder, error) {
	var order models.CustomOrder
	if err := preloadMilestones(tx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load custom order: %w", err)
	}
	order.Refresh()
	return &order, nil
}

// Create stores a new order with the fixed milestone checklist
func (s *CustomOrderService) Create(ctx context.Context, in CustomOrderInput) (*models.CustomOrder, error) {
	now := s.now()
	order := models.CustomOrder{
		CustomerID:          in.CustomerID,
		Specifications:      in.Specifications,
		Budget:              in.Budget,
		ReferenceImages:     models.StringList(in.ReferenceImages),
		Priority:            in.Priority,
		EstimatedCompletion: in.EstimatedCompletion,
	}
	order.Specifications.Gemstones = models.StringList(models.UniqueStrings(in.Specifications.Gemstones))
	if order.Priority == "" {
		order.Priority = models.PriorityMedium
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextID(tx.Model(&models.CustomOrder{}))
		if err != nil {
			return err
		}
		order.ID = id
		order.Milestones = models.NewMilestones(id, now)
		order.Refresh()
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create custom order: %w", err)
	}

	logger.FromCtx(ctx).Info("custom order created",
		zap.Uint("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.String("type", order.Specifications.Type),
	)
	return &order, nil
}

// Update patches the order's request details. Lifecycle fields are untouched.
func (s *CustomOrderService) Update(ctx context.Context, id uint, patch CustomOrderPatch) (*models.CustomOrder, error) {
	return s.mutate(ctx, id, func(order *models.CustomOrder) error {
		if patch.Specifications != nil {
			order.Specifications = *patch.Specifications
			order.Specifications.Gemstones = models.StringList(models.UniqueStrings(patch.Specifications.Gemstones))
		}
		if patch.Budget != nil {
			order.Budget = *patch.Budget
		}
		if patch.ReferenceImages != nil {
			order.ReferenceImages = models.StringList(patch.ReferenceImages)
		}
		if patch.Priority != nil {
			order.Priority = *patch.Priority
		}
		if patch.EstimatedCompletion != nil {
			order.EstimatedCompletion = patch.EstimatedCompletion
		}
		return nil
	})
}

// UpdateMilestone merges patch into one milestone and recomputes the order's
// status and current milestone.
func (s *CustomOrderService) UpdateMilestone(ctx context.Context, orderID, milestoneID uint, patch models.MilestonePatch) (*models.CustomOrder, error) {
	var order *models.CustomOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(tx, orderID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range order.Milestones {
			if order.Milestones[i].ID == milestoneID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrMilestoneNotFound
		}

		now := s.now()
		order.Milestones[idx].Apply(patch, now)
		if order.ProgressStartedAt == nil {
			order.ProgressStartedAt = &now
		}
		order.Refresh()

		if err := tx.Save(&order.Milestones[idx]).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(order).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}

	logger.FromCtx(ctx).Info("milestone updated",
		zap.Uint("order_id", orderID),
		zap.Uint("milestone_id", milestoneID),
		zap.String("status", order.Status),
		zap.String("current_milestone", order.CurrentMilestone),
	)
	return order, nil
}

// AddMilestoneImage appends an evidence image reference to a milestone
func (s *CustomOrderService) AddMilestoneImage(ctx context.Context, orderID, milestoneID uint, imageKey string) (*models.CustomOrder, error) {
	return s.UpdateMilestone(ctx, orderID, milestoneID, models.MilestonePatch{AppendImages: []string{imageKey}})
}

// AssignDesigner records who is making the piece
func (s *CustomOrderService) AssignDesigner(ctx context.Context, orderID, designerID uint, designerName string) (*models.CustomOrder, error) {
	order, err := s.mutate(ctx, orderID, func(order *models.CustomOrder) error {
		order.DesignerID = &designerID
		order.DesignerName = &designerName
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("designer assigned",
		zap.Uint("order_id", orderID),
		zap.Uint("designer_id", designerID),
	)
	return order, nil
}

// mutate loads an order, applies fn, recomputes derived fields and saves it
func (s *CustomOrderService) mutate(ctx context.Context, id uint, fn func(*models.CustomOrder) error) (*models.CustomOrder, error) {
	var order *models.CustomOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(tx, id)
		if err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
		order.Refresh()
		return tx.Omit(clause.Associations).Save(order).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update custom order: %w", err)
	}
	return order, nil
}

// Delete removes an order and its milestones outright
func (s *CustomOrderService) Delete(ctx context.Context, id uint) (*models.CustomOrder, error) {
	var order *models.CustomOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.load(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.Milestone{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.CustomOrder{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete custom order: %w", err)
	}

	logger.FromCtx(ctx).Info("custom order deleted", zap.Uint("order_id", id))
	return order, nil
}

// Statistics counts orders per status and averages their budgets
func (s *CustomOrderService) Statistics(ctx context.Context) (*OrderStatistics, error) {
	var orders []models.CustomOrder
	if err := s.db.WithContext(ctx).Select("id", "status", "budget").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load order statistics: %w", err)
	}

	stats := &OrderStatistics{TotalOrders: len(orders), StatusCounts: map[string]int{}}
	if len(orders) == 0 {
		return stats, nil
	}

	sum := decimal.Zero
	for _, o := range orders {
		stats.StatusCounts[o.Status]++
		sum = sum.Add(o.Budget)
	}
	stats.AverageBudget = sum.Div(decimal.NewFromInt(int64(len(orders)))).Round(0).IntPart()
	return stats, nil
}
