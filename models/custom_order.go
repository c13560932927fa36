package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Priority ranks a custom order for the workshop queue
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Specifications describes the piece a customer is asking for
type Specifications struct {
	Type      string                      `json:"type"`
	Metal     string                      `json:"metal"`
	Gemstones datatypes.JSONSlice[string] `json:"gemstones"`
	Occasion  string                      `json:"occasion"`
	Style     string                      `json:"style"`
	Notes     string                      `gorm:"type:text" json:"notes"`
}

// CustomOrder represents a bespoke jewelry request tracked through production milestones
type CustomOrder struct {
	ID                  uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CustomerID          string                      `gorm:"not null;index" json:"customer_id"`
	DesignerID          *uint                       `gorm:"index" json:"designer_id"`   // nullable until assigned
	DesignerName        *string                     `json:"designer_name"`              // nullable until assigned
	Specifications      Specifications              `gorm:"embedded;embeddedPrefix:spec_" json:"specifications"`
	Budget              decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"budget"`
	ReferenceImages     datatypes.JSONSlice[string] `json:"reference_images"`
	Status              string                      `gorm:"not null;index" json:"status"` // derived, see Refresh
	CurrentMilestone    string                      `gorm:"not null" json:"current_milestone"`
	ProgressStartedAt   *time.Time                  `json:"progress_started_at"` // first milestone update
	Milestones          []Milestone                 `gorm:"foreignKey:OrderID" json:"milestones"`
	Priority            Priority                    `gorm:"not null;default:'medium'" json:"priority"`
	EstimatedCompletion *time.Time                  `json:"estimated_completion"`
	Progress            Progress                    `gorm:"-" json:"progress"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the CustomOrder model
func (CustomOrder) TableName() string {
	return "custom_orders"
}

// BeforeSave keeps list columns as JSON arrays instead of null
func (o *CustomOrder) BeforeSave(tx *gorm.DB) error {
	o.ReferenceImages = StringList(o.ReferenceImages)
	o.Specifications.Gemstones = StringList(o.Specifications.Gemstones)
	if o.Priority == "" {
		o.Priority = PriorityMedium
	}
	return nil
}

// Refresh recomputes status and current milestone from the milestone list,
// the assignment and the progress fact. It is the only writer of both fields.
func (o *CustomOrder) Refresh() Progress {
	p := EvaluateProgress(o.Milestones, o.DesignerID, o.ProgressStartedAt)
	o.Status = string(p.Phase)
	o.CurrentMilestone = p.CurrentMilestone
	o.Progress = p
	return p
}

// MilestoneStatus is the sub-state of a single milestone
type MilestoneStatus string

const (
	MilestonePending          MilestoneStatus = "pending"
	MilestoneInProgress       MilestoneStatus = "in_progress"
	MilestoneAwaitingApproval MilestoneStatus = "awaiting_approval"
	MilestoneCompleted        MilestoneStatus = "completed"
)

// Milestone is one fixed stage of a custom order's production checklist
type Milestone struct {
	OrderID uint                        `gorm:"primaryKey;autoIncrement:false" json:"-"`
	ID      uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"` // 1..8 within the order
	Name    string                      `gorm:"not null" json:"name"`
	Status  MilestoneStatus             `gorm:"not null;default:'pending'" json:"status"`
	Date    *time.Time                  `json:"date"` // set when completed
	Images  datatypes.JSONSlice[string] `json:"images"`
	Notes   string                      `gorm:"type:text" json:"notes"`
}

// TableName specifies the table name for the Milestone model
func (Milestone) TableName() string {
	return "custom_order_milestones"
}

// BeforeSave keeps the evidence list a JSON array
func (m *Milestone) BeforeSave(tx *gorm.DB) error {
	m.Images = StringList(m.Images)
	return nil
}
