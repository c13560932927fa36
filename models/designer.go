package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Designer represents a jewelry designer taking custom commissions
type Designer struct {
	ID              uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name            string                      `gorm:"not null" json:"name"`
	Email           string                      `gorm:"index" json:"email"`
	Bio             string                      `gorm:"type:text" json:"bio"`
	Avatar          string                      `json:"avatar"`
	Specialties     datatypes.JSONSlice[string] `json:"specialties"`
	Location        string                      `gorm:"index" json:"location"`
	Rating          float64                     `gorm:"not null;default:0" json:"rating"`
	CompletedOrders int                         `gorm:"not null;default:0" json:"completed_orders"`
	ActiveOrders    int                         `gorm:"not null;default:0" json:"active_orders"`
	Portfolio       []PortfolioItem             `gorm:"foreignKey:DesignerID" json:"portfolio"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Designer model
func (Designer) TableName() string {
	return "designers"
}

// BeforeSave keeps list columns as JSON arrays instead of null
func (d *Designer) BeforeSave(tx *gorm.DB) error {
	d.Specialties = StringList(d.Specialties)
	return nil
}

// PortfolioItem is a showcase entry of a designer's past work.
// IDs are scoped to the owning designer.
type PortfolioItem struct {
	DesignerID     uint                        `gorm:"primaryKey;autoIncrement:false" json:"designer_id"`
	ID             uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Image          string                      `json:"image"`
	Title          string                      `gorm:"not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	Metal          string                      `json:"metal"`
	Gemstones      datatypes.JSONSlice[string] `json:"gemstones"`
	CompletionTime string                      `json:"completion_time"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// TableName specifies the table name for the PortfolioItem model
func (PortfolioItem) TableName() string {
	return "portfolio_items"
}

// BeforeSave keeps list columns as JSON arrays instead of null
func (p *PortfolioItem) BeforeSave(tx *gorm.DB) error {
	p.Tags = StringList(p.Tags)
	p.Gemstones = StringList(p.Gemstones)
	return nil
}
