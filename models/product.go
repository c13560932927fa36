package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	// Prices and totals are emitted as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a purchasable jewelry piece in the catalog
type Product struct {
	ID          uint                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string                      `gorm:"not null" json:"name"`
	Description string                      `gorm:"type:text" json:"description"`
	Category    string                      `gorm:"not null;index" json:"category"`
	Metal       string                      `gorm:"index" json:"metal"`
	Gemstones   datatypes.JSONSlice[string] `json:"gemstones"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock       int                         `gorm:"not null;default:0" json:"stock"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	DesignerID  *uint                       `gorm:"index" json:"designer_id"` // denormalized, not enforced
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// BeforeSave keeps list columns as JSON arrays instead of null
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Gemstones = StringList(p.Gemstones)
	p.Images = StringList(p.Images)
	return nil
}

// StringList returns a non-nil JSON list holding values
func StringList(values []string) datatypes.JSONSlice[string] {
	if values == nil {
		return datatypes.JSONSlice[string]{}
	}
	return datatypes.JSONSlice[string](values)
}

// UniqueStrings drops blanks and repeated values, keeping first-seen order
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
