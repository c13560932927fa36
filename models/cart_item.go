package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartItem is one line of a session's cart. ProductID is a weak reference
// resolved against the catalog at read time.
type CartItem struct {
	ID              uint              `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SessionID       string            `gorm:"not null;index" json:"-"`
	ProductID       uint              `gorm:"not null;index" json:"product_id"`
	Quantity        int               `gorm:"not null;check:quantity > 0" json:"quantity"`
	SelectedOptions datatypes.JSONMap `json:"selected_options"` // size, engraving, ...
	CreatedAt       time.Time         `json:"added_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// BeforeSave keeps the options column a JSON object
func (i *CartItem) BeforeSave(tx *gorm.DB) error {
	if i.SelectedOptions == nil {
		i.SelectedOptions = datatypes.JSONMap{}
	}
	return nil
}
