package models

import (
	"time"
)

// Roles a user can act under
const (
	RoleCustomer = "customer"
	RoleDesigner = "designer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleDesigner, RoleAdmin:
		return true
	}
	return false
}

// User represents a roster entry (customer, designer or admin)
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"not null;default:'customer'" json:"role"` // "customer", "designer" or "admin"
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Designer{},
		&PortfolioItem{},
		&CustomOrder{},
		&Milestone{},
		&CartItem{},
	}
}
