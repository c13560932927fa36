package services

import (
	"errors"
	"fmt"
)

var (
	// -- Lookup --
	ErrNotFound              = errors.New("not found")
	ErrProductNotFound       = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrMilestoneNotFound     = fmt.Errorf("milestone %w", ErrNotFound)
	ErrDesignerNotFound      = fmt.Errorf("designer %w", ErrNotFound)
	ErrPortfolioItemNotFound = fmt.Errorf("portfolio item %w", ErrNotFound)
	ErrCartItemNotFound      = fmt.Errorf("cart item %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)

	// -- Validation & state --
	ErrValidation   = errors.New("validation failed")
	ErrCatalogEmpty = errors.New("catalog is empty")
	ErrEmptyCart    = errors.New("cart is empty")

	// -- Session & access --
	ErrNoCurrentUser    = errors.New("no authenticated user found")
	ErrAccessDenied     = errors.New("access denied")
	ErrIdentityMismatch = fmt.Errorf("%w: email does not match the verified identity", ErrAccessDenied)
	ErrRoleNotGranted   = fmt.Errorf("%w: role is not granted to this user", ErrAccessDenied)
	ErrTokenRequired    = fmt.Errorf("%w: a verified access token is required", ErrAccessDenied)
)

// validationError wraps ErrValidation with a field-specific message
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
