package domain

import (
	"time"

	"github.com/google/uuid"
)

// Name limits, in characters, matching the schema columns.
const (
	MaxCategoryNameLength   = 100
	MaxItemNameLength       = 255
	MaxRestaurantNameLength = 255
)

// Category groups menu items within a restaurant. Names are unique per restaurant.
type Category struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
