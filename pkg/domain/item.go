package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a single dish or drink on a restaurant's menu.
type Item struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	CategoryID   uuid.NullUUID
	// CategoryName is filled in on reads; empty when uncategorized.
	CategoryName string
	Name         string
	Description  string
	Price        decimal.Decimal
	Image        string
	IsAvailable  bool
	IsFeatured   bool
	IsSpecial    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCategory reports whether the item is filed under a category.
func (i *Item) HasCategory() bool {
	return i.CategoryID.Valid
}

// InCategory reports whether the item is filed under the given category.
func (i *Item) InCategory(id uuid.UUID) bool {
	return i.CategoryID.Valid && i.CategoryID.UUID == id
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	AvailableOnly bool
	FeaturedOnly  bool
	Limit         int
}

// Stats holds the dashboard summary counts for a restaurant.
type Stats struct {
	Categories int
	Items      int
	Available  int
	Featured   int
	Specials   int
}
