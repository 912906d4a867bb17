package domain

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the tenant: every category and menu item belongs to exactly one.
type Restaurant struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Slug        string
	Logo        string
	ContactInfo string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MenuPath returns the public menu path for the restaurant.
func (r *Restaurant) MenuPath() string {
	return "/" + r.Slug + "-menu/"
}

// HasLogo reports whether a logo asset is attached.
func (r *Restaurant) HasLogo() bool {
	return r.Logo != ""
}
