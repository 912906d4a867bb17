package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Restaurants is the in-memory restaurants table.
type Restaurants struct {
	s *Store
}

func (s *Store) slugTakenLocked(slug string, excludeID uuid.UUID) bool {
	for id, rest := range s.restaurants {
		if rest.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

// Create creates a new restaurant.
func (r *Restaurants) Create(_ context.Context, rest *domain.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.slugTakenLocked(rest.Slug, rest.ID) {
		return domain.ErrSlugTaken
	}
	r.s.restaurants[rest.ID] = *rest
	return nil
}

// GetByID retrieves a restaurant by ID.
func (r *Restaurants) GetByID(_ context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rest, ok := r.s.restaurants[id]
	if !ok {
		return nil, domain.ErrRestaurantNotFound
	}
	return &rest, nil
}

// GetBySlug retrieves a restaurant by slug.
func (r *Restaurants) GetBySlug(_ context.Context, slug string) (*domain.Restaurant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rest := range r.s.restaurants {
		if rest.Slug == slug {
			return &rest, nil
		}
	}
	return nil, domain.ErrRestaurantNotFound
}

// GetByOwnerID retrieves the restaurant owned by a user.
func (r *Restaurants) GetByOwnerID(_ context.Context, ownerID uuid.UUID) (*domain.Restaurant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rest := range r.s.restaurants {
		if rest.OwnerID == ownerID {
			return &rest, nil
		}
	}
	return nil, domain.ErrRestaurantNotFound
}

// SlugExists reports whether slug is used by a restaurant other than excludeID.
func (r *Restaurants) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.slugTakenLocked(slug, excludeID), nil
}

// Update updates a restaurant's profile.
func (r *Restaurants) Update(_ context.Context, rest *domain.Restaurant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.restaurants[rest.ID]
	if !ok {
		return domain.ErrRestaurantNotFound
	}
	if r.s.slugTakenLocked(rest.Slug, rest.ID) {
		return domain.ErrSlugTaken
	}
	existing.Name = rest.Name
	existing.Slug = rest.Slug
	existing.Logo = rest.Logo
	existing.ContactInfo = rest.ContactInfo
	existing.UpdatedAt = r.s.now()
	r.s.restaurants[rest.ID] = existing
	rest.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete removes a restaurant along with its categories and items.
func (r *Restaurants) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.restaurants[id]; !ok {
		return domain.ErrRestaurantNotFound
	}
	r.s.deleteRestaurantLocked(id)
	return nil
}
