package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Categories is the in-memory categories table.
type Categories struct {
	s *Store
}

func (s *Store) categoryNameTakenLocked(restaurantID uuid.UUID, name string, excludeID uuid.UUID) bool {
	for id, c := range s.categories {
		if c.RestaurantID == restaurantID && c.Name == name && id != excludeID {
			return true
		}
	}
	return false
}

// Create creates a new category.
func (cs *Categories) Create(_ context.Context, c *domain.Category) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	if cs.s.categoryNameTakenLocked(c.RestaurantID, c.Name, c.ID) {
		return domain.ErrDuplicateCategory
	}
	cs.s.categories[c.ID] = *c
	return nil
}

// GetByID retrieves a category owned by restaurantID.
func (cs *Categories) GetByID(_ context.Context, restaurantID, id uuid.UUID) (*domain.Category, error) {
	cs.s.mu.RLock()
	defer cs.s.mu.RUnlock()
	c, ok := cs.s.categories[id]
	if !ok || c.RestaurantID != restaurantID {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

// ListByRestaurant returns a restaurant's categories ordered by name.
func (cs *Categories) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]*domain.Category, error) {
	cs.s.mu.RLock()
	defer cs.s.mu.RUnlock()
	var out []*domain.Category
	for _, c := range cs.s.categories {
		if c.RestaurantID == restaurantID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ExistsByName reports whether the restaurant already has a category called
// name, ignoring excludeID.
func (cs *Categories) ExistsByName(_ context.Context, restaurantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	cs.s.mu.RLock()
	defer cs.s.mu.RUnlock()
	return cs.s.categoryNameTakenLocked(restaurantID, name, excludeID), nil
}

// Update updates a category's name and description.
func (cs *Categories) Update(_ context.Context, c *domain.Category) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	existing, ok := cs.s.categories[c.ID]
	if !ok || existing.RestaurantID != c.RestaurantID {
		return domain.ErrCategoryNotFound
	}
	if cs.s.categoryNameTakenLocked(c.RestaurantID, c.Name, c.ID) {
		return domain.ErrDuplicateCategory
	}
	existing.Name = c.Name
	existing.Description = c.Description
	existing.UpdatedAt = cs.s.now()
	cs.s.categories[c.ID] = existing
	c.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete removes a category. Items still referencing it become uncategorized.
func (cs *Categories) Delete(_ context.Context, restaurantID, id uuid.UUID) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	c, ok := cs.s.categories[id]
	if !ok || c.RestaurantID != restaurantID {
		return domain.ErrCategoryNotFound
	}
	delete(cs.s.categories, id)
	for iid, it := range cs.s.items {
		if it.InCategory(id) {
			it.CategoryID = uuid.NullUUID{}
			cs.s.items[iid] = it
		}
	}
	return nil
}

// Items is the in-memory menu items table.
type Items struct {
	s *Store
}

// Create creates a new menu item.
func (is *Items) Create(_ context.Context, it *domain.Item) error {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	stored := *it
	stored.CategoryName = ""
	is.s.items[it.ID] = stored
	return nil
}

// GetByID retrieves a menu item owned by restaurantID.
func (is *Items) GetByID(_ context.Context, restaurantID, id uuid.UUID) (*domain.Item, error) {
	is.s.mu.RLock()
	defer is.s.mu.RUnlock()
	it, ok := is.s.items[id]
	if !ok || it.RestaurantID != restaurantID {
		return nil, domain.ErrItemNotFound
	}
	return is.s.withCategoryName(it), nil
}

// ListByRestaurant returns a restaurant's items ordered by category name
// (uncategorized last) and then item name.
func (is *Items) ListByRestaurant(_ context.Context, restaurantID uuid.UUID, filter domain.ItemFilter) ([]*domain.Item, error) {
	is.s.mu.RLock()
	defer is.s.mu.RUnlock()
	var out []*domain.Item
	for _, it := range is.s.items {
		if it.RestaurantID != restaurantID {
			continue
		}
		if filter.AvailableOnly && !it.IsAvailable {
			continue
		}
		if filter.FeaturedOnly && !it.IsFeatured {
			continue
		}
		out = append(out, is.s.withCategoryName(it))
	}
	sortItems(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update updates a menu item.
func (is *Items) Update(_ context.Context, it *domain.Item) error {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	existing, ok := is.s.items[it.ID]
	if !ok || existing.RestaurantID != it.RestaurantID {
		return domain.ErrItemNotFound
	}
	stored := *it
	stored.CategoryName = ""
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = is.s.now()
	is.s.items[it.ID] = stored
	it.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes a menu item.
func (is *Items) Delete(_ context.Context, restaurantID, id uuid.UUID) error {
	is.s.mu.Lock()
	defer is.s.mu.Unlock()
	it, ok := is.s.items[id]
	if !ok || it.RestaurantID != restaurantID {
		return domain.ErrItemNotFound
	}
	delete(is.s.items, id)
	return nil
}

// CountByCategory returns how many of the restaurant's items reference categoryID.
func (is *Items) CountByCategory(_ context.Context, restaurantID, categoryID uuid.UUID) (int, error) {
	is.s.mu.RLock()
	defer is.s.mu.RUnlock()
	n := 0
	for _, it := range is.s.items {
		if it.RestaurantID == restaurantID && it.InCategory(categoryID) {
			n++
		}
	}
	return n, nil
}

// Stats returns the dashboard counts for a restaurant.
func (is *Items) Stats(_ context.Context, restaurantID uuid.UUID) (domain.Stats, error) {
	is.s.mu.RLock()
	defer is.s.mu.RUnlock()
	var st domain.Stats
	for _, c := range is.s.categories {
		if c.RestaurantID == restaurantID {
			st.Categories++
		}
	}
	for _, it := range is.s.items {
		if it.RestaurantID != restaurantID {
			continue
		}
		st.Items++
		if it.IsAvailable {
			st.Available++
		}
		if it.IsFeatured {
			st.Featured++
		}
		if it.IsSpecial {
			st.Specials++
		}
	}
	return st, nil
}

// ImagesByRestaurant lists the image references of a restaurant's items.
func (is *Items) ImagesByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]string, error) {
	is.s.mu.RLock()
	defer is.s.mu.RUnlock()
	var refs []string
	for _, it := range is.s.items {
		if it.RestaurantID == restaurantID && it.Image != "" {
			refs = append(refs, it.Image)
		}
	}
	return refs, nil
}
