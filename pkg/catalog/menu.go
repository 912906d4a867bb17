package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/digimenu/pkg/domain"
)

// FeaturedLimit caps the featured strip on the public menu.
const FeaturedLimit = 5

// Section is one heading of the public menu. Category is nil for the
// trailing section of uncategorized items.
type Section struct {
	Category *domain.Category `json:"category"`
	Items    []*domain.Item   `json:"items"`
}

// PublicMenu is the read-only view of a restaurant's menu shown to guests.
// Only available items appear anywhere in it.
type PublicMenu struct {
	Restaurant *domain.Restaurant `json:"restaurant"`
	// Categories are ordered by name, including ones with no available items.
	Categories []*domain.Category `json:"categories"`
	// Items are ordered by category name (uncategorized last), then name.
	Items []*domain.Item `json:"items"`
	// Featured holds the first FeaturedLimit featured items in Items order.
	Featured []*domain.Item `json:"featured"`
	// ByCategory maps every category name to its available items.
	ByCategory map[string][]*domain.Item `json:"by_category"`
	// Sections lists non-empty categories in order, then uncategorized items.
	Sections []Section `json:"sections"`
}

// NewPublicMenu assembles the projection from a restaurant's categories and
// its available items, both already ordered.
func NewPublicMenu(rest *domain.Restaurant, categories []*domain.Category, items []*domain.Item) *PublicMenu {
	m := &PublicMenu{
		Restaurant: rest,
		Categories: categories,
		Items:      items,
		Featured:   []*domain.Item{},
		ByCategory: make(map[string][]*domain.Item, len(categories)),
		Sections:   []Section{},
	}

	for _, it := range items {
		if it.IsFeatured && len(m.Featured) < FeaturedLimit {
			m.Featured = append(m.Featured, it)
		}
	}

	for _, c := range categories {
		var inCategory []*domain.Item
		for _, it := range items {
			if it.InCategory(c.ID) {
				inCategory = append(inCategory, it)
			}
		}
		if inCategory == nil {
			inCategory = []*domain.Item{}
		}
		m.ByCategory[c.Name] = inCategory
		if len(inCategory) > 0 {
			m.Sections = append(m.Sections, Section{Category: c, Items: inCategory})
		}
	}

	var uncategorized []*domain.Item
	for _, it := range items {
		if !it.HasCategory() {
			uncategorized = append(uncategorized, it)
		}
	}
	if len(uncategorized) > 0 {
		m.Sections = append(m.Sections, Section{Items: uncategorized})
	}
	return m
}

// MenuService builds public menus, reading through an optional cache.
type MenuService struct {
	restaurants RestaurantStore
	categories  CategoryStore
	items       ItemStore
	cache       MenuCache
	logger      *slog.Logger
}

// NewMenuService creates a new public menu service. cache may be nil.
func NewMenuService(restaurants RestaurantStore, categories CategoryStore, items ItemStore, cache MenuCache, logger *slog.Logger) *MenuService {
	return &MenuService{
		restaurants: restaurants,
		categories:  categories,
		items:       items,
		cache:       cache,
		logger:      logger,
	}
}

// PublicMenu returns the menu for slug, or domain.ErrRestaurantNotFound.
func (s *MenuService) PublicMenu(ctx context.Context, slug string) (*PublicMenu, error) {
	var gen int64
	// fill is set on a clean miss; after a read error the generation is unknown.
	fill := false
	if s.cache != nil {
		menu, g, err := s.cache.Get(ctx, slug)
		switch {
		case err != nil:
			s.logger.Warn("menu cache read failed", "slug", slug, "error", err)
		case menu != nil:
			return menu, nil
		default:
			gen, fill = g, true
		}
	}

	rest, err := s.restaurants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListByRestaurant(ctx, rest.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items, err := s.items.ListByRestaurant(ctx, rest.ID, domain.ItemFilter{AvailableOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	menu := NewPublicMenu(rest, categories, items)
	if fill {
		if err := s.cache.Set(ctx, slug, gen, menu); err != nil {
			s.logger.Warn("menu cache write failed", "slug", slug, "error", err)
		}
	}
	return menu, nil
}
