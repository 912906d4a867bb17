package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/digimenu/pkg/domain"
)

// racingItems runs during once, after the item listing returns, the way an
// owner edit can land while a public menu is being built.
type racingItems struct {
	ItemStore
	during func()
}

func (r *racingItems) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter domain.ItemFilter) ([]*domain.Item, error) {
	items, err := r.ItemStore.ListByRestaurant(ctx, restaurantID, filter)
	if r.during != nil {
		r.during()
		r.during = nil
	}
	return items, err
}

func itemNames(items []*domain.Item) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}

func (s *CatalogSuite) TestPublicMenu_UnknownSlug() {
	_, err := s.menus.PublicMenu(s.ctx, "nobody-here")
	s.ErrorIs(err, domain.ErrRestaurantNotFound)
}

func (s *CatalogSuite) TestPublicMenu_Projection() {
	drinks := s.category(s.owner, "Drinks")
	mains := s.category(s.owner, "Mains")
	s.category(s.owner, "Desserts")

	s.item(s.owner, ItemInput{Name: "Water", CategoryID: inCategory(drinks), IsAvailable: true})
	s.item(s.owner, ItemInput{Name: "Cola", CategoryID: inCategory(drinks), IsAvailable: true, IsFeatured: true})
	s.item(s.owner, ItemInput{Name: "Burger", CategoryID: inCategory(mains), IsAvailable: true, IsFeatured: true})
	s.item(s.owner, ItemInput{Name: "Sold Out Steak", CategoryID: inCategory(mains), IsAvailable: false, IsFeatured: true})
	s.item(s.owner, ItemInput{Name: "Chef's Surprise", IsAvailable: true})
	s.item(s.other, ItemInput{Name: "Someone else's", IsAvailable: true})

	menu, err := s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)

	s.Equal(s.owner.ID, menu.Restaurant.ID)

	var categoryNames []string
	for _, c := range menu.Categories {
		categoryNames = append(categoryNames, c.Name)
	}
	s.Equal([]string{"Desserts", "Drinks", "Mains"}, categoryNames)

	s.Equal([]string{"Cola", "Water", "Burger", "Chef's Surprise"}, itemNames(menu.Items))
	s.Equal([]string{"Cola", "Burger"}, itemNames(menu.Featured))

	s.Len(menu.ByCategory, 3)
	s.Empty(menu.ByCategory["Desserts"])
	s.Equal([]string{"Cola", "Water"}, itemNames(menu.ByCategory["Drinks"]))
	s.Equal([]string{"Burger"}, itemNames(menu.ByCategory["Mains"]))

	s.Require().Len(menu.Sections, 3)
	s.Equal("Drinks", menu.Sections[0].Category.Name)
	s.Equal("Mains", menu.Sections[1].Category.Name)
	s.Nil(menu.Sections[2].Category)
	s.Equal([]string{"Chef's Surprise"}, itemNames(menu.Sections[2].Items))
}

func (s *CatalogSuite) TestPublicMenu_FeaturedLimit() {
	for i := 0; i < FeaturedLimit+3; i++ {
		s.item(s.owner, ItemInput{Name: fmt.Sprintf("Dish %02d", i), IsAvailable: true, IsFeatured: true})
	}

	menu, err := s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	s.Equal([]string{"Dish 00", "Dish 01", "Dish 02", "Dish 03", "Dish 04"}, itemNames(menu.Featured))
}

func (s *CatalogSuite) TestPublicMenu_ReadThroughCache() {
	s.item(s.owner, ItemInput{Name: "Burger", IsAvailable: true})

	first, err := s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	second, err := s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	s.Same(first, second)
	s.Equal(1, s.cache.hits)

	s.item(s.owner, ItemInput{Name: "Fries", IsAvailable: true})

	third, err := s.menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	s.Equal([]string{"Burger", "Fries"}, itemNames(third.Items))
}

func (s *CatalogSuite) TestPublicMenu_EditDuringReadIsNotCached() {
	s.item(s.owner, ItemInput{Name: "Burger", IsAvailable: true})

	items := &racingItems{ItemStore: s.store.Items()}
	items.during = func() {
		s.item(s.owner, ItemInput{Name: "Fries", IsAvailable: true})
	}
	menus := NewMenuService(s.store.Restaurants(), s.store.Categories(), items, s.cache, slog.New(slog.NewTextHandler(io.Discard, nil)))

	stale, err := menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	s.Equal([]string{"Burger"}, itemNames(stale.Items))
	s.NotContains(s.cache.menus, s.owner.Slug)

	fresh, err := menus.PublicMenu(s.ctx, s.owner.Slug)
	s.Require().NoError(err)
	s.Equal([]string{"Burger", "Fries"}, itemNames(fresh.Items))
	s.Contains(s.cache.menus, s.owner.Slug)
}
