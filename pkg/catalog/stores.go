// Package catalog implements restaurant menu management and the public menu
// projection.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// RestaurantStore persists restaurants.
type RestaurantStore interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Restaurant, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Restaurant, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, rest *domain.Restaurant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryStore persists categories scoped to a restaurant.
type CategoryStore interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, restaurantID, id uuid.UUID) (*domain.Category, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error)
	ExistsByName(ctx context.Context, restaurantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, restaurantID, id uuid.UUID) error
}

// ItemStore persists menu items scoped to a restaurant.
type ItemStore interface {
	Create(ctx context.Context, it *domain.Item) error
	GetByID(ctx context.Context, restaurantID, id uuid.UUID) (*domain.Item, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter domain.ItemFilter) ([]*domain.Item, error)
	Update(ctx context.Context, it *domain.Item) error
	Delete(ctx context.Context, restaurantID, id uuid.UUID) error
	CountByCategory(ctx context.Context, restaurantID, categoryID uuid.UUID) (int, error)
	Stats(ctx context.Context, restaurantID uuid.UUID) (domain.Stats, error)
	ImagesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]string, error)
}

// MenuCache caches public menus by restaurant slug.
//
// Every slug has a generation that Delete advances. Get reports the
// generation it saw, and Set drops the write when the generation has
// moved on since, so a menu read before an invalidation never lands after it.
// A nil menu from Get is a miss.
type MenuCache interface {
	Get(ctx context.Context, slug string) (menu *PublicMenu, gen int64, err error)
	Set(ctx context.Context, slug string, gen int64, menu *PublicMenu) error
	Delete(ctx context.Context, slug string) error
}
