package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
	"github.com/tendant/digimenu/pkg/sanitize"
	"github.com/tendant/digimenu/pkg/slug"
)

// maxSlugAttempts bounds retries when a concurrent writer claims the slug
// between assignment and update.
const maxSlugAttempts = 5

// RestaurantService manages the restaurant profile itself.
type RestaurantService struct {
	restaurants RestaurantStore
	items       ItemStore
	assigner    *slug.Assigner
	assets      media.Store
	cache       MenuCache
	logger      *slog.Logger
}

// NewRestaurantService creates a new restaurant service. cache may be nil.
func NewRestaurantService(restaurants RestaurantStore, items ItemStore, assets media.Store, cache MenuCache, logger *slog.Logger) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		items:       items,
		assigner:    slug.NewAssigner(restaurants),
		assets:      assets,
		cache:       cache,
		logger:      logger,
	}
}

// GetByOwner returns the restaurant owned by userID.
func (s *RestaurantService) GetByOwner(ctx context.Context, userID uuid.UUID) (*domain.Restaurant, error) {
	return s.restaurants.GetByOwnerID(ctx, userID)
}

// UpdateProfile changes name, contact info and logo. The slug is kept as is;
// it is only assigned here if the restaurant somehow has none.
func (s *RestaurantService) UpdateProfile(ctx context.Context, owner *domain.Restaurant, in ProfileInput) (*domain.Restaurant, error) {
	name, err := cleanName(in.Name, domain.MaxRestaurantNameLength)
	if err != nil {
		return nil, err
	}

	updated := *owner
	updated.Name = name
	updated.ContactInfo = sanitize.Text(in.ContactInfo)
	if in.RemoveLogo {
		updated.Logo = ""
	}
	if in.Logo != nil {
		key, err := media.SaveImage(ctx, s.assets, media.FolderLogos, in.Logo)
		if err != nil {
			return nil, err
		}
		updated.Logo = key
	}

	if err := s.save(ctx, &updated); err != nil {
		if updated.Logo != owner.Logo {
			removeAsset(ctx, s.assets, s.logger, updated.Logo)
		}
		return nil, err
	}

	if updated.Logo != owner.Logo {
		normalizeAsset(ctx, s.assets, s.logger, updated.Logo, media.LogoBounds)
		removeAsset(ctx, s.assets, s.logger, owner.Logo)
	}
	invalidateMenu(ctx, s.cache, s.logger, owner.Slug)
	return &updated, nil
}

func (s *RestaurantService) save(ctx context.Context, rest *domain.Restaurant) error {
	if rest.Slug != "" {
		if err := s.restaurants.Update(ctx, rest); err != nil {
			return fmt.Errorf("update restaurant: %w", err)
		}
		return nil
	}
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate, err := s.assigner.Assign(ctx, rest.Name, rest.ID)
		if err != nil {
			return err
		}
		rest.Slug = candidate
		err = s.restaurants.Update(ctx, rest)
		if !errors.Is(err, domain.ErrSlugTaken) {
			if err != nil {
				return fmt.Errorf("update restaurant: %w", err)
			}
			return nil
		}
	}
	return domain.ErrSlugTaken
}

// Delete removes the owner's restaurant, its catalog and all stored images.
func (s *RestaurantService) Delete(ctx context.Context, owner *domain.Restaurant) error {
	images, err := s.items.ImagesByRestaurant(ctx, owner.ID)
	if err != nil {
		return fmt.Errorf("list item images: %w", err)
	}
	if err := s.restaurants.Delete(ctx, owner.ID); err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	for _, key := range images {
		removeAsset(ctx, s.assets, s.logger, key)
	}
	removeAsset(ctx, s.assets, s.logger, owner.Logo)
	invalidateMenu(ctx, s.cache, s.logger, owner.Slug)
	return nil
}
