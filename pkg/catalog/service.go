package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
	"github.com/tendant/digimenu/pkg/sanitize"
)

// Service manages a restaurant's categories and menu items. Every operation
// takes the acting restaurant and only ever touches rows it owns.
type Service struct {
	categories CategoryStore
	items      ItemStore
	assets     media.Store
	cache      MenuCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new catalog service. cache may be nil.
func NewService(categories CategoryStore, items ItemStore, assets media.Store, cache MenuCache, logger *slog.Logger) *Service {
	return &Service{
		categories: categories,
		items:      items,
		assets:     assets,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// ListCategories returns the owner's categories ordered by name.
func (s *Service) ListCategories(ctx context.Context, owner *domain.Restaurant) ([]*domain.Category, error) {
	categories, err := s.categories.ListByRestaurant(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one of the owner's categories.
func (s *Service) GetCategory(ctx context.Context, owner *domain.Restaurant, id uuid.UUID) (*domain.Category, error) {
	return s.categories.GetByID(ctx, owner.ID, id)
}

// CreateCategory adds a category. Names are unique per restaurant.
func (s *Service) CreateCategory(ctx context.Context, owner *domain.Restaurant, in CategoryInput) (*domain.Category, error) {
	name, err := cleanName(in.Name, domain.MaxCategoryNameLength)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryNameFree(ctx, owner, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.now()
	c := &domain.Category{
		ID:           uuid.New(),
		RestaurantID: owner.ID,
		Name:         name,
		Description:  sanitize.Text(in.Description),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, owner)
	return c, nil
}

// UpdateCategory renames or re-describes one of the owner's categories.
func (s *Service) UpdateCategory(ctx context.Context, owner *domain.Restaurant, id uuid.UUID, in CategoryInput) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	name, err := cleanName(in.Name, domain.MaxCategoryNameLength)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategoryNameFree(ctx, owner, name, c.ID); err != nil {
		return nil, err
	}

	c.Name = name
	c.Description = sanitize.Text(in.Description)
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.invalidate(ctx, owner)
	return c, nil
}

// DeleteCategory removes an empty category and returns it. A category that
// still has items is left untouched and a *domain.CategoryInUseError is
// returned.
func (s *Service) DeleteCategory(ctx context.Context, owner *domain.Restaurant, id uuid.UUID) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	n, err := s.items.CountByCategory(ctx, owner.ID, id)
	if err != nil {
		return nil, fmt.Errorf("count category items: %w", err)
	}
	if n > 0 {
		return nil, &domain.CategoryInUseError{Count: n}
	}
	if err := s.categories.Delete(ctx, owner.ID, id); err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}
	s.invalidate(ctx, owner)
	return c, nil
}

func (s *Service) ensureCategoryNameFree(ctx context.Context, owner *domain.Restaurant, name string, self uuid.UUID) error {
	taken, err := s.categories.ExistsByName(ctx, owner.ID, name, self)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return domain.ErrDuplicateCategory
	}
	return nil
}

// ListItems returns all of the owner's items, available or not.
func (s *Service) ListItems(ctx context.Context, owner *domain.Restaurant) ([]*domain.Item, error) {
	items, err := s.items.ListByRestaurant(ctx, owner.ID, domain.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// GetItem returns one of the owner's items.
func (s *Service) GetItem(ctx context.Context, owner *domain.Restaurant, id uuid.UUID) (*domain.Item, error) {
	return s.items.GetByID(ctx, owner.ID, id)
}

// CreateItem adds a menu item. An uploaded image is stored before the row
// and downscaled afterwards.
func (s *Service) CreateItem(ctx context.Context, owner *domain.Restaurant, in ItemInput) (*domain.Item, error) {
	now := s.now()
	it := &domain.Item{
		ID:           uuid.New(),
		RestaurantID: owner.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.applyItemInput(ctx, owner, it, in); err != nil {
		return nil, err
	}

	if in.Image != nil {
		key, err := media.SaveImage(ctx, s.assets, media.FolderItems, in.Image)
		if err != nil {
			return nil, err
		}
		it.Image = key
	}

	if err := s.items.Create(ctx, it); err != nil {
		s.removeAsset(ctx, it.Image)
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.normalize(ctx, it.Image, media.ItemPhotoBounds)
	s.invalidate(ctx, owner)
	return it, nil
}

// UpdateItem edits one of the owner's items. The image is only replaced when
// a new one is uploaded; the previous file is removed afterwards.
func (s *Service) UpdateItem(ctx context.Context, owner *domain.Restaurant, id uuid.UUID, in ItemInput) (*domain.Item, error) {
	it, err := s.items.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyItemInput(ctx, owner, it, in); err != nil {
		return nil, err
	}

	oldImage := it.Image
	if in.Image != nil {
		key, err := media.SaveImage(ctx, s.assets, media.FolderItems, in.Image)
		if err != nil {
			return nil, err
		}
		it.Image = key
	}

	if err := s.items.Update(ctx, it); err != nil {
		if it.Image != oldImage {
			s.removeAsset(ctx, it.Image)
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	if it.Image != oldImage {
		s.normalize(ctx, it.Image, media.ItemPhotoBounds)
		s.removeAsset(ctx, oldImage)
	}
	s.invalidate(ctx, owner)
	return it, nil
}

// DeleteItem removes one of the owner's items and its image, returning the
// deleted item.
func (s *Service) DeleteItem(ctx context.Context, owner *domain.Restaurant, id uuid.UUID) (*domain.Item, error) {
	it, err := s.items.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, owner.ID, id); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	s.removeAsset(ctx, it.Image)
	s.invalidate(ctx, owner)
	return it, nil
}

// Dashboard returns the owner's summary counts.
func (s *Service) Dashboard(ctx context.Context, owner *domain.Restaurant) (domain.Stats, error) {
	stats, err := s.items.Stats(ctx, owner.ID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *Service) applyItemInput(ctx context.Context, owner *domain.Restaurant, it *domain.Item, in ItemInput) error {
	name, err := cleanName(in.Name, domain.MaxItemNameLength)
	if err != nil {
		return err
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return err
	}

	categoryName := ""
	if in.CategoryID.Valid {
		c, err := s.categories.GetByID(ctx, owner.ID, in.CategoryID.UUID)
		if err != nil {
			return err
		}
		categoryName = c.Name
	}
	if in.Image != nil {
		if _, _, err := in.Image.ImageType(); err != nil {
			return err
		}
	}

	it.Name = name
	it.Description = sanitize.Text(in.Description)
	it.Price = price
	it.CategoryID = in.CategoryID
	it.CategoryName = categoryName
	it.IsAvailable = in.IsAvailable
	it.IsFeatured = in.IsFeatured
	it.IsSpecial = in.IsSpecial
	return nil
}

// normalize downscales a freshly stored image. Failures are logged only: the
// record is already saved and an oversized image still renders.
func (s *Service) normalize(ctx context.Context, key string, bounds media.Bounds) {
	normalizeAsset(ctx, s.assets, s.logger, key, bounds)
}

func (s *Service) removeAsset(ctx context.Context, key string) {
	removeAsset(ctx, s.assets, s.logger, key)
}

func (s *Service) invalidate(ctx context.Context, owner *domain.Restaurant) {
	invalidateMenu(ctx, s.cache, s.logger, owner.Slug)
}

func normalizeAsset(ctx context.Context, assets media.Store, logger *slog.Logger, key string, bounds media.Bounds) {
	if key == "" {
		return
	}
	resized, err := media.Normalize(ctx, assets, key, bounds)
	if err != nil {
		logger.Warn("image normalization failed", "key", key, "error", err)
		return
	}
	if resized {
		logger.Debug("image downscaled", "key", key, "max_width", bounds.Width, "max_height", bounds.Height)
	}
}

func removeAsset(ctx context.Context, assets media.Store, logger *slog.Logger, key string) {
	if key == "" {
		return
	}
	if err := assets.Delete(ctx, key); err != nil && !errors.Is(err, media.ErrNotFound) {
		logger.Warn("failed to remove asset", "key", key, "error", err)
	}
}

func invalidateMenu(ctx context.Context, cache MenuCache, logger *slog.Logger, slug string) {
	if cache == nil || slug == "" {
		return
	}
	if err := cache.Delete(ctx, slug); err != nil {
		logger.Warn("failed to invalidate menu cache", "slug", slug, "error", err)
	}
}
