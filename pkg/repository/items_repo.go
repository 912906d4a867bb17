package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// ItemsRepository handles menu item persistence. Every lookup is scoped to a
// restaurant.
type ItemsRepository struct {
	db *sql.DB
}

// NewItemsRepository creates a new items repository.
func NewItemsRepository(db *sql.DB) *ItemsRepository {
	return &ItemsRepository{db: db}
}

const itemSelect = `
	SELECT i.id, i.restaurant_id, i.category_id, COALESCE(c.name, ''), i.name,
	       COALESCE(i.description, ''), i.price, COALESCE(i.image, ''),
	       i.is_available, i.is_featured, i.is_special, i.created_at, i.updated_at
	FROM menu_items i
	LEFT JOIN categories c ON c.id = i.category_id
`

func scanItem(row interface{ Scan(...any) error }) (*domain.Item, error) {
	it := &domain.Item{}
	err := row.Scan(
		&it.ID, &it.RestaurantID, &it.CategoryID, &it.CategoryName, &it.Name,
		&it.Description, &it.Price, &it.Image,
		&it.IsAvailable, &it.IsFeatured, &it.IsSpecial, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Create creates a new menu item.
func (r *ItemsRepository) Create(ctx context.Context, it *domain.Item) error {
	query := `
		INSERT INTO menu_items (id, restaurant_id, category_id, name, description, price, image,
		                        is_available, is_featured, is_special, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.RestaurantID, it.CategoryID, it.Name, it.Description, it.Price, it.Image,
		it.IsAvailable, it.IsFeatured, it.IsSpecial, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

// GetByID retrieves a menu item owned by restaurantID.
func (r *ItemsRepository) GetByID(ctx context.Context, restaurantID, id uuid.UUID) (*domain.Item, error) {
	query := itemSelect + `WHERE i.restaurant_id = $1 AND i.id = $2`
	return scanItem(r.db.QueryRowContext(ctx, query, restaurantID, id))
}

// ListByRestaurant returns a restaurant's items ordered by category name
// (uncategorized last) and then item name.
func (r *ItemsRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter domain.ItemFilter) ([]*domain.Item, error) {
	var b strings.Builder
	b.WriteString(itemSelect)
	b.WriteString(`WHERE i.restaurant_id = $1`)
	if filter.AvailableOnly {
		b.WriteString(` AND i.is_available`)
	}
	if filter.FeaturedOnly {
		b.WriteString(` AND i.is_featured`)
	}
	b.WriteString(` ORDER BY c.name ASC NULLS LAST, i.name ASC, i.created_at ASC`)
	args := []any{restaurantID}
	if filter.Limit > 0 {
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update updates a menu item.
func (r *ItemsRepository) Update(ctx context.Context, it *domain.Item) error {
	query := `
		UPDATE menu_items
		SET category_id = $3, name = $4, description = NULLIF($5, ''), price = $6, image = NULLIF($7, ''),
		    is_available = $8, is_featured = $9, is_special = $10, updated_at = NOW()
		WHERE restaurant_id = $1 AND id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		it.RestaurantID, it.ID, it.CategoryID, it.Name, it.Description, it.Price, it.Image,
		it.IsAvailable, it.IsFeatured, it.IsSpecial,
	).Scan(&it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrItemNotFound
	}
	return err
}

// Delete removes a menu item.
func (r *ItemsRepository) Delete(ctx context.Context, restaurantID, id uuid.UUID) error {
	query := `DELETE FROM menu_items WHERE restaurant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, restaurantID, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// CountByCategory returns how many of the restaurant's items reference categoryID.
func (r *ItemsRepository) CountByCategory(ctx context.Context, restaurantID, categoryID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM menu_items WHERE restaurant_id = $1 AND category_id = $2`
	var n int
	err := r.db.QueryRowContext(ctx, query, restaurantID, categoryID).Scan(&n)
	return n, err
}

// Stats returns the dashboard counts for a restaurant.
func (r *ItemsRepository) Stats(ctx context.Context, restaurantID uuid.UUID) (domain.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM categories WHERE restaurant_id = $1),
			COUNT(*),
			COUNT(*) FILTER (WHERE is_available),
			COUNT(*) FILTER (WHERE is_featured),
			COUNT(*) FILTER (WHERE is_special)
		FROM menu_items
		WHERE restaurant_id = $1
	`
	var s domain.Stats
	err := r.db.QueryRowContext(ctx, query, restaurantID).Scan(
		&s.Categories, &s.Items, &s.Available, &s.Featured, &s.Specials,
	)
	return s, err
}

// ImagesByRestaurant lists the image references of a restaurant's items.
func (r *ItemsRepository) ImagesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]string, error) {
	query := `SELECT image FROM menu_items WHERE restaurant_id = $1 AND image IS NOT NULL`
	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
