package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// CategoriesRepository handles category persistence. Every lookup is scoped
// to a restaurant so one tenant can never address another's rows.
type CategoriesRepository struct {
	db *sql.DB
}

// NewCategoriesRepository creates a new categories repository.
func NewCategoriesRepository(db *sql.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

const categoryColumns = `id, restaurant_id, name, COALESCE(description, ''), created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*domain.Category, error) {
	c := &domain.Category{}
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create creates a new category.
func (r *CategoriesRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `
		INSERT INTO categories (id, restaurant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.RestaurantID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err, "categories_restaurant_name_key") {
		return domain.ErrDuplicateCategory
	}
	return err
}

// GetByID retrieves a category owned by restaurantID.
func (r *CategoriesRepository) GetByID(ctx context.Context, restaurantID, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE restaurant_id = $1 AND id = $2`
	return scanCategory(r.db.QueryRowContext(ctx, query, restaurantID, id))
}

// ListByRestaurant returns a restaurant's categories ordered by name.
func (r *CategoriesRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE restaurant_id = $1 ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ExistsByName reports whether the restaurant already has a category called
// name, ignoring excludeID.
func (r *CategoriesRepository) ExistsByName(ctx context.Context, restaurantID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE restaurant_id = $1 AND name = $2 AND id <> $3)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, restaurantID, name, excludeID).Scan(&exists)
	return exists, err
}

// Update updates a category's name and description.
func (r *CategoriesRepository) Update(ctx context.Context, c *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $3, description = NULLIF($4, ''), updated_at = NOW()
		WHERE restaurant_id = $1 AND id = $2
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.RestaurantID, c.ID, c.Name, c.Description).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCategoryNotFound
	}
	if isUniqueViolation(err, "categories_restaurant_name_key") {
		return domain.ErrDuplicateCategory
	}
	return err
}

// Delete removes a category. Items still referencing it become uncategorized.
func (r *CategoriesRepository) Delete(ctx context.Context, restaurantID, id uuid.UUID) error {
	query := `DELETE FROM categories WHERE restaurant_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, restaurantID, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
