package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// RestaurantsRepository handles restaurant persistence.
type RestaurantsRepository struct {
	db *sql.DB
}

// NewRestaurantsRepository creates a new restaurants repository.
func NewRestaurantsRepository(db *sql.DB) *RestaurantsRepository {
	return &RestaurantsRepository{db: db}
}

const restaurantColumns = `id, owner_id, name, slug, COALESCE(logo, ''), COALESCE(contact_info, ''), created_at, updated_at`

func scanRestaurant(row interface{ Scan(...any) error }) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := row.Scan(
		&rest.ID,
		&rest.OwnerID,
		&rest.Name,
		&rest.Slug,
		&rest.Logo,
		&rest.ContactInfo,
		&rest.CreatedAt,
		&rest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, err
	}
	return &rest, nil
}

// Create creates a new restaurant.
func (r *RestaurantsRepository) Create(ctx context.Context, rest *domain.Restaurant) error {
	return r.CreateTx(ctx, r.db, rest)
}

// CreateTx creates a new restaurant within a transaction.
func (r *RestaurantsRepository) CreateTx(ctx context.Context, q Querier, rest *domain.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, owner_id, name, slug, logo, contact_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
	`
	_, err := q.ExecContext(ctx, query,
		rest.ID,
		rest.OwnerID,
		rest.Name,
		rest.Slug,
		rest.Logo,
		rest.ContactInfo,
		rest.CreatedAt,
		rest.UpdatedAt,
	)
	if isUniqueViolation(err, "restaurants_slug_key") {
		return domain.ErrSlugTaken
	}
	return err
}

// GetByID retrieves a restaurant by ID.
func (r *RestaurantsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a restaurant by slug.
func (r *RestaurantsRepository) GetBySlug(ctx context.Context, slug string) (*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE slug = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, slug))
}

// GetByOwnerID retrieves the restaurant owned by a user.
func (r *RestaurantsRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE owner_id = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, ownerID))
}

// SlugExists reports whether slug is used by a restaurant other than excludeID.
func (r *RestaurantsRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM restaurants WHERE slug = $1 AND id <> $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists)
	return exists, err
}

// Update updates a restaurant's profile.
func (r *RestaurantsRepository) Update(ctx context.Context, rest *domain.Restaurant) error {
	query := `
		UPDATE restaurants
		SET name = $1, slug = $2, logo = NULLIF($3, ''), contact_info = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rest.Name,
		rest.Slug,
		rest.Logo,
		rest.ContactInfo,
		rest.ID,
	).Scan(&rest.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRestaurantNotFound
	}
	if isUniqueViolation(err, "restaurants_slug_key") {
		return domain.ErrSlugTaken
	}
	return err
}

// Delete removes a restaurant; its categories and items are removed by cascade.
func (r *RestaurantsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM restaurants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRestaurantNotFound
	}

	return nil
}
