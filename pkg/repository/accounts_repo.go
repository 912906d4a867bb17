package repository

import (
	"context"
	"database/sql"

	"github.com/tendant/digimenu/pkg/domain"
)

// AccountsRepository creates an owner's user, password and restaurant together.
type AccountsRepository struct {
	db          *sql.DB
	users       *UsersRepository
	credentials *CredentialsRepository
	restaurants *RestaurantsRepository
}

// NewAccountsRepository creates a new accounts repository.
func NewAccountsRepository(db *sql.DB) *AccountsRepository {
	return &AccountsRepository{
		db:          db,
		users:       NewUsersRepository(db),
		credentials: NewCredentialsRepository(db),
		restaurants: NewRestaurantsRepository(db),
	}
}

// CreateAccount inserts the three rows in one transaction. A taken slug
// surfaces as domain.ErrSlugTaken and a taken email as
// domain.ErrUserAlreadyExists; nothing is written in either case.
func (r *AccountsRepository) CreateAccount(ctx context.Context, user *domain.User, cred *domain.UserPassword, rest *domain.Restaurant) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		if err := r.credentials.CreateTx(ctx, tx, cred); err != nil {
			return err
		}
		return r.restaurants.CreateTx(ctx, tx, rest)
	})
}
