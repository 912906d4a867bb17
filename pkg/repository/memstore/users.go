package memstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Users is the in-memory users table.
type Users struct {
	s *Store
}

// Create creates a new user.
func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.s.insertUserLocked(user)
}

func (s *Store) insertUserLocked(user *domain.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID.
func (u *Users) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

// GetByEmail retrieves a user by (normalized) email.
func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// ExistsByEmail checks if a user exists by email.
func (u *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementFailedLoginAttempts increments the counter and locks the account
// once maxAttempts is reached.
func (u *Users) IncrementFailedLoginAttempts(_ context.Context, userID uuid.UUID, lockoutDuration time.Duration, maxAttempts int) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxAttempts {
		until := u.s.now().Add(lockoutDuration)
		user.LockedUntil = &until
	}
	user.UpdatedAt = u.s.now()
	u.s.users[userID] = user
	return nil
}

// ResetFailedLoginAttempts resets the counter and clears any lockout.
func (u *Users) ResetFailedLoginAttempts(_ context.Context, userID uuid.UUID) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.UpdatedAt = u.s.now()
	u.s.users[userID] = user
	return nil
}

// Delete removes a user together with credentials, sessions and the owned
// restaurant.
func (u *Users) Delete(_ context.Context, id uuid.UUID) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(u.s.users, id)
	delete(u.s.passwords, id)
	for sid, sess := range u.s.sessions {
		if sess.UserID == id {
			delete(u.s.sessions, sid)
		}
	}
	for rid, rest := range u.s.restaurants {
		if rest.OwnerID == id {
			u.s.deleteRestaurantLocked(rid)
		}
	}
	return nil
}

// Credentials is the in-memory password table.
type Credentials struct {
	s *Store
}

// GetByUserID retrieves the password credential for a user.
func (c *Credentials) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.UserPassword, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	cred, ok := c.s.passwords[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &cred, nil
}

// Accounts creates an owner's user, password and restaurant atomically.
type Accounts struct {
	s *Store
}

// CreateAccount inserts all three records or none of them.
func (a *Accounts) CreateAccount(_ context.Context, user *domain.User, cred *domain.UserPassword, rest *domain.Restaurant) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, existing := range a.s.users {
		if existing.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	if a.s.slugTakenLocked(rest.Slug, rest.ID) {
		return domain.ErrSlugTaken
	}
	if err := a.s.insertUserLocked(user); err != nil {
		return err
	}
	a.s.passwords[cred.UserID] = *cred
	a.s.restaurants[rest.ID] = *rest
	return nil
}
