package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/sanitize"
	"github.com/tendant/digimenu/pkg/slug"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute

	maxSlugAttempts = 5
	maxPhoneLength  = 20
)

// UserStore is the user persistence PasswordService needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	IncrementFailedLoginAttempts(ctx context.Context, userID uuid.UUID, lockoutDuration time.Duration, maxAttempts int) error
	ResetFailedLoginAttempts(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CredentialStore reads password credentials.
type CredentialStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserPassword, error)
}

// AccountStore writes a user, its password and its restaurant atomically.
type AccountStore interface {
	CreateAccount(ctx context.Context, user *domain.User, cred *domain.UserPassword, rest *domain.Restaurant) error
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	RestaurantName string
	Phone          string
	Email          string
	Password       string
	TermsAccepted  bool
}

// PasswordService handles password registration and authentication.
type PasswordService struct {
	users    UserStore
	creds    CredentialStore
	accounts AccountStore
	slugs    *slug.Assigner
	policy   *PasswordPolicy
	emails   EmailPolicy
	now      func() time.Time
}

// NewPasswordService creates a new password service.
func NewPasswordService(users UserStore, creds CredentialStore, accounts AccountStore, slugs slug.Store, policy *PasswordPolicy, emails EmailPolicy) *PasswordService {
	return &PasswordService{
		users:    users,
		creds:    creds,
		accounts: accounts,
		slugs:    slug.NewAssigner(slugs),
		policy:   policy,
		emails:   emails,
		now:      time.Now,
	}
}

// PasswordHint describes the password policy for the register form. It is
// empty when any password is accepted.
func (s *PasswordService) PasswordHint() string {
	if s.policy == nil {
		return ""
	}
	return s.policy.Hint()
}

// Register creates the owner account and its restaurant in one step.
// A duplicate email returns domain.ErrUserAlreadyExists and writes nothing.
func (s *PasswordService) Register(ctx context.Context, in RegisterInput) (*domain.User, *domain.Restaurant, error) {
	if !in.TermsAccepted {
		return nil, nil, domain.ErrTermsNotAccepted
	}

	name := sanitize.Line(in.RestaurantName)
	if name == "" {
		return nil, nil, domain.ErrNameRequired
	}
	if sanitize.Length("restaurant name", name, 0, domain.MaxRestaurantNameLength) != nil {
		return nil, nil, domain.ErrNameTooLong
	}

	phone := sanitize.Line(in.Phone)
	if phone == "" {
		return nil, nil, domain.ErrPhoneRequired
	}
	if err := sanitize.Length("phone number", phone, 0, maxPhoneLength); err != nil {
		return nil, nil, err
	}

	if err := s.emails.Validate(in.Email); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrInvalidEmail, err.Error())
	}
	email := NormalizeEmail(in.Email)

	if s.policy != nil {
		if err := s.policy.ValidatePassword(in.Password); err != nil {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrWeakPassword, err.Error())
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, domain.ErrUserAlreadyExists
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Phone:     phone,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred := &domain.UserPassword{
		UserID:            user.ID,
		PasswordHash:      hash,
		PasswordUpdatedAt: now,
	}
	rest := &domain.Restaurant{
		ID:        uuid.New(),
		OwnerID:   user.ID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		rest.Slug, err = s.slugs.Assign(ctx, name, uuid.Nil)
		if err != nil {
			return nil, nil, err
		}
		err = s.accounts.CreateAccount(ctx, user, cred, rest)
		if !errors.Is(err, domain.ErrSlugTaken) {
			break
		}
	}
	if err != nil {
		return nil, nil, err
	}

	return user, rest, nil
}

// Authenticate verifies email and password and returns the user ID.
// Accounts lock for 15 minutes after 5 consecutive failures.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return uuid.Nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return uuid.Nil, domain.ErrInvalidCredentials
		}
		return uuid.Nil, err
	}

	if user.IsLocked() {
		return uuid.Nil, domain.ErrAccountLocked
	}

	cred, err := s.creds.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return uuid.Nil, domain.ErrInvalidCredentials
		}
		return uuid.Nil, err
	}

	if !VerifyPassword(password, cred.PasswordHash) {
		_ = s.users.IncrementFailedLoginAttempts(ctx, user.ID, lockoutDuration, maxFailedAttempts)
		return uuid.Nil, domain.ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		_ = s.users.ResetFailedLoginAttempts(ctx, user.ID)
	}

	return user.ID, nil
}

// GetUserByID retrieves a user by ID.
func (s *PasswordService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// DeleteUser removes the account. Sessions, restaurant and catalog go with it.
func (s *PasswordService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.users.Delete(ctx, userID)
}
