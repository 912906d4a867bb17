package domain

import (
	"errors"
	"fmt"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionFingerprint = errors.New("session used from a different device")
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password does not meet requirements")
	ErrTermsNotAccepted = errors.New("you must accept the terms and conditions")
	ErrPhoneRequired    = errors.New("phone number is required")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name is too long")
	ErrInvalidPrice     = errors.New("price must be a non-negative amount with at most two decimal places")
	ErrUnsupportedImage = errors.New("image must be a JPEG, PNG or GIF file")
	ErrImageDimensions  = errors.New("image dimensions are too large")
	ErrUploadTooLarge   = errors.New("uploaded file is too large")
)

// Catalog errors
var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrSlugTaken          = errors.New("slug already taken")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrDuplicateCategory  = errors.New("a category with this name already exists")
	ErrCategoryInUse      = errors.New("category still has menu items")
	ErrItemNotFound       = errors.New("menu item not found")
)

// CategoryInUseError reports how many items still reference a category
// that was asked to be deleted.
type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	if e.Count == 1 {
		return "cannot delete category: it has 1 menu item. Move or delete the item first"
	}
	return fmt.Sprintf("cannot delete category: it has %d menu items. Move or delete the items first", e.Count)
}

// Is lets errors.Is(err, ErrCategoryInUse) match.
func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrCategoryInUse
}
