package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
	"github.com/tendant/digimenu/pkg/sanitize"
)

// maxPrice is the first value that does not fit NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name        string
	Description string
}

// ItemInput is the editable part of a menu item. A nil Image leaves the
// current image unchanged on update.
type ItemInput struct {
	Name        string
	Description string
	Price       string
	CategoryID  uuid.NullUUID
	IsAvailable bool
	IsFeatured  bool
	IsSpecial   bool
	Image       *media.Upload
}

// ProfileInput is the editable part of a restaurant.
type ProfileInput struct {
	Name        string
	ContactInfo string
	Logo        *media.Upload
	RemoveLogo  bool
}

func cleanName(raw string, maxLen int) (string, error) {
	name := sanitize.Line(raw)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxLen {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// ParsePrice parses a non-negative amount with at most two decimal places
// that fits NUMERIC(10,2).
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	if d.IsNegative() || !d.Equal(d.Round(2)) || d.GreaterThanOrEqual(maxPrice) {
		return decimal.Zero, domain.ErrInvalidPrice
	}
	return d.Round(2), nil
}
