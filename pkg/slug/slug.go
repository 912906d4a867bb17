// Package slug derives unique, URL-safe identifiers for restaurants.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a name has no ASCII letters or digits to build from.
const Fallback = "restaurant"

// maxBaseLength leaves room for a numeric suffix within the slug column.
const maxBaseLength = 200

var validSlug = regexp.MustCompile(`^[a-z0-9]+([-_]+[a-z0-9]+)*$`)

// Slugify folds name to lower-case ASCII, drops punctuation and joins words
// with single hyphens. Underscores count as word characters, as in Django's
// slugify, but are trimmed from both ends.
func Slugify(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r > unicode.MaxASCII:
			// combining marks and scripts with no ASCII form
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || unicode.IsSpace(r):
			sep = true
		}
	}

	s := strings.Trim(b.String(), "-_")
	if len(s) > maxBaseLength {
		s = strings.TrimRight(s[:maxBaseLength], "-_")
	}
	if s == "" {
		return Fallback
	}
	return s
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}

// Store answers whether a slug is already used by a restaurant other than excludeID.
type Store interface {
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// Assigner picks the first free slug for a restaurant name.
type Assigner struct {
	store Store
}

// NewAssigner creates a new slug assigner.
func NewAssigner(store Store) *Assigner {
	return &Assigner{store: store}
}

// Assign returns Slugify(name) if unused, otherwise the first of base-1,
// base-2, ... that is free. self is excluded from the uniqueness check so a
// restaurant never collides with itself; pass uuid.Nil for new records.
//
// Assign only reads. Callers persist the slug and must treat a unique
// violation on write as a lost race and assign again.
func (a *Assigner) Assign(ctx context.Context, name string, self uuid.UUID) (string, error) {
	base := Slugify(name)
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := a.store.SlugExists(ctx, candidate, self)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
