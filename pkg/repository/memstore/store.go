// Package memstore is an in-memory implementation of the repository stores.
// It mirrors the Postgres schema's uniqueness, cascade and set-null rules and
// is used for tests and for running without a database (STORE_DRIVER=memory).
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Store holds all tables behind a single lock.
type Store struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]domain.User
	passwords   map[uuid.UUID]domain.UserPassword
	sessions    map[uuid.UUID]domain.Session
	restaurants map[uuid.UUID]domain.Restaurant
	categories  map[uuid.UUID]domain.Category
	items       map[uuid.UUID]domain.Item
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		passwords:   make(map[uuid.UUID]domain.UserPassword),
		sessions:    make(map[uuid.UUID]domain.Session),
		restaurants: make(map[uuid.UUID]domain.Restaurant),
		categories:  make(map[uuid.UUID]domain.Category),
		items:       make(map[uuid.UUID]domain.Item),
		now:         time.Now,
	}
}

// Users returns the users table.
func (s *Store) Users() *Users { return &Users{s: s} }

// Credentials returns the password table.
func (s *Store) Credentials() *Credentials { return &Credentials{s: s} }

// Sessions returns the sessions table.
func (s *Store) Sessions() *Sessions { return &Sessions{s: s} }

// Restaurants returns the restaurants table.
func (s *Store) Restaurants() *Restaurants { return &Restaurants{s: s} }

// Categories returns the categories table.
func (s *Store) Categories() *Categories { return &Categories{s: s} }

// Items returns the menu items table.
func (s *Store) Items() *Items { return &Items{s: s} }

// Accounts returns the account creation helper.
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// deleteRestaurantLocked removes a restaurant and cascades to its catalog.
func (s *Store) deleteRestaurantLocked(id uuid.UUID) {
	delete(s.restaurants, id)
	for cid, c := range s.categories {
		if c.RestaurantID == id {
			delete(s.categories, cid)
		}
	}
	for iid, it := range s.items {
		if it.RestaurantID == id {
			delete(s.items, iid)
		}
	}
}

// withCategoryName copies an item and fills in the joined category name.
func (s *Store) withCategoryName(it domain.Item) *domain.Item {
	it.CategoryName = ""
	if it.CategoryID.Valid {
		if c, ok := s.categories[it.CategoryID.UUID]; ok {
			it.CategoryName = c.Name
		}
	}
	return &it
}

// sortItems orders by category name with uncategorized last, then item name.
func sortItems(items []*domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasCategory() != b.HasCategory() {
			return a.HasCategory()
		}
		if a.CategoryName != b.CategoryName {
			return a.CategoryName < b.CategoryName
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
