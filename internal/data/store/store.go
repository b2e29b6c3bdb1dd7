package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
)

// ErrUnknownCategory is returned for a category outside the configured set.
var ErrUnknownCategory = errors.New("unknown category")

// ErrRowNotFound is wrapped by every RowNotFoundError.
var ErrRowNotFound = errors.New("no matching project")

// RowNotFoundError reports a decoded key with no row in the category.
type RowNotFoundError struct {
	Category string
	Key      rowkey.Key
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("no matching project for %s in %s", rowkey.Encode(e.Key), e.Category)
}

func (e *RowNotFoundError) Unwrap() error {
	return ErrRowNotFound
}

// Store owns one table per category. Tables are only mutated through
// Update; readers get deep copies.
type Store struct {
	categories []string
	known      map[string]struct{} // immutable after New

	mu     sync.RWMutex
	tables map[string]*model.Table
}

// New creates a store accepting exactly the given categories.
func New(categories []string) *Store {
	s := &Store{
		categories: slices.Clone(categories),
		known:      make(map[string]struct{}, len(categories)),
		tables:     make(map[string]*model.Table, len(categories)),
	}
	for _, c := range categories {
		s.known[c] = struct{}{}
		s.tables[c] = &model.Table{Category: c}
	}
	return s
}

// Categories returns the configured categories in order.
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Has reports whether category is configured.
func (s *Store) Has(category string) bool {
	_, ok := s.known[category]
	return ok
}

// Replace installs table as the current content of category.
func (s *Store) Replace(category string, table *model.Table) error {
	if !s.Has(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table.Category = category
	s.tables[category] = table
	return nil
}

// ReplaceAll installs every table in tables; categories absent from tables
// keep their content.
func (s *Store) ReplaceAll(tables map[string]*model.Table) error {
	for category := range tables {
		if !s.Has(category) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for category, t := range tables {
		t.Category = category
		s.tables[category] = t
	}
	return nil
}

// Snapshot returns a deep copy of the category table.
func (s *Store) Snapshot(category string) (*model.Table, error) {
	if !s.Has(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tables[category].Clone(), nil
}

// Lookup returns a copy of the row matching key.
func (s *Store) Lookup(category string, key rowkey.Key) (*model.Row, error) {
	if !s.Has(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, row := s.tables[category].Find(key)
	if row == nil {
		return nil, &RowNotFoundError{Category: category, Key: key}
	}
	return row.Clone(), nil
}

// Update applies fn to the row matching key and returns a copy of the
// updated table for persisting.
func (s *Store) Update(category string, key rowkey.Key, fn func(*model.Row)) (*model.Table, error) {
	if !s.Has(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.tables[category]
	_, row := table.Find(key)
	if row == nil {
		return nil, &RowNotFoundError{Category: category, Key: key}
	}
	fn(row)
	return table.Clone(), nil
}
