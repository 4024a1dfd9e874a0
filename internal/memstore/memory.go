// Package memstore is an in-memory content repository for development and
// tests. It evaluates searches with domain.Criteria.Matches and
// domain.SortSpec.Compare, the reference semantics the Elasticsearch
// repository mirrors.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jonesrussell/infobox/internal/domain"
)

// Store is an in-memory content repository.
type Store struct {
	mu        sync.RWMutex
	items     map[string]domain.ContentItem
	slugIndex map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items:     make(map[string]domain.ContentItem),
		slugIndex: make(map[string]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Count returns the number of items matching c.
func (s *Store) Count(_ context.Context, c domain.Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for id := range s.items {
		item := s.items[id]
		if c.Matches(&item) {
			n++
		}
	}
	return n, nil
}

// Find returns one page of matches in q's order.
func (s *Store) Find(_ context.Context, q domain.SearchQuery) ([]domain.ContentItem, error) {
	matches := s.matching(q.Criteria)
	slices.SortFunc(matches, func(a, b domain.ContentItem) int {
		return q.Sort.Compare(&a, &b)
	})

	start := min(q.Offset(), len(matches))
	end := min(start+q.Limit, len(matches))
	return matches[start:end], nil
}

// SuggestTitles returns up to limit distinct titles containing q, newest
// first.
func (s *Store) SuggestTitles(_ context.Context, q string, limit int) ([]string, error) {
	matches := s.matching(domain.Criteria{})
	newest := domain.SortSpec{Key: domain.SortDate, Order: domain.SortDesc}
	slices.SortFunc(matches, func(a, b domain.ContentItem) int {
		return newest.Compare(&a, &b)
	})

	needle := strings.ToLower(q)
	titles := make([]string, 0, limit)
	for _, item := range matches {
		if len(titles) == limit {
			break
		}
		if strings.Contains(strings.ToLower(item.Title), needle) && !slices.Contains(titles, item.Title) {
			titles = append(titles, item.Title)
		}
	}
	return titles, nil
}

// Get returns the item with id.
func (s *Store) Get(_ context.Context, id string) (*domain.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return copyItem(item), nil
}

// GetBySlug returns the item with slug.
func (s *Store) GetBySlug(_ context.Context, slug string) (*domain.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugIndex[slug]
	if !ok {
		return nil, fmt.Errorf("slug %s: %w", slug, domain.ErrNotFound)
	}
	return copyItem(s.items[id]), nil
}

// Create stores a new item.
func (s *Store) Create(_ context.Context, item *domain.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("create %s: id already exists", item.ID)
	}
	if owner, taken := s.slugIndex[item.Slug]; taken && owner != item.ID {
		return fmt.Errorf("slug %s: %w", item.Slug, domain.ErrSlugTaken)
	}

	s.items[item.ID] = *copyItem(*item)
	s.slugIndex[item.Slug] = item.ID
	return nil
}

// Update replaces an existing item, keeping its stored view count.
func (s *Store) Update(_ context.Context, item *domain.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.items[item.ID]
	if !ok {
		return fmt.Errorf("update %s: %w", item.ID, domain.ErrNotFound)
	}
	if owner, taken := s.slugIndex[item.Slug]; taken && owner != item.ID {
		return fmt.Errorf("slug %s: %w", item.Slug, domain.ErrSlugTaken)
	}

	stored := *copyItem(*item)
	stored.Views = old.Views
	delete(s.slugIndex, old.Slug)
	s.items[item.ID] = stored
	s.slugIndex[stored.Slug] = stored.ID
	return nil
}

// Delete removes the item with id.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	}
	delete(s.items, id)
	delete(s.slugIndex, item.Slug)
	return nil
}

// IncrementViews adds one view and returns the new count.
func (s *Store) IncrementViews(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return 0, fmt.Errorf("increment views %s: %w", id, domain.ErrNotFound)
	}
	item.Views++
	s.items[id] = item
	return item.Views, nil
}

func (s *Store) matching(c domain.Criteria) []domain.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ContentItem, 0, len(s.items))
	for id := range s.items {
		item := s.items[id]
		if c.Matches(&item) {
			out = append(out, *copyItem(item))
		}
	}
	return out
}

func copyItem(item domain.ContentItem) *domain.ContentItem {
	if item.Category != nil {
		category := *item.Category
		item.Category = &category
	}
	item.Tags = slices.Clone(item.Tags)
	return &item
}
