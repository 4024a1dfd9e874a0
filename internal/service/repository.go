package service

import (
	"context"

	"github.com/jonesrussell/infobox/internal/domain"
)

// SearchRepository is the read side the search pipeline runs against.
type SearchRepository interface {
	Count(ctx context.Context, c domain.Criteria) (int64, error)
	Find(ctx context.Context, q domain.SearchQuery) ([]domain.ContentItem, error)
	SuggestTitles(ctx context.Context, q string, limit int) ([]string, error)
}

// ContentRepository is the full document store. Get, GetBySlug, Update,
// Delete and IncrementViews fail with domain.ErrNotFound for unknown items;
// Create and Update fail with domain.ErrSlugTaken on a duplicate slug.
type ContentRepository interface {
	SearchRepository
	Get(ctx context.Context, id string) (*domain.ContentItem, error)
	GetBySlug(ctx context.Context, slug string) (*domain.ContentItem, error)
	Create(ctx context.Context, item *domain.ContentItem) error
	Update(ctx context.Context, item *domain.ContentItem) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	Ping(ctx context.Context) error
}
