package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/metrics"
	"github.com/jonesrussell/infobox/internal/sanitize"
)

var (
	// ErrUnsafeContent means the sanitizer refused the body; nothing was saved.
	ErrUnsafeContent = errors.New("content rejected by sanitizer")
	// ErrInvalidInput means a required field is missing.
	ErrInvalidInput = errors.New("invalid content input")
)

// Sanitizer cleans rich-text HTML. *sanitize.Pipeline implements it.
type Sanitizer interface {
	Sanitize(raw string) (string, error)
}

// ContentService is the write path: every body is sanitized before it is
// stored.
type ContentService struct {
	repo      ContentRepository
	sanitizer Sanitizer
	metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewContentService creates a new content service. A nil sanitizer uses the
// package default pipeline.
func NewContentService(repo ContentRepository, s Sanitizer, m *metrics.Metrics, log logger.Logger) *ContentService {
	if s == nil {
		s = sanitize.New()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ContentService{
		repo:      repo,
		sanitizer: s,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// Sanitize runs the sanitizer and records the outcome. A policy failure is
// reported as ErrUnsafeContent.
func (s *ContentService) Sanitize(raw string) (string, error) {
	start := time.Now()
	clean, err := s.sanitizer.Sanitize(raw)
	if err != nil {
		s.metrics.RecordSanitize(metrics.OutcomeRejected, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrUnsafeContent, err)
	}
	s.metrics.RecordSanitize(metrics.OutcomeClean, time.Since(start))
	return clean, nil
}

// Create sanitizes and stores a new item. The slug is derived from the title
// when none is given and the date defaults to now.
func (s *ContentService) Create(ctx context.Context, in domain.ContentInput) (*domain.ContentItem, error) {
	in.Normalize()
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	body, err := s.Sanitize(in.Content)
	if err != nil {
		s.logRejected(ctx, "", err)
		return nil, err
	}

	now := s.now().UTC()
	item := &domain.ContentItem{
		ID:        domain.NewID(now),
		CreatedAt: now,
		UpdatedAt: now,
		Date:      now,
	}
	apply(item, in, body)
	if in.Date != nil {
		item.Date = in.Date.UTC()
	}
	item.Slug = slugFor(in.Slug, in.Title, item.ID)

	if err = s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	logger.FromContextOr(ctx, s.logger).Info("Content created",
		logger.String("id", item.ID),
		logger.String("slug", item.Slug),
	)
	return item, nil
}

// Update sanitizes and replaces the editable fields of an existing item.
// Views and createdAt are kept; an empty slug keeps the current one.
func (s *ContentService) Update(ctx context.Context, id string, in domain.ContentInput) (*domain.ContentItem, error) {
	in.Normalize()
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	body, err := s.Sanitize(in.Content)
	if err != nil {
		s.logRejected(ctx, id, err)
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}

	item := &domain.ContentItem{
		ID:        existing.ID,
		Slug:      existing.Slug,
		Date:      existing.Date,
		Views:     existing.Views,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}
	apply(item, in, body)
	if in.Date != nil {
		item.Date = in.Date.UTC()
	}
	if in.Slug != "" {
		item.Slug = slugFor(in.Slug, in.Title, item.ID)
	}

	if err = s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}

	logger.FromContextOr(ctx, s.logger).Info("Content updated", logger.String("id", item.ID))
	return item, nil
}

// Get returns the item with id.
func (s *ContentService) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return item, nil
}

// GetBySlug returns the item with slug.
func (s *ContentService) GetBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	item, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get content by slug: %w", err)
	}
	return item, nil
}

// Delete removes the item with id.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	logger.FromContextOr(ctx, s.logger).Info("Content deleted", logger.String("id", id))
	return nil
}

// RecordView adds one view to the item and returns the new count.
func (s *ContentService) RecordView(ctx context.Context, id string) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("record view: %w", err)
	}
	return views, nil
}

func (s *ContentService) logRejected(ctx context.Context, id string, err error) {
	logger.FromContextOr(ctx, s.logger).Warn("Content rejected by sanitizer",
		logger.String("id", id),
		logger.Error(err),
	)
}

// apply copies the editable fields of in onto item.
func apply(item *domain.ContentItem, in domain.ContentInput, body string) {
	item.Title = in.Title
	item.Description = strings.TrimSpace(in.Description)
	item.Content = body
	item.Author = strings.TrimSpace(in.Author)
	item.Image = strings.TrimSpace(in.Image)
	item.Featured = in.Featured

	item.Category = nil
	if in.Category != nil {
		category := termWithSlug(*in.Category)
		item.Category = &category
	}
	item.Tags = make([]domain.Term, 0, len(in.Tags))
	for _, t := range in.Tags {
		item.Tags = append(item.Tags, termWithSlug(t))
	}
}

func termWithSlug(t domain.Term) domain.Term {
	if t.Slug == "" {
		t.Slug = domain.Slugify(t.Name)
	}
	return t
}

// slugFor slugifies the requested slug, or the title when none was given. A
// title with no letters or digits falls back to the id.
func slugFor(requested, title, id string) string {
	source := requested
	if source == "" {
		source = title
	}
	if slug := domain.Slugify(source); slug != "" {
		return slug
	}
	return strings.ToLower(id)
}
