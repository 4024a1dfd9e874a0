package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/memstore"
	"github.com/jonesrussell/infobox/internal/metrics"
	"github.com/jonesrussell/infobox/internal/sanitize"
	"github.com/jonesrussell/infobox/internal/service"
)

type rejectingSanitizer struct{}

func (rejectingSanitizer) Sanitize(string) (string, error) {
	return "", fmt.Errorf("%w: tokenizer gave up", sanitize.ErrPolicyFailed)
}

var fixedNow = time.Date(2024, time.May, 4, 10, 30, 0, 0, time.UTC)

func newContentService(t *testing.T) (*service.ContentService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := service.NewContentService(store, sanitize.New(), nil, logger.NewNop())
	svc.SetNow(func() time.Time { return fixedNow })
	return svc, store
}

func TestContentService_CreateSanitizesAndDerives(t *testing.T) {
	t.Parallel()

	svc, store := newContentService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, domain.ContentInput{
		Title:    "  Café & Crème!  ",
		Content:  "<script>alert(1)</script><p><h2>Hi</h2></p>",
		Category: &domain.Term{Name: "Food News"},
		Tags:     []domain.Term{{Name: "Recipes"}, {Name: " "}, {Name: "Paris", Slug: "fr-paris"}},
	})
	require.NoError(t, err)

	assert.Len(t, item.ID, 26)
	assert.Equal(t, "Café & Crème!", item.Title)
	assert.Equal(t, "cafe-creme", item.Slug)
	assert.Equal(t, "<h2>Hi</h2>", item.Content)
	assert.Equal(t, fixedNow, item.Date)
	assert.Equal(t, fixedNow, item.CreatedAt)
	assert.Equal(t, &domain.Term{Name: "Food News", Slug: "food-news"}, item.Category)
	assert.Equal(t, []domain.Term{{Name: "Recipes", Slug: "recipes"}, {Name: "Paris", Slug: "fr-paris"}}, item.Tags)

	stored, err := store.GetBySlug(ctx, "cafe-creme")
	require.NoError(t, err)
	assert.Equal(t, item.ID, stored.ID)
	assert.Equal(t, "<h2>Hi</h2>", stored.Content)
}

func TestContentService_CreateKeepsGivenDateAndSlug(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	published := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.FixedZone("EST", -5*3600))

	item, err := svc.Create(context.Background(), domain.ContentInput{Title: "T", Slug: "My Slug", Date: &published})
	require.NoError(t, err)
	assert.Equal(t, "my-slug", item.Slug)
	assert.True(t, published.Equal(item.Date))
	assert.Equal(t, time.UTC, item.Date.Location())
}

func TestContentService_CreateRejectsUnsafeContent(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	m := metrics.New()
	svc := service.NewContentService(store, rejectingSanitizer{}, m, logger.NewNop())

	_, err := svc.Create(context.Background(), domain.ContentInput{Title: "T", Content: "<p>x</p>"})
	require.ErrorIs(t, err, service.ErrUnsafeContent)
	require.ErrorIs(t, err, sanitize.ErrPolicyFailed)

	n, err := store.Count(context.Background(), domain.Criteria{})
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is saved")
}

func TestContentService_CreateRequiresTitle(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	_, err := svc.Create(context.Background(), domain.ContentInput{Title: "   "})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestContentService_CreateDuplicateSlug(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.ContentInput{Title: "Hello World"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.ContentInput{Title: "hello, world"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestContentService_SymbolOnlyTitleFallsBackToID(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	item, err := svc.Create(context.Background(), domain.ContentInput{Title: "!!!"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.Slug)
	assert.Len(t, item.Slug, 26)
}

func TestContentService_UpdateKeepsViewsAndCreatedAt(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.ContentInput{Title: "First"})
	require.NoError(t, err)
	_, err = svc.RecordView(ctx, created.ID)
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	svc.SetNow(func() time.Time { return later })

	updated, err := svc.Update(ctx, created.ID, domain.ContentInput{Title: "Second", Content: "<p></p><p>body</p>"})
	require.NoError(t, err)
	assert.Equal(t, "first", updated.Slug, "empty slug keeps the current one")
	assert.Equal(t, "<p>body</p>", updated.Content)
	assert.Equal(t, int64(1), updated.Views)
	assert.Equal(t, fixedNow, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, int64(1), got.Views)
}

func TestContentService_UpdateErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "missing", domain.ContentInput{Title: "T"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	a, err := svc.Create(ctx, domain.ContentInput{Title: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.ContentInput{Title: "B"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, domain.ContentInput{Title: "A", Slug: "b"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestContentService_DeleteAndRecordView(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, domain.ContentInput{Title: "Counted"})
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		views, viewErr := svc.RecordView(ctx, item.ID)
		require.NoError(t, viewErr)
		assert.Equal(t, want, views)
	}

	bySlug, err := svc.GetBySlug(ctx, "counted")
	require.NoError(t, err)
	assert.Equal(t, int64(3), bySlug.Views)

	require.NoError(t, svc.Delete(ctx, item.ID))
	_, err = svc.RecordView(ctx, item.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, item.ID), domain.ErrNotFound)
}

func TestContentService_SanitizePreview(t *testing.T) {
	t.Parallel()

	svc, _ := newContentService(t)

	clean, err := svc.Sanitize("<p><p><div>x</div></p></p>")
	require.NoError(t, err)
	assert.Equal(t, "<div>x</div>", clean)

	rejecting := service.NewContentService(memstore.New(), rejectingSanitizer{}, nil, nil)
	_, err = rejecting.Sanitize("x")
	assert.True(t, errors.Is(err, service.ErrUnsafeContent))
}
