package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/memstore"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *memstore.Store, items ...domain.ContentItem) {
	t.Helper()
	for i := range items {
		require.NoError(t, s.Create(context.Background(), &items[i]))
	}
}

func ids(items []domain.ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestStore_FindOrdersAndPages(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seed(t, s,
		domain.ContentItem{ID: "a", Slug: "a", Title: "A", Date: day(1), Views: 5},
		domain.ContentItem{ID: "b", Slug: "b", Title: "B", Date: day(3), Views: 5},
		domain.ContentItem{ID: "c", Slug: "c", Title: "C", Date: day(2), Views: 9},
	)
	ctx := context.Background()

	byDate := domain.SearchQuery{Sort: domain.SortSpec{Key: domain.SortRelevance}, Page: 1, Limit: 10}
	got, err := s.Find(ctx, byDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(got))

	byViews := domain.SearchQuery{Sort: domain.SortSpec{Key: domain.SortViews, Order: domain.SortDesc}, Page: 1, Limit: 10}
	got, err = s.Find(ctx, byViews)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(got), "equal views fall back to id ascending")

	page2 := domain.SearchQuery{Sort: domain.SortSpec{Key: domain.SortDate, Order: domain.SortAsc}, Page: 2, Limit: 2}
	got, err = s.Find(ctx, page2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	beyond := domain.SearchQuery{Sort: domain.SortSpec{Key: domain.SortDate}, Page: 5, Limit: 2}
	got, err = s.Find(ctx, beyond)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SlugUniqueness(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	ctx := context.Background()
	seed(t, s,
		domain.ContentItem{ID: "a", Slug: "hello"},
		domain.ContentItem{ID: "b", Slug: "world"},
	)

	err := s.Create(ctx, &domain.ContentItem{ID: "c", Slug: "hello"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)

	err = s.Update(ctx, &domain.ContentItem{ID: "b", Slug: "hello"})
	require.ErrorIs(t, err, domain.ErrSlugTaken)

	require.NoError(t, s.Update(ctx, &domain.ContentItem{ID: "b", Slug: "renamed"}))
	_, err = s.GetBySlug(ctx, "world")
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.GetBySlug(ctx, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestStore_UpdateKeepsViews(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	ctx := context.Background()
	seed(t, s, domain.ContentItem{ID: "a", Slug: "a", Title: "Old"})

	_, err := s.IncrementViews(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, &domain.ContentItem{ID: "a", Slug: "a", Title: "New", Views: 0}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, int64(1), got.Views)
}

func TestStore_IncrementViewsConcurrent(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	ctx := context.Background()
	seed(t, s, domain.ContentItem{ID: "a", Slug: "a"})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.IncrementViews(ctx, "a")
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Views)
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	ctx := context.Background()
	seed(t, s, domain.ContentItem{ID: "a", Slug: "a", Tags: []domain.Term{{Name: "go"}}, Category: &domain.Term{Name: "Tech"}})

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Tags[0].Name = "mutated"
	got.Category.Name = "mutated"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "go", again.Tags[0].Name)
	assert.Equal(t, "Tech", again.CategoryName())
}

func TestStore_SuggestTitles(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	seed(t, s,
		domain.ContentItem{ID: "a", Slug: "a", Title: "Go basics", Date: day(1)},
		domain.ContentItem{ID: "b", Slug: "b", Title: "Going further", Date: day(3)},
		domain.ContentItem{ID: "c", Slug: "c", Title: "Go basics", Date: day(2)},
		domain.ContentItem{ID: "d", Slug: "d", Title: "Rust", Date: day(4)},
	)

	titles, err := s.SuggestTitles(context.Background(), "GO", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Going further", "Go basics"}, titles)

	titles, err = s.SuggestTitles(context.Background(), "go", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Going further"}, titles)
}

func TestStore_DeleteAndNotFound(t *testing.T) {
	t.Parallel()

	s := memstore.New()
	ctx := context.Background()
	seed(t, s, domain.ContentItem{ID: "a", Slug: "a"})

	require.NoError(t, s.Delete(ctx, "a"))
	require.ErrorIs(t, s.Delete(ctx, "a"), domain.ErrNotFound)

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.IncrementViews(ctx, "a")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
