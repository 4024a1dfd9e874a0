package domain_test

import (
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/infobox/internal/domain"
)

func TestContentItem_DecodesBothTermShapes(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "01",
		"title": "Mixed",
		"category": "News",
		"tags": ["plain", {"name": "Ref", "slug": "ref"}],
		"date": "2024-05-01T00:00:00Z"
	}`

	var it domain.ContentItem
	require.NoError(t, json.Unmarshal([]byte(raw), &it))

	assert.Equal(t, &domain.Term{Name: "News"}, it.Category)
	assert.Equal(t, []domain.Term{{Name: "plain"}, {Name: "Ref", Slug: "ref"}}, it.Tags)
	assert.Equal(t, "News", it.CategoryName())
	assert.Equal(t, []string{"plain", "Ref"}, it.TagNames())
}

func TestTerm_RejectsGarbage(t *testing.T) {
	t.Parallel()

	var term domain.Term
	require.Error(t, json.Unmarshal([]byte(`42`), &term))
}

func TestContentItem_NoCategory(t *testing.T) {
	t.Parallel()

	it := domain.ContentItem{}
	assert.Empty(t, it.CategoryName())

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"category"`)
}

func TestContentInput_Normalize(t *testing.T) {
	t.Parallel()

	in := domain.ContentInput{
		Title:    "  Title ",
		Category: &domain.Term{Name: "  "},
		Tags:     []domain.Term{{Name: " go "}, {Name: ""}, {Name: "db"}},
	}
	in.Normalize()

	assert.Equal(t, "Title", in.Title)
	assert.Nil(t, in.Category)
	assert.Equal(t, []domain.Term{{Name: "go"}, {Name: "db"}}, in.Tags)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Hello, World!":        "hello-world",
		"Café & Crème":         "cafe-creme",
		"  --Go 1.26 released": "go-1-26-released",
		"!!!":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, domain.Slugify(in), in)
	}
}

func TestSlugify_ConcurrentCalls(t *testing.T) {
	t.Parallel()

	const title = "Café Crème Brûlée Ñandú"
	want := domain.Slugify(title)
	require.Equal(t, "cafe-creme-brulee-nandu", want)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				if got := domain.Slugify(title); got != want {
					errs <- got
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		assert.Equal(t, want, got)
	}
}

func TestNewID_SortsByCreation(t *testing.T) {
	t.Parallel()

	now := time.Now()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = domain.NewID(now)
	}

	assert.True(t, slices.IsSorted(ids))
	assert.Len(t, ids[0], 26)
	assert.Less(t, ids[49], domain.NewID(now.Add(time.Millisecond)))
}
