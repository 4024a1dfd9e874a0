package elasticsearch_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/elasticsearch"
)

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestQueryBuilder_Build_EmptyRequestMatchesAll(t *testing.T) {
	t.Parallel()

	qb := elasticsearch.NewQueryBuilder()
	q := domain.SearchRequest{}.Normalize(domain.DefaultLimits())

	assert.JSONEq(t, `{
		"query": {"match_all": {}},
		"from": 0,
		"size": 10,
		"sort": [{"date": {"order": "desc"}}, {"id": {"order": "asc"}}],
		"track_total_hits": false
	}`, toJSON(t, qb.Build(q)))
}

func TestQueryBuilder_Build_AllFilters(t *testing.T) {
	t.Parallel()

	qb := elasticsearch.NewQueryBuilder()
	q := domain.SearchRequest{
		Query:     "Go*lang",
		Category:  "Tech",
		Tags:      []string{"go", "web"},
		DateFrom:  "2024-03-01",
		DateTo:    "2024-03-31",
		SortBy:    "views",
		SortOrder: "asc",
		Page:      3,
		Limit:     20,
	}.Normalize(domain.DefaultLimits())

	wild := func(field string) string {
		return `{"wildcard": {"` + field + `": {"value": "*Go\\*lang*", "case_insensitive": true}}}`
	}

	assert.JSONEq(t, `{
		"query": {"bool": {"filter": [
			{"bool": {"should": [`+wild("title.wild")+`,`+wild("description.wild")+`,`+
		wild("content.wild")+`,`+wild("tags.name.wild")+`], "minimum_should_match": 1}},
			{"term": {"category.name": "Tech"}},
			{"terms": {"tags.name": ["go", "web"]}},
			{"range": {"date": {"gte": "2024-03-01T00:00:00Z", "lt": "2024-04-01T00:00:00Z"}}}
		]}},
		"from": 40,
		"size": 20,
		"sort": [{"views": {"order": "asc"}}, {"id": {"order": "asc"}}],
		"track_total_hits": false
	}`, toJSON(t, qb.Build(q)))
}

func TestQueryBuilder_Sort(t *testing.T) {
	t.Parallel()

	qb := elasticsearch.NewQueryBuilder()
	tests := []struct {
		name string
		spec domain.SortSpec
		want string
	}{
		{
			name: "relevance ignores requested order",
			spec: domain.SortSpec{Key: domain.SortRelevance, Order: domain.SortAsc},
			want: `[{"date": {"order": "desc"}}, {"id": {"order": "asc"}}]`,
		},
		{
			name: "date ascending",
			spec: domain.SortSpec{Key: domain.SortDate, Order: domain.SortAsc},
			want: `[{"date": {"order": "asc"}}, {"id": {"order": "asc"}}]`,
		},
		{
			name: "views descending",
			spec: domain.SortSpec{Key: domain.SortViews, Order: domain.SortDesc},
			want: `[{"views": {"order": "desc"}}, {"id": {"order": "asc"}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.JSONEq(t, tt.want, toJSON(t, qb.Sort(tt.spec)))
		})
	}
}

func TestQueryBuilder_Suggest(t *testing.T) {
	t.Parallel()

	qb := elasticsearch.NewQueryBuilder()
	assert.JSONEq(t, `{
		"query": {"bool": {"filter": [
			{"wildcard": {"title.wild": {"value": "*a\\?b\\\\*", "case_insensitive": true}}}
		]}},
		"size": 5,
		"sort": [{"date": {"order": "desc"}}, {"id": {"order": "asc"}}],
		"collapse": {"field": "title.keyword"},
		"_source": ["title"]
	}`, toJSON(t, qb.Suggest(`a?b\`, 5)))
}
