package elasticsearch

import (
	"strings"
	"time"

	"github.com/jonesrussell/infobox/internal/domain"
)

// textFields are the wildcard sub-fields a free-text query is matched against.
var textFields = []string{"title.wild", "description.wild", "content.wild", "tags.name.wild"}

// QueryBuilder builds Elasticsearch query DSL from normalized searches.
type QueryBuilder struct{}

// NewQueryBuilder creates a new query builder
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build constructs the page query: filter, sort and window.
func (qb *QueryBuilder) Build(q domain.SearchQuery) map[string]any {
	return map[string]any{
		"query":            qb.Query(q.Criteria),
		"from":             q.Offset(),
		"size":             q.Limit,
		"sort":             qb.Sort(q.Sort),
		"track_total_hits": false,
	}
}

// Count constructs the body of a _count request for criteria.
func (qb *QueryBuilder) Count(c domain.Criteria) map[string]any {
	return map[string]any{"query": qb.Query(c)}
}

// Query translates criteria into a bool query. Every clause is a filter, so
// scores are constant and the sort alone decides the order.
func (qb *QueryBuilder) Query(c domain.Criteria) map[string]any {
	filters := qb.filters(c)
	if len(filters) == 0 {
		return map[string]any{"match_all": map[string]any{}}
	}
	return map[string]any{
		"bool": map[string]any{"filter": filters},
	}
}

func (qb *QueryBuilder) filters(c domain.Criteria) []any {
	var result []any

	if c.Text != "" {
		pattern := containsPattern(c.Text)
		should := make([]any, 0, len(textFields))
		for _, field := range textFields {
			should = append(should, wildcard(field, pattern))
		}
		result = append(result, map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		})
	}

	if c.Category != "" {
		result = append(result, map[string]any{
			"term": map[string]any{"category.name": c.Category},
		})
	}

	if len(c.Tags) > 0 {
		result = append(result, map[string]any{
			"terms": map[string]any{"tags.name": c.Tags},
		})
	}

	if c.From != nil || c.Before != nil {
		dateRange := map[string]any{}
		if c.From != nil {
			dateRange["gte"] = c.From.UTC().Format(time.RFC3339Nano)
		}
		if c.Before != nil {
			dateRange["lt"] = c.Before.UTC().Format(time.RFC3339Nano)
		}
		result = append(result, map[string]any{
			"range": map[string]any{"date": dateRange},
		})
	}

	return result
}

// Sort constructs sort criteria. The id clause makes the order total.
func (qb *QueryBuilder) Sort(s domain.SortSpec) []any {
	order := string(domain.SortAsc)
	if s.Descending() {
		order = string(domain.SortDesc)
	}
	return []any{
		map[string]any{string(s.Field()): map[string]any{"order": order}},
		map[string]any{"id": map[string]any{"order": string(domain.SortAsc)}},
	}
}

// Suggest constructs a title lookup: newest first, one hit per distinct title.
func (qb *QueryBuilder) Suggest(q string, limit int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{wildcard("title.wild", containsPattern(q))},
			},
		},
		"size":     limit,
		"sort":     qb.Sort(domain.SortSpec{Key: domain.SortDate, Order: domain.SortDesc}),
		"collapse": map[string]any{"field": "title.keyword"},
		"_source":  []string{"title"},
	}
}

// BySlug constructs an exact slug lookup.
func (qb *QueryBuilder) BySlug(slug string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]any{"slug": slug}}},
			},
		},
		"size": 1,
	}
}

func wildcard(field, pattern string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{
				"value":            pattern,
				"case_insensitive": true,
			},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// containsPattern turns text into a wildcard pattern matching it anywhere,
// with wildcard metacharacters in text taken literally.
func containsPattern(text string) string {
	return "*" + wildcardEscaper.Replace(text) + "*"
}
