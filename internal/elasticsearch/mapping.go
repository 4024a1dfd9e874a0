package elasticsearch

// titleKeywordMax bounds the keyword sub-field used to collapse suggestions.
const titleKeywordMax = 1024

// indexMapping is the content index definition. Text fields carry a wildcard
// sub-field for substring search; category and tag names are keywords for
// exact filtering.
func indexMapping() map[string]any {
	wild := map[string]any{"wild": map[string]any{"type": "wildcard"}}
	term := map[string]any{
		"properties": map[string]any{
			"name": map[string]any{"type": "keyword", "fields": wild},
			"slug": map[string]any{"type": "keyword"},
		},
	}

	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]any{
			"dynamic": "strict",
			"properties": map[string]any{
				"id":   map[string]any{"type": "keyword"},
				"slug": map[string]any{"type": "keyword"},
				"title": map[string]any{
					"type": "text",
					"fields": map[string]any{
						"wild":    map[string]any{"type": "wildcard"},
						"keyword": map[string]any{"type": "keyword", "ignore_above": titleKeywordMax},
					},
				},
				"description": map[string]any{"type": "text", "fields": wild},
				"content":     map[string]any{"type": "text", "fields": wild},
				"author":      map[string]any{"type": "keyword"},
				"image":       map[string]any{"type": "keyword", "index": false},
				"category":    term,
				"tags":        term,
				"date":        map[string]any{"type": "date"},
				"views":       map[string]any{"type": "long"},
				"featured":    map[string]any{"type": "boolean"},
				"createdAt":   map[string]any{"type": "date"},
				"updatedAt":   map[string]any{"type": "date"},
			},
		},
	}
}
