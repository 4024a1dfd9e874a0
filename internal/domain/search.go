package domain

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortDate      SortKey = "date"
	SortViews     SortKey = "views"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Search defaults. The service config may override the limits.
const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultMaxLimit  = 100
	DefaultMaxQuery  = 500
	MinSuggestLength = 2

	DefaultSuggestLimit = 5
	MaxSuggestLimit     = 10
)

// SearchRequest is a search as submitted by a caller. Every field is optional
// and malformed values are dropped by Normalize rather than rejected.
type SearchRequest struct {
	Query     string   `json:"query"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	DateFrom  string   `json:"dateFrom"`
	DateTo    string   `json:"dateTo"`
	SortBy    string   `json:"sortBy"`
	SortOrder string   `json:"sortOrder"`
	Page      int      `json:"page"`
	Limit     int      `json:"limit"`
}

// Limits bounds a normalized search.
type Limits struct {
	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
}

// DefaultLimits are used when the service config leaves limits unset.
func DefaultLimits() Limits {
	return Limits{DefaultLimit: DefaultLimit, MaxLimit: DefaultMaxLimit, MaxQueryLength: DefaultMaxQuery}
}

// Criteria is the filter half of a search. All set fields must hold.
type Criteria struct {
	// Text matches title, description, content or any tag name as a
	// case-insensitive substring.
	Text string
	// Category must equal the item's category name exactly.
	Category string
	// Tags matches items carrying at least one of the names.
	Tags []string
	// From is an inclusive lower bound on Date.
	From *time.Time
	// Before is an exclusive upper bound on Date.
	Before *time.Time
}

// SortSpec is the order half of a search.
type SortSpec struct {
	Key   SortKey
	Order SortOrder
}

// SearchQuery is a normalized SearchRequest.
type SearchQuery struct {
	Criteria Criteria
	Sort     SortSpec
	Page     int
	Limit    int
}

// Offset is the number of matches skipped before the page starts.
func (q SearchQuery) Offset() int {
	return max(0, (q.Page-1)*q.Limit)
}

// Normalize applies defaults and drops what cannot be used: a page below 1
// becomes 1, a non-positive limit takes the default and a large one is capped,
// unknown sort keys fall back to relevance and unknown orders to desc.
// Unparseable dates are ignored, as are both dates when dateFrom is after dateTo.
func (r SearchRequest) Normalize(l Limits) SearchQuery {
	def := DefaultLimits()
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = def.DefaultLimit
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = def.MaxLimit
	}
	if l.MaxQueryLength <= 0 {
		l.MaxQueryLength = def.MaxQueryLength
	}

	q := SearchQuery{
		Page:  r.Page,
		Limit: r.Limit,
		Sort:  SortSpec{Key: SortKey(strings.ToLower(r.SortBy)), Order: SortOrder(strings.ToLower(r.SortOrder))},
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = l.DefaultLimit
	}
	q.Limit = min(q.Limit, l.MaxLimit)
	// keeps Offset from overflowing; such a page is past any real result set
	q.Page = min(q.Page, math.MaxInt/q.Limit)

	switch q.Sort.Key {
	case SortRelevance, SortDate, SortViews:
	default:
		q.Sort.Key = SortRelevance
	}
	if q.Sort.Order != SortAsc {
		q.Sort.Order = SortDesc
	}

	q.Criteria.Text = truncateRunes(strings.TrimSpace(r.Query), l.MaxQueryLength)
	q.Criteria.Category = strings.TrimSpace(r.Category)
	for _, tag := range r.Tags {
		if tag = strings.TrimSpace(tag); tag != "" && !slices.Contains(q.Criteria.Tags, tag) {
			q.Criteria.Tags = append(q.Criteria.Tags, tag)
		}
	}

	from, fromOK := ParseDate(r.DateFrom)
	to, toOK := ParseDate(r.DateTo)
	// dateTo covers its whole calendar day, whatever time of day it carries
	var before time.Time
	if toOK {
		before = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	}
	if fromOK && toOK && !from.Before(before) {
		fromOK, toOK = false, false
	}
	if fromOK {
		q.Criteria.From = &from
	}
	if toOK {
		q.Criteria.Before = &before
	}

	return q
}

// ParseDate reads YYYY-MM-DD, RFC 3339 and the other layouts dateparse knows,
// in UTC when the value carries no zone.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// IsEmpty reports whether the criteria match every item.
func (c Criteria) IsEmpty() bool {
	return c.Text == "" && c.Category == "" && len(c.Tags) == 0 && c.From == nil && c.Before == nil
}

// Matches is the reference predicate. Repository implementations that push
// the filter down must agree with it.
func (c Criteria) Matches(item *ContentItem) bool {
	if c.Text != "" && !matchesText(item, strings.ToLower(c.Text)) {
		return false
	}
	if c.Category != "" && item.CategoryName() != c.Category {
		return false
	}
	if len(c.Tags) > 0 && !slices.ContainsFunc(item.Tags, func(t Term) bool { return slices.Contains(c.Tags, t.Name) }) {
		return false
	}
	if c.From != nil && item.Date.Before(*c.From) {
		return false
	}
	if c.Before != nil && !item.Date.Before(*c.Before) {
		return false
	}
	return true
}

func matchesText(item *ContentItem, needle string) bool {
	for _, field := range []string{item.Title, item.Description, item.Content} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, t := range item.Tags {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			return true
		}
	}
	return false
}

// Field is the attribute actually sorted on. Relevance has no scorer and
// sorts by date.
func (s SortSpec) Field() SortKey {
	if s.Key == SortViews {
		return SortViews
	}
	return SortDate
}

// Descending reports the effective direction. Relevance is always newest first.
func (s SortSpec) Descending() bool {
	if s.Key == SortRelevance || s.Key == "" {
		return true
	}
	return s.Order != SortAsc
}

// Compare orders a before b (negative), after b (positive) or never equal for
// distinct ids: ties on the sort field are broken by ascending id.
func (s SortSpec) Compare(a, b *ContentItem) int {
	var c int
	if s.Field() == SortViews {
		c = compareInt64(a.Views, b.Views)
	} else {
		c = a.Date.Compare(b.Date)
	}
	if s.Descending() {
		c = -c
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SearchResponse is one page of results plus totals over all matches.
type SearchResponse struct {
	Results []ContentItem `json:"results"`
	Total   int64         `json:"total"`
	Pages   int           `json:"pages"`
}

// EmptySearchResponse is what a failed search returns.
func EmptySearchResponse() *SearchResponse {
	return &SearchResponse{Results: []ContentItem{}}
}

// TotalPages is ceil(total/limit), 0 for a non-positive limit.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// SuggestRequest asks for titles containing Q.
type SuggestRequest struct {
	Q     string `json:"q"     form:"q"`
	Limit int    `json:"limit" form:"limit"`
}

// Normalize trims Q and bounds Limit. ok is false when Q is too short to
// look up.
func (r SuggestRequest) Normalize() (q string, limit int, ok bool) {
	q = strings.TrimSpace(r.Q)
	limit = r.Limit
	if limit < 1 {
		limit = DefaultSuggestLimit
	}
	limit = min(limit, MaxSuggestLimit)
	return q, limit, utf8.RuneCountInString(q) >= MinSuggestLength
}

// SuggestResponse lists distinct matching titles, newest first.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}
