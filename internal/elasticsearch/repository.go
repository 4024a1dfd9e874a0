// Package elasticsearch stores content items in an Elasticsearch index and
// runs searches against it.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	infraerrors "github.com/jonesrussell/infobox/infrastructure/errors"
	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/domain"
)

// Default repository settings.
const (
	DefaultIndex         = "infobox_content"
	DefaultRefresh       = "wait_for"
	DefaultSearchTimeout = 5 * time.Second
	retryOnConflict      = 3
)

// incrementViewsScript bumps the counter in place so concurrent views never
// overwrite each other.
const incrementViewsScript = `ctx._source.views = (ctx._source.views == null ? 0 : ctx._source.views) + params.by`

// replaceKeepingViewsScript swaps in a new document but keeps the stored
// counter, which only IncrementViews may change.
const replaceKeepingViewsScript = `long v = ctx._source.views == null ? 0 : ctx._source.views;
ctx._source.clear();
ctx._source.putAll(params.doc);
ctx._source.views = v;`

// Options configures a Repository.
type Options struct {
	Index string
	// Refresh is passed on writes; "wait_for" makes a write visible to the
	// next search.
	Refresh       string
	SearchTimeout time.Duration
}

func (o *Options) setDefaults() {
	if o.Index == "" {
		o.Index = DefaultIndex
	}
	if o.Refresh == "" {
		o.Refresh = DefaultRefresh
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = DefaultSearchTimeout
	}
}

// Repository is the Elasticsearch-backed content repository.
type Repository struct {
	client *es.Client
	opts   Options
	qb     *QueryBuilder
	log    logger.Logger
}

// NewRepository wraps an existing client.
func NewRepository(client *es.Client, opts Options, log logger.Logger) *Repository {
	opts.setDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Repository{
		client: client,
		opts:   opts,
		qb:     NewQueryBuilder(),
		log:    log.With(logger.String("index", opts.Index)),
	}
}

// Index returns the index name documents are stored in.
func (r *Repository) Index() string {
	return r.opts.Index
}

// EnsureIndex creates the content index with its mapping when it is missing.
func (r *Repository) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.opts.Index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	closeBody(res)

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index: unexpected status %d", res.StatusCode)
	}

	body, err := encode(indexMapping())
	if err != nil {
		return err
	}
	res, err = r.client.Indices.Create(
		r.opts.Index,
		r.client.Indices.Create.WithContext(ctx),
		r.client.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return infraerrors.WrapWithContext(err, "create index")
	}
	r.log.Info("Created content index")
	return nil
}

// Ping checks that the cluster answers.
func (r *Repository) Ping(ctx context.Context) error {
	res, err := r.client.Ping(r.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer closeBody(res)
	return infraerrors.WrapWithContext(responseError(res), "ping")
}

// Count returns the number of items matching criteria.
func (r *Repository) Count(ctx context.Context, c domain.Criteria) (int64, error) {
	body, err := encode(r.qb.Count(c))
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(r.opts.Index),
		r.client.Count.WithBody(body),
	)
	if err != nil {
		return 0, fmt.Errorf("count request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return 0, infraerrors.WrapWithContext(err, "count")
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return out.Count, nil
}

// Find returns one page of items matching q, in q's order.
func (r *Repository) Find(ctx context.Context, q domain.SearchQuery) ([]domain.ContentItem, error) {
	hits, err := r.search(ctx, r.qb.Build(q))
	if err != nil {
		return nil, infraerrors.WrapWithContext(err, "find")
	}

	items := make([]domain.ContentItem, 0, len(hits))
	for _, h := range hits {
		var item domain.ContentItem
		if err = json.Unmarshal(h.Source, &item); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", h.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// SuggestTitles returns up to limit distinct titles containing q, newest
// first.
func (r *Repository) SuggestTitles(ctx context.Context, q string, limit int) ([]string, error) {
	hits, err := r.search(ctx, r.qb.Suggest(q, limit))
	if err != nil {
		return nil, infraerrors.WrapWithContext(err, "suggest titles")
	}

	titles := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		var doc struct {
			Title string `json:"title"`
		}
		if err = json.Unmarshal(h.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode suggestion %s: %w", h.ID, err)
		}
		if _, dup := seen[doc.Title]; dup || doc.Title == "" {
			continue
		}
		seen[doc.Title] = struct{}{}
		titles = append(titles, doc.Title)
	}
	return titles, nil
}

// Get returns the item with id, or domain.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*domain.ContentItem, error) {
	res, err := r.client.Get(r.opts.Index, id, r.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return nil, notFound(err, "get %s", id)
	}

	var out struct {
		Source domain.ContentItem `json:"_source"`
	}
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &out.Source, nil
}

// GetBySlug returns the item with slug, or domain.ErrNotFound.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	hits, err := r.search(ctx, r.qb.BySlug(slug))
	if err != nil {
		return nil, infraerrors.WrapWithContextf(err, "get by slug %s", slug)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("slug %s: %w", slug, domain.ErrNotFound)
	}

	var item domain.ContentItem
	if err = json.Unmarshal(hits[0].Source, &item); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", hits[0].ID, err)
	}
	return &item, nil
}

// Create stores a new item. It fails with domain.ErrSlugTaken when another
// item already has the slug.
func (r *Repository) Create(ctx context.Context, item *domain.ContentItem) error {
	if err := r.checkSlug(ctx, item); err != nil {
		return err
	}

	body, err := encode(item)
	if err != nil {
		return err
	}
	res, err := r.client.Index(
		r.opts.Index,
		body,
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(item.ID),
		r.client.Index.WithOpType("create"),
		r.client.Index.WithRefresh(r.opts.Refresh),
	)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return infraerrors.WrapWithContextf(err, "create %s", item.ID)
	}
	r.log.Debug("Content created", logger.String("id", item.ID), logger.String("slug", item.Slug))
	return nil
}

// Update replaces an existing item, keeping its stored view count. It fails
// with domain.ErrNotFound or domain.ErrSlugTaken.
func (r *Repository) Update(ctx context.Context, item *domain.ContentItem) error {
	if err := r.checkSlug(ctx, item); err != nil {
		return err
	}

	body, err := encode(map[string]any{
		"script": map[string]any{
			"source": replaceKeepingViewsScript,
			"lang":   "painless",
			"params": map[string]any{"doc": item},
		},
	})
	if err != nil {
		return err
	}
	res, err := r.client.Update(
		r.opts.Index,
		item.ID,
		body,
		r.client.Update.WithContext(ctx),
		r.client.Update.WithRefresh(r.opts.Refresh),
		r.client.Update.WithRetryOnConflict(retryOnConflict),
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return notFound(err, "update %s", item.ID)
	}
	r.log.Debug("Content updated", logger.String("id", item.ID))
	return nil
}

// Delete removes the item with id, or fails with domain.ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.client.Delete(
		r.opts.Index,
		id,
		r.client.Delete.WithContext(ctx),
		r.client.Delete.WithRefresh(r.opts.Refresh),
	)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return notFound(err, "delete %s", id)
	}
	return nil
}

// IncrementViews adds one view and returns the new count.
func (r *Repository) IncrementViews(ctx context.Context, id string) (int64, error) {
	body, err := encode(map[string]any{
		"script": map[string]any{
			"source": incrementViewsScript,
			"lang":   "painless",
			"params": map[string]any{"by": 1},
		},
	})
	if err != nil {
		return 0, err
	}
	res, err := r.client.Update(
		r.opts.Index,
		id,
		body,
		r.client.Update.WithContext(ctx),
		r.client.Update.WithSource("views"),
		r.client.Update.WithRetryOnConflict(retryOnConflict),
	)
	if err != nil {
		return 0, fmt.Errorf("update request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return 0, notFound(err, "increment views %s", id)
	}

	var out struct {
		Get struct {
			Source struct {
				Views int64 `json:"views"`
			} `json:"_source"`
		} `json:"get"`
	}
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode update response: %w", err)
	}
	return out.Get.Source.Views, nil
}

// checkSlug fails with domain.ErrSlugTaken when a different item holds the
// slug. The check and the write are separate requests, so two concurrent
// writers can still race.
func (r *Repository) checkSlug(ctx context.Context, item *domain.ContentItem) error {
	existing, err := r.GetBySlug(ctx, item.Slug)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != item.ID:
		return fmt.Errorf("slug %s: %w", item.Slug, domain.ErrSlugTaken)
	default:
		return nil
	}
}

type hit struct {
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

func (r *Repository) search(ctx context.Context, query map[string]any) ([]hit, error) {
	body, err := encode(query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.opts.Index),
		r.client.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer closeBody(res)

	if err = responseError(res); err != nil {
		return nil, err
	}

	var out struct {
		Hits struct {
			Hits []hit `json:"hits"`
		} `json:"hits"`
	}
	if err = json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Hits.Hits, nil
}

func encode(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// responseError returns nil for a successful response and an
// *infraerrors.HTTPError otherwise.
func responseError(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	return infraerrors.ParseHTTPError(res.StatusCode, res.Body)
}

// notFound maps a 404 to domain.ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...any) error {
	if status, ok := infraerrors.StatusCode(err); ok && status == http.StatusNotFound {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return infraerrors.WrapWithContextf(err, format, args...)
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
