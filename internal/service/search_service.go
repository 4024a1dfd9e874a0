// Package service holds the InfoBox search and content write paths.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/metrics"
)

// SearchService orchestrates search operations
type SearchService struct {
	repo    SearchRepository
	limits  domain.Limits
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewSearchService creates a new search service
func NewSearchService(repo SearchRepository, limits domain.Limits, m *metrics.Metrics, log logger.Logger) *SearchService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SearchService{
		repo:    repo,
		limits:  limits,
		metrics: m,
		logger:  log,
	}
}

// Search runs req against the repository. The count and the page are fetched
// concurrently. A repository failure is logged and answered with an empty
// response; no error reaches the caller.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) *domain.SearchResponse {
	startTime := time.Now()
	q := req.Normalize(s.limits)

	var (
		total int64
		items []domain.ContentItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, q.Criteria)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.repo.Find(gctx, q)
		return err
	})

	if err := g.Wait(); err != nil {
		s.metrics.RecordSearch(string(q.Sort.Key), time.Since(startTime), true)
		logger.FromContextOr(ctx, s.logger).Error("Search failed",
			logger.Error(err),
			logger.String("query", q.Criteria.Text),
			logger.Int("page", q.Page),
			logger.Int("limit", q.Limit),
		)
		return domain.EmptySearchResponse()
	}

	if items == nil {
		items = []domain.ContentItem{}
	}
	took := time.Since(startTime)
	s.metrics.RecordSearch(string(q.Sort.Key), took, false)

	s.logger.Debug("Search completed",
		logger.String("query", q.Criteria.Text),
		logger.String("sort", string(q.Sort.Key)),
		logger.Int64("total", total),
		logger.Duration("took", took),
	)

	return &domain.SearchResponse{
		Results: items,
		Total:   total,
		Pages:   domain.TotalPages(total, q.Limit),
	}
}

// Suggest returns distinct titles containing req.Q, newest first. Queries
// shorter than two characters never reach the repository; lookup errors are
// logged at warn and answered with no suggestions.
func (s *SearchService) Suggest(ctx context.Context, req domain.SuggestRequest) *domain.SuggestResponse {
	empty := &domain.SuggestResponse{Suggestions: []string{}}

	q, limit, ok := req.Normalize()
	if !ok {
		return empty
	}
	s.metrics.RecordSuggest()

	titles, err := s.repo.SuggestTitles(ctx, q, limit)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Suggest execution failed",
			logger.Error(err),
			logger.String("query", q),
		)
		return empty
	}
	if len(titles) > limit {
		titles = titles[:limit]
	}
	if titles == nil {
		titles = []string{}
	}
	return &domain.SuggestResponse{Suggestions: titles}
}
