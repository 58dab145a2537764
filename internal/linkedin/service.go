package linkedin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/pagination"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/monitoring"
)

// Service exposes the paginated voyager operations. Each fetch run drives
// the pagination orchestrator over an Executor chosen by the caller.
type Service struct {
	urls    *URLs
	pacing  config.PacingConfig
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewService creates the voyager operation service.
func NewService(baseURL string, pacing config.PacingConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Service{
		urls:   NewURLs(baseURL),
		pacing: pacing,
		logger: logger,
	}
}

// WithMetrics attaches the metrics collector.
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.metrics = m
	return s
}

// URLs exposes the endpoint builder (for the raw-request handler).
func (s *Service) URLs() *URLs {
	return s.urls
}

// FetchOptions controls one paginated fetch.
type FetchOptions struct {
	// Count is the requested item count. Ignored when All.
	Count int
	// All fetches until the source is exhausted, bounded by the
	// configured hard cap.
	All bool
	// MinDelay and MaxDelay override the configured pacing when both are
	// set; zero values fall back to config.
	MinDelay time.Duration
	MaxDelay time.Duration
}

func (s *Service) pagingConfig(opts FetchOptions, batchSize int) pagination.Config {
	minDelay, maxDelay := opts.MinDelay, opts.MaxDelay
	if minDelay == 0 && maxDelay == 0 {
		minDelay, maxDelay = s.pacing.MinDelay, s.pacing.MaxDelay
	}
	return pagination.Config{
		Target:    opts.Count,
		Unbounded: opts.All,
		BatchSize: batchSize,
		MinDelay:  minDelay,
		MaxDelay:  maxDelay,
		HardCap:   s.pacing.HardCap,
	}
}

// fetchPage executes one page call and decodes it with parse.
func fetchPage[T any](ctx context.Context, ex Executor, url string, parse func(string) ([]T, string, error)) (pagination.Page[T], error) {
	resp, err := ex.Do(ctx, proxy.HTTPRequest{URL: url, Method: "GET", ResponseType: "json"})
	if err != nil {
		return pagination.Page[T]{}, err
	}
	if resp.StatusCode >= 400 {
		return pagination.Page[T]{}, &proxy.RemoteError{Message: fmt.Sprintf("voyager status %d", resp.StatusCode)}
	}
	items, token, err := parse(resp.Body)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.Page[T]{Items: items, NextToken: token}, nil
}

// FetchReactions assembles the reactions on a post thread.
func (s *Service) FetchReactions(ctx context.Context, ex Executor, threadURN string, opts FetchOptions) (*pagination.Result[Reaction], error) {
	cfg := s.pagingConfig(opts, ReactionsPageSize)
	result, err := pagination.Fetch(ctx, cfg, func(ctx context.Context, offset, count int, token string) (pagination.Page[Reaction], error) {
		// The reactions endpoint ignores pagination tokens; start/count
		// alone address the page.
		_ = token
		return fetchPage(ctx, ex, s.urls.Reactions(threadURN, offset, count), ParseReactions)
	})
	if err != nil {
		s.observeErr("reactions", threadURN, err)
		return nil, err
	}
	s.observe("reactions", threadURN, result.Pages, len(result.Items), string(result.Reason))
	return result, nil
}

// FetchComments assembles the comments on a post thread.
func (s *Service) FetchComments(ctx context.Context, ex Executor, threadURN string, opts FetchOptions) (*pagination.Result[Comment], error) {
	cfg := s.pagingConfig(opts, CommentsPageSize)
	result, err := pagination.Fetch(ctx, cfg, func(ctx context.Context, offset, count int, token string) (pagination.Page[Comment], error) {
		return fetchPage(ctx, ex, s.urls.Comments(threadURN, offset, count, token), ParseComments)
	})
	if err != nil {
		s.observeErr("comments", threadURN, err)
		return nil, err
	}
	s.observe("comments", threadURN, result.Pages, len(result.Items), string(result.Reason))
	return result, nil
}

// FetchPosts assembles a profile's shared posts.
func (s *Service) FetchPosts(ctx context.Context, ex Executor, profileURN string, opts FetchOptions) (*pagination.Result[Post], error) {
	cfg := s.pagingConfig(opts, PostsPageSize)
	result, err := pagination.Fetch(ctx, cfg, func(ctx context.Context, offset, count int, token string) (pagination.Page[Post], error) {
		return fetchPage(ctx, ex, s.urls.Posts(profileURN, offset, count, token), ParsePosts)
	})
	if err != nil {
		s.observeErr("posts", profileURN, err)
		return nil, err
	}
	s.observe("posts", profileURN, result.Pages, len(result.Items), string(result.Reason))
	return result, nil
}

// Execute runs a single raw call through the given executor.
func (s *Service) Execute(ctx context.Context, ex Executor, req proxy.HTTPRequest) (*proxy.Response, error) {
	return ex.Do(ctx, req)
}

// FetchPublicPost reads one post from its public permalink page and
// extracts the body text plus OpenGraph metadata. The permalink renders
// for logged-out visitors, so any executor works here, including the
// sessionless one.
func (s *Service) FetchPublicPost(ctx context.Context, ex Executor, activityURN string) (*PublicPost, error) {
	resp, err := ex.Do(ctx, proxy.HTTPRequest{
		URL:          s.urls.PublicPost(activityURN),
		Method:       "GET",
		ResponseType: "text",
	})
	if err != nil {
		s.observeErr("public_post", activityURN, err)
		return nil, err
	}
	if resp.StatusCode >= 400 {
		err := &proxy.RemoteError{Message: fmt.Sprintf("public post status %d", resp.StatusCode)}
		s.observeErr("public_post", activityURN, err)
		return nil, err
	}

	text, err := ExtractPostText(resp.Body)
	if err != nil {
		s.observeErr("public_post", activityURN, err)
		return nil, fmt.Errorf("parse public post page: %w", err)
	}

	post := &PublicPost{URN: activityURN, Text: text}
	// Metadata is best-effort: pages without OpenGraph tags still have a body.
	if meta, err := ExtractPostMeta(resp.Body); err == nil {
		post.Title = meta.Title
		post.Description = meta.Description
		post.Image = meta.Image
	}
	s.logger.Info("Public post fetched", zap.String("urn", activityURN))
	return post, nil
}

func (s *Service) observe(resource, subject string, pages, items int, reason string) {
	if s.metrics != nil {
		s.metrics.RecordFetchRun(resource, reason, pages, items)
	}
	s.logger.Info("Fetch run complete",
		zap.String("resource", resource),
		zap.String("subject", subject),
		zap.Int("pages", pages),
		zap.Int("items", items),
		zap.String("reason", reason),
	)
}

func (s *Service) observeErr(resource, subject string, err error) {
	s.logger.Warn("Fetch run failed",
		zap.String("resource", resource),
		zap.String("subject", subject),
		zap.Error(err),
	)
}
