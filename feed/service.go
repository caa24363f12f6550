package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jfernandes/portfolio-content/content"
	"github.com/jfernandes/portfolio-content/telemetry"
)

// Service runs article ingestion: fetch the feed, derive project records,
// and wholesale-replace the syndicated items of the projects document.
type Service struct {
	upstream *Upstream
	store    *content.Store
	feedURL  string
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an article ingestion service. feedURL is the default
// feed location, used until a persisted document carries its own.
func NewService(upstream *Upstream, store *content.Store, feedURL string, opts ...ServiceOption) *Service {
	s := &Service{
		upstream: upstream,
		store:    store,
		feedURL:  feedURL,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh re-ingests the feed and persists the updated projects document.
// Returns the saved document and the number of syndicated items ingested.
// A fetch or parse failure leaves the previously persisted document
// untouched.
func (s *Service) Refresh(ctx context.Context) (*content.ProjectCollection, int, error) {
	doc, err := s.store.Projects(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("reading projects document: %w", err)
	}

	feedURL := doc.SourceFeedURL
	if feedURL == "" {
		feedURL = s.feedURL
	}
	if feedURL == "" {
		return nil, 0, fmt.Errorf("%w: no feed URL configured", ErrFeed)
	}

	start := s.now()
	feed, err := s.upstream.Fetch(ctx, feedURL)
	if err != nil {
		telemetry.RecordUpstreamFetch(ctx, "feed", "error", time.Since(start))
		s.logger.Warn("feed fetch failed, document left untouched", "feed_url", feedURL, "error", err)
		return nil, 0, err
	}
	telemetry.RecordUpstreamFetch(ctx, "feed", "ok", time.Since(start))

	items := make([]content.Project, 0, len(feed.Items))
	skipped := 0
	for _, item := range feed.Items {
		p, ok := Transform(item, s.now())
		if !ok {
			skipped++
			continue
		}
		items = append(items, p)
	}
	if skipped > 0 {
		s.logger.Warn("skipped feed items lacking title or link", "count", skipped)
	}

	doc.SourceFeedURL = feedURL
	doc.SyndicatedItems = items

	saved, err := s.store.SaveProjects(ctx, doc)
	if err != nil {
		return nil, 0, fmt.Errorf("persisting projects document: %w", err)
	}
	telemetry.RecordDocumentWrite(ctx, "projects")

	s.logger.Info("feed refreshed", "feed_url", feedURL, "items", len(items))
	return saved, len(items), nil
}
