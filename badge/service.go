package badge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jfernandes/portfolio-content/cache"
	"github.com/jfernandes/portfolio-content/content"
	"github.com/jfernandes/portfolio-content/flight"
	"github.com/jfernandes/portfolio-content/telemetry"
)

// DefaultTTL is how long a fetched badge batch stays fresh in the cache.
const DefaultTTL = 60 * time.Minute

// batch is the cached value: a full certification set plus its fetch time.
type batch struct {
	Certifications []content.Certification
	LastUpdated    time.Time
}

// Result is a certification batch together with how it was obtained.
type Result struct {
	Certifications []content.Certification `json:"certifications"`
	LastUpdated    time.Time               `json:"lastUpdated"`
	Cached         bool                    `json:"cached"`
	// Stale is set when the batch was served from a fallback tier because
	// the upstream fetch failed.
	Stale bool `json:"stale,omitempty"`
}

// Service runs badge ingestion: fetch, filter, classify, cache, persist.
type Service struct {
	upstream *Upstream
	cache    *cache.Cache[batch]
	flight   flight.Group[batch]
	store    *content.Store
	rules    Rules
	ttl      time.Duration
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

// WithRules sets the classification rule table.
func WithRules(rules Rules) ServiceOption {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithTTL sets the cache TTL for fetched batches.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// NewService creates a badge ingestion service. The store is used to persist
// a durable snapshot of the last good batch; it survives process restarts and
// serves as the lowest fallback tier.
func NewService(upstream *Upstream, store *content.Store, opts ...ServiceOption) *Service {
	s := &Service{
		upstream: upstream,
		cache:    cache.New[batch](),
		store:    store,
		rules:    DefaultRules(),
		ttl:      DefaultTTL,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(identity string) string {
	return "certifications:" + identity
}

// Certifications returns the certification batch for identity.
//
// Unless force is set, an unexpired cached batch is returned without an
// upstream call. On upstream failure the last cached batch is returned even
// if expired, then the persisted snapshot; a hard error is returned only
// when no fallback tier exists.
func (s *Service) Certifications(ctx context.Context, identity string, force bool) (*Result, error) {
	key := cacheKey(identity)

	if !force {
		// Freshness is checked without the purging Get so an expired batch
		// survives to serve the upstream-failure fallback below.
		if b, ok := s.cache.GetStale(key); ok && s.now().Sub(b.LastUpdated) <= s.ttl {
			s.logger.Debug("badge cache hit", "identity", identity)
			telemetry.RecordCacheLookup(ctx, "badges", telemetry.CacheHit)
			return &Result{Certifications: b.Certifications, LastUpdated: b.LastUpdated, Cached: true}, nil
		}
		telemetry.RecordCacheLookup(ctx, "badges", telemetry.CacheMiss)
	} else {
		telemetry.RecordCacheLookup(ctx, "badges", telemetry.CacheBypass)
	}

	// Concurrent misses for the same identity share one upstream fetch.
	b, shared, err := s.flight.Do(ctx, key, func(ctx context.Context) (batch, error) {
		return s.refresh(ctx, key, identity)
	})
	if err != nil {
		flight.ForgetOnError(&s.flight, key, err)
		s.logger.Warn("badge fetch failed, looking for fallback", "identity", identity, "error", err)
		return s.fallback(ctx, key, identity, err)
	}

	return &Result{Certifications: b.Certifications, LastUpdated: b.LastUpdated, Cached: shared}, nil
}

// refresh performs the upstream fetch, classification, caching, and snapshot
// persistence for one identity.
func (s *Service) refresh(ctx context.Context, key, identity string) (batch, error) {
	start := s.now()
	badges, err := s.upstream.FetchBadges(ctx, identity)
	if err != nil {
		telemetry.RecordUpstreamFetch(ctx, "badges", "error", time.Since(start))
		return batch{}, err
	}
	telemetry.RecordUpstreamFetch(ctx, "badges", "ok", time.Since(start))

	certs := s.processBadges(badges)
	b := batch{Certifications: certs, LastUpdated: s.now()}
	s.cache.Set(key, b, s.ttl)

	if _, err := s.store.SaveCertifications(ctx, identity, certs); err != nil {
		// The in-memory batch is still good; losing the durable snapshot
		// only weakens the restart fallback.
		s.logger.Error("persisting badge snapshot failed", "identity", identity, "error", err)
	}

	return b, nil
}

// Invalidate drops the cached batch for identity.
func (s *Service) Invalidate(identity string) {
	s.cache.Delete(cacheKey(identity))
}

// fallback serves the stale in-memory batch, then the persisted snapshot,
// and finally surfaces the upstream error.
func (s *Service) fallback(ctx context.Context, key, identity string, cause error) (*Result, error) {
	if b, ok := s.cache.GetStale(key); ok {
		s.logger.Info("serving stale badge batch", "identity", identity)
		return &Result{Certifications: b.Certifications, LastUpdated: b.LastUpdated, Cached: true, Stale: true}, nil
	}

	snap, err := s.store.Certifications(ctx)
	if err == nil && snap.Identity == identity {
		s.logger.Info("serving persisted badge snapshot", "identity", identity)
		return &Result{Certifications: snap.Certifications, LastUpdated: snap.LastUpdated, Cached: true, Stale: true}, nil
	}
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		s.logger.Error("reading badge snapshot failed", "error", err)
	}

	return nil, fmt.Errorf("fetching badges for %s: %w", identity, cause)
}

// processBadges filters the raw batch and derives certifications.
// Malformed badges are dropped with a warning; a batch with zero valid
// entries is a valid empty result.
func (s *Service) processBadges(badges []Badge) []content.Certification {
	certs := make([]content.Certification, 0, len(badges))

	for _, b := range badges {
		if !b.complete() {
			s.logger.Warn("dropping incomplete badge", "id", b.ID, "state", b.State)
			continue
		}

		issuedAt, err := parseBadgeTime(b.IssuedAt)
		if err != nil {
			s.logger.Warn("dropping badge with unparsable issue date", "id", b.ID, "issued_at", b.IssuedAt)
			continue
		}

		entity := b.issuerEntity()
		class := Classify(b.BadgeTemplate.Name, entity.Name, s.rules)

		cert := content.Certification{
			ID:          b.ID,
			Name:        b.BadgeTemplate.Name,
			Issuer:      entity.Name,
			IssuerURL:   issuerURL(entity),
			Date:        strconv.Itoa(issuedAt.Year()),
			ImageURL:    firstNonEmpty(b.ImageURL, b.BadgeTemplate.ImageURL),
			Description: b.BadgeTemplate.Description,
			BadgeURL:    s.upstream.BadgeURL(b.ID),
			Category:    class.Category,
			Level:       class.Level,
			Color:       class.Color,
		}

		if b.ExpiresAt != "" {
			if expires, err := parseBadgeTime(b.ExpiresAt); err == nil {
				cert.ExpiresAt = expires
			}
		}

		certs = append(certs, cert)
	}

	return certs
}

func issuerURL(e Entity) string {
	return firstNonEmpty(e.VanityURL, e.URL, "#")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// badgeTimeLayouts are the timestamp shapes seen in upstream responses.
var badgeTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

func parseBadgeTime(value string) (time.Time, error) {
	for _, layout := range badgeTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
