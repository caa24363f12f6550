// Package feed ingests articles from an RSS/Atom feed and derives portfolio
// project records from them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultTimeout is the default timeout for feed retrieval.
const DefaultTimeout = 30 * time.Second

// ErrFeed is returned when the feed cannot be retrieved or parsed.
var ErrFeed = errors.New("feed error")

// Upstream retrieves and parses a syndication feed.
type Upstream struct {
	parser *gofeed.Parser
}

// UpstreamOption configures an Upstream.
type UpstreamOption func(*Upstream)

// WithHTTPClient sets a custom HTTP client for feed retrieval.
func WithHTTPClient(client *http.Client) UpstreamOption {
	return func(u *Upstream) {
		u.parser.Client = client
	}
}

// NewUpstream creates a new feed client.
func NewUpstream(opts ...UpstreamOption) *Upstream {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: DefaultTimeout}
	parser.UserAgent = "portfolio-content/1.0"

	u := &Upstream{parser: parser}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Fetch retrieves and parses the feed at feedURL.
// Unreachable feeds and non-XML responses wrap ErrFeed.
func (u *Upstream) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	feed, err := u.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrFeed, feedURL, err)
	}
	return feed, nil
}
