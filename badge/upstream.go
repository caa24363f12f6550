package badge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Credly endpoint.
	DefaultBaseURL = "https://www.credly.com"

	// DefaultTimeout is the default timeout for upstream requests.
	DefaultTimeout = 30 * time.Second

	userAgent = "portfolio-content/1.0 (+https://github.com/jfernandes/portfolio-content)"
)

// ErrUpstream is returned when the badge service is unreachable or returns
// a malformed response.
var ErrUpstream = errors.New("badge upstream error")

// Upstream fetches badges from the external credentialing service.
type Upstream struct {
	baseURL string
	client  *http.Client
}

// UpstreamOption configures an Upstream.
type UpstreamOption func(*Upstream)

// WithBaseURL sets the upstream service base URL.
func WithBaseURL(u string) UpstreamOption {
	return func(up *Upstream) {
		up.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) UpstreamOption {
	return func(up *Upstream) {
		up.client = client
	}
}

// NewUpstream creates a new badge service client.
func NewUpstream(opts ...UpstreamOption) *Upstream {
	u := &Upstream{
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// FetchBadges fetches the public badge listing for the given identity.
// Non-success responses and undecodable bodies wrap ErrUpstream.
func (u *Upstream) FetchBadges(ctx context.Context, identity string) ([]Badge, error) {
	endpoint := fmt.Sprintf("%s/users/%s/badges.json", u.baseURL, url.PathEscape(identity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: performing request: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}

	return list.Data, nil
}

// BadgeURL returns the deterministic public URL for a badge id.
func (u *Upstream) BadgeURL(id string) string {
	return fmt.Sprintf("%s/badges/%s", u.baseURL, id)
}
