package inline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// Fetcher loads a remote image.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (body []byte, contentType string, err error)
}

// HTTPFetcher fetches images over HTTP. Credential headers are attached only
// to requests for the configured origin. There is no timeout and no retry;
// cancel ctx to abandon a stalled fetch.
type HTTPFetcher struct {
	client      *http.Client
	origin      *url.URL
	credentials http.Header
	limiter     *rate.Limiter
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithOrigin sets the origin that counts as same-origin.
func WithOrigin(u *url.URL) FetcherOption {
	return func(f *HTTPFetcher) {
		f.origin = u
	}
}

// WithCredentials sets headers (cookies, authorization) sent to same-origin requests.
func WithCredentials(h http.Header) FetcherOption {
	return func(f *HTTPFetcher) {
		f.credentials = h.Clone()
	}
}

// WithRateLimit caps outgoing fetches at rps requests per second.
// A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) FetcherOption {
	return func(f *HTTPFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPFetcher creates a fetcher using http.DefaultClient unless configured.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and returns the body with its Content-Type.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/*")
	if f.sameOrigin(req.URL) {
		for k, vs := range f.credentials {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to load resource: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (f *HTTPFetcher) sameOrigin(u *url.URL) bool {
	if f.origin == nil || u == nil {
		return false
	}
	return strings.EqualFold(f.origin.Scheme, u.Scheme) && strings.EqualFold(f.origin.Host, u.Host)
}
