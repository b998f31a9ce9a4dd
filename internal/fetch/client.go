package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultUserAgent is browser-like because a couple of the source
// hosts reject the Go default.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// Stats counts cache outcomes for a client's lifetime.
type Stats struct {
	Hits    int
	Misses  int
	Stored  int
	Fetched int
}

// Client is the shared HTTP client for all source providers. Every
// network fetch passes through the token bucket limiter; cache hits
// short-circuit it.
type Client struct {
	httpClient *http.Client
	cache      *Cache
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewClient creates a fetch client with rate limiting. requestsPerMinute
// bounds actual network traffic, not cache reads. cache may be nil for
// an uncached client.
func NewClient(cache *Cache, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		userAgent:  defaultUserAgent,
		logger:     logger,
	}
}

// SetUserAgent overrides the User-Agent header for subsequent fetches.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// Text fetches a URL as text, consulting the cache per the policy.
func (c *Client) Text(ctx context.Context, rawURL string, p Policy) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	if c.cache != nil {
		if data, ok := c.cache.Get(u, p); ok {
			c.count(func(s *Stats) { s.Hits++ })
			c.logger.Debug("Cache hit", "url", rawURL)
			return string(data), nil
		}
	}
	c.count(func(s *Stats) { s.Misses++ })

	body, err := c.fetch(ctx, u)
	if err != nil {
		return "", err
	}

	if c.cache != nil && !p.noStore {
		if err := c.cache.Put(u, body); err != nil {
			return "", err
		}
		c.count(func(s *Stats) { s.Stored++ })
	}
	return string(body), nil
}

// fetch performs a rate-limited GET request.
func (c *Client) fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Fetching", "url", u.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s returned %d: %s", u.Host, u.Path, resp.StatusCode, truncate(body, 200))
	}

	c.count(func(s *Stats) { s.Fetched++ })
	return body, nil
}

// Stats returns a snapshot of the cache counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Client) count(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
