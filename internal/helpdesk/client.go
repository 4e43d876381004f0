// Package helpdesk scrapes Intercom-style helpdesk sites: collection
// discovery, per-collection article listings, and structured article
// content extraction.
package helpdesk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/Caia-Tech/caia-tuner/pkg/config"
	"github.com/Caia-Tech/caia-tuner/pkg/logging"
	"github.com/Caia-Tech/caia-tuner/pkg/ratelimit"
)

// maxResponseBytes caps how much of a page body is read. Helpdesk
// articles are small; anything larger is not an article.
const maxResponseBytes = 10 << 20

// Client fetches helpdesk pages politely: per-host rate limiting,
// browser-like headers, and retry with exponential backoff.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.HostLimiter
	userAgent  string
	maxRetries int
	logger     zerolog.Logger
}

// NewClient builds a client from scraping settings. The limiter is shared
// so every fetch through this client honors the same per-host spacing.
func NewClient(cfg config.ScrapingConfig, limiter *ratelimit.HostLimiter) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		logger:     logging.GetLogger("helpdesk-client"),
	}
}

// FetchPage retrieves one page, retrying transient failures with
// exponential backoff. Returns the page body as a string.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %s: %w", pageURL, err)
	}
	host := parsed.Host

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Warn().
				Str("url", pageURL).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying fetch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx, host); err != nil {
			return "", err
		}

		body, err := c.doRequest(ctx, pageURL)
		if err != nil {
			lastErr = err
			c.limiter.RecordError(host)
			continue
		}

		c.limiter.RecordSuccess(host)
		return body, nil
	}

	return "", fmt.Errorf("failed to fetch %s after %d attempts: %w", pageURL, c.maxRetries, lastErr)
}

func (c *Client) doRequest(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", pageURL, err)
	}
	return string(body), nil
}
