package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

var ErrFetchFailed = errors.New("failed to fetch product page")

// UserAgentResolver supplies the User-Agent for proxy requests.
type UserAgentResolver interface {
	ResolveUserAgent(ctx context.Context) string
}

type Options struct {
	ProxyURL   string
	Country    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client fetches raw page markup through an HTML proxy service
// (ScrapeOps-style: GET <proxy>?api_key=…&url=…&country=…).
type Client struct {
	opts       Options
	httpClient *http.Client
	resolver   UserAgentResolver
	limiter    *Limiter
	logger     *slog.Logger
}

func NewClient(opts Options, resolver UserAgentResolver, limiter *Limiter, logger *slog.Logger) *Client {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		resolver:   resolver,
		limiter:    limiter,
		logger:     logger.With("component", "fetch_client"),
	}
}

// FetchMarkup retrieves one product page via the proxy, retrying transient
// failures with a fixed delay. The credential is passed per call: it
// belongs to the caller, not the client.
func (c *Client) FetchMarkup(ctx context.Context, pageURL, credential string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		html, err := c.fetchOnce(ctx, pageURL, credential)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		c.logger.Warn("fetch attempt failed", "url", pageURL, "attempt", attempt, "error", err)
		if attempt < c.opts.MaxRetries && c.opts.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.opts.RetryDelay):
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrFetchFailed, c.opts.MaxRetries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, pageURL, credential string) (string, error) {
	u, err := url.Parse(c.opts.ProxyURL)
	if err != nil {
		return "", fmt.Errorf("invalid proxy URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", credential)
	q.Set("url", pageURL)
	q.Set("country", c.opts.Country)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.resolver.ResolveUserAgent(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("proxy returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
