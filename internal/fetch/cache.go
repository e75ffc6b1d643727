package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "markup:"

// Inner mirrors the scraper-side Fetcher contract without importing it.
type Inner interface {
	FetchMarkup(ctx context.Context, url, credential string) (string, error)
}

// CachedFetcher puts a Redis cache in front of the proxy client so a
// repeated identifier costs one proxy credit per TTL window. Cache
// failures are logged and ignored: Redis being down must not break
// fetching.
type CachedFetcher struct {
	inner  Inner
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedFetcher(inner Inner, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "markup_cache"),
	}
}

func (f *CachedFetcher) FetchMarkup(ctx context.Context, url, credential string) (string, error) {
	key := cacheKeyPrefix + url

	if html, err := f.client.Get(ctx, key).Result(); err == nil && html != "" {
		f.logger.Debug("markup cache hit", "url", url)
		return html, nil
	} else if err != nil && err != redis.Nil {
		f.logger.Warn("markup cache read failed", "url", url, "error", err)
	}

	html, err := f.inner.FetchMarkup(ctx, url, credential)
	if err != nil {
		return "", err
	}

	if err := f.client.Set(ctx, key, html, f.ttl).Err(); err != nil {
		f.logger.Warn("markup cache write failed", "url", url, "error", err)
	}

	return html, nil
}
