package fetch

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInner struct {
	html  string
	err   error
	calls int
}

func (f *countingInner) FetchMarkup(ctx context.Context, url, credential string) (string, error) {
	f.calls++
	return f.html, f.err
}

func TestCachedFetcherSurvivesUnreachableRedis(t *testing.T) {
	// Nothing listens on this port; every cache operation fails and the
	// inner fetcher must still be consulted.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	inner := &countingInner{html: "<html>live</html>"}
	f := NewCachedFetcher(inner, client, 0, slog.Default())

	html, err := f.FetchMarkup(context.Background(), "https://www.amazon.com/dp/B0EXAMPLE1", "secret-key")
	require.NoError(t, err)
	assert.Equal(t, "<html>live</html>", html)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedFetcherPropagatesInnerError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	innerErr := errors.New("proxy down")
	f := NewCachedFetcher(&countingInner{err: innerErr}, client, 0, slog.Default())

	_, err := f.FetchMarkup(context.Background(), "https://www.amazon.com/dp/B0EXAMPLE1", "secret-key")
	assert.ErrorIs(t, err, innerErr)
}
