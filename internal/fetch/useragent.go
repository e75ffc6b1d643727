package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// FallbackUserAgent is used whenever the header service is unreachable;
// fetches must proceed regardless.
const FallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// HeaderResolver fetches a rotating browser user-agent from the proxy
// provider's header service. The first successful result is cached for
// the resolver's lifetime.
type HeaderResolver struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger

	mu     sync.Mutex
	cached string
}

func NewHeaderResolver(endpoint, apiKey string, logger *slog.Logger) *HeaderResolver {
	return &HeaderResolver{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With("component", "header_resolver"),
	}
}

// ResolveUserAgent is best-effort: any failure falls back to the fixed
// user-agent string.
func (r *HeaderResolver) ResolveUserAgent(ctx context.Context) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != "" {
		return r.cached
	}

	ua, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn("header service unavailable, using fallback user-agent", "error", err)
		return FallbackUserAgent
	}

	r.cached = ua
	return ua
}

func (r *HeaderResolver) fetch(ctx context.Context) (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid header endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", r.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("header service returned %s", resp.Status)
	}

	var payload struct {
		Result []string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode header response: %w", err)
	}
	if len(payload.Result) == 0 || payload.Result[0] == "" {
		return "", fmt.Errorf("header service returned no user agents")
	}

	return payload.Result[0], nil
}
