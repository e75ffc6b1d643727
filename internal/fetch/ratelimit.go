package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces proxy calls out with a jittered delay so a batch does
// not hammer the proxy's per-second quota.
type Limiter struct {
	minDelay time.Duration
	maxDelay time.Duration
	last     time.Time
	mu       sync.Mutex
}

func NewLimiter(minDelay, maxDelay time.Duration) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{minDelay: minDelay, maxDelay: maxDelay}
}

func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.minDelay
	if jitter := l.maxDelay - l.minDelay; jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}

	if elapsed := time.Since(l.last); elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.last = time.Now()
	return nil
}
