package github

import (
	"context"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"
)

const (
	// authenticatedQuota is GitHub's authenticated hourly rate limit.
	authenticatedQuota = 5000

	// proactiveRate throttles outbound calls well under the quota.
	proactiveRate = 1.2

	// minBuffer is the remaining-request reserve; below it we wait for reset.
	minBuffer = 100
)

// rateLimiter combines proactive token-bucket throttling with reactive
// tracking of GitHub's rate-limit response metadata.
type rateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	bucket    *rate.Limiter
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		remaining: authenticatedQuota,
		limit:     authenticatedQuota,
		bucket:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
	}
}

// wait blocks until a request may be sent.
func (r *rateLimiter) wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetAt := r.resetAt
	r.mu.Unlock()

	if remaining < minBuffer && time.Now().Before(resetAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetAt)):
		}
	}
	return nil
}

// update records the rate-limit state reported by a response.
func (r *rateLimiter) update(resp *gh.Response) {
	if resp == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = resp.Rate.Remaining
	r.limit = resp.Rate.Limit
	r.resetAt = resp.Rate.Reset.Time
}

func (r *rateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

func (r *rateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

func (r *rateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}
