package client

import (
	"context"
	"time"
)

// DefaultQuotaMax is the submissions ceiling inside the rolling window.
const DefaultQuotaMax = 3

// DefaultQuotaWindow is the rolling window over which submissions count.
const DefaultQuotaWindow = 24 * time.Hour

// RateLimiter performs the advisory quota check: count the author's marks in
// the rolling window and compare against the ceiling.
//
// The check is advisory by contract. It races with concurrent writers, its
// own author included: a second device submitting between check and append
// can overshoot the ceiling by one. Callers re-check right before writing to
// narrow, not close, that window.
type RateLimiter struct {
	store  GeoStore
	max    int
	window time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewRateLimiter builds a limiter over the store with the default policy.
func NewRateLimiter(store GeoStore) *RateLimiter {
	return &RateLimiter{store: store, max: DefaultQuotaMax, window: DefaultQuotaWindow, now: time.Now}
}

// NewRateLimiterWithPolicy builds a limiter with an explicit ceiling and window.
func NewRateLimiterWithPolicy(store GeoStore, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, max: max, window: window, now: time.Now}
}

// CheckQuota reports whether authorID may submit and how many submissions
// remain. An empty authorID means the caller is not authenticated: the
// answer is a flat denial without touching the store.
func (rl *RateLimiter) CheckQuota(ctx context.Context, authorID string) (QuotaStatus, error) {
	if authorID == "" {
		return QuotaStatus{Allowed: false, Remaining: 0}, nil
	}

	since := rl.now().UTC().Add(-rl.window)
	// The query is capped at the ceiling: counting past it changes nothing.
	recent, err := rl.store.QueryByAuthorSince(ctx, authorID, since, rl.max)
	if err != nil {
		return QuotaStatus{}, &ReadError{Err: err}
	}

	remaining := rl.max - len(recent)
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{Allowed: remaining > 0, Remaining: remaining}, nil
}

// Max exposes the configured ceiling.
func (rl *RateLimiter) Max() int { return rl.max }
