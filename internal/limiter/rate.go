package limiter

import (
	"context"
	"sync"
	"time"
)

// RateLimiter allows at most maxRequests within any sliding window.
type RateLimiter struct {
	requestTimes []time.Time
	maxRequests  int
	window       time.Duration
	now          func() time.Time
	mu           sync.Mutex
}

func NewRateLimiter(maxRequests int) *RateLimiter {
	return NewRateLimiterWindow(maxRequests, time.Second)
}

func NewRateLimiterWindow(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &RateLimiter{
		requestTimes: make([]time.Time, 0, maxRequests),
		maxRequests:  maxRequests,
		window:       window,
		now:          time.Now,
	}
}

// Allow records a request and reports true if the window has room for it.
func (r *RateLimiter) Allow() bool {
	_, ok := r.reserve()
	return ok
}

// Wait blocks until a request is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve returns true when a slot was taken, otherwise how long until the
// oldest request leaves the window.
func (r *RateLimiter) reserve() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	windowStart := now.Add(-r.window)

	// Drop requests older than the window
	validTimes := r.requestTimes[:0]
	for _, t := range r.requestTimes {
		if t.After(windowStart) {
			validTimes = append(validTimes, t)
		}
	}
	r.requestTimes = validTimes

	if len(r.requestTimes) < r.maxRequests {
		r.requestTimes = append(r.requestTimes, now)
		return 0, true
	}

	wait := r.requestTimes[0].Sub(windowStart)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}
