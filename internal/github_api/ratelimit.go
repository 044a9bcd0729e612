package githubapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// IsThrottled reports whether status means the API refused for rate reasons.
func IsThrottled(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// ResetTime computes when a throttled API accepts requests again.
// Retry-After (delta seconds or HTTP date) wins over X-RateLimit-Reset
// (epoch seconds); with neither the reset is now+fallback.
func ResetTime(h http.Header, now time.Time, fallback time.Duration) time.Time {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs >= 0 {
			return now.Add(time.Duration(secs) * time.Second)
		}
		if t, err := http.ParseTime(v); err == nil {
			return t
		}
	}
	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(ts, 0)
		}
	}
	return now.Add(fallback)
}
