package linkcheck

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/boillodmanuel/markdown-link-check/checker"
	"github.com/boillodmanuel/markdown-link-check/config"
)

// RetryPolicy configures when a failed check attempt is repeated.
type RetryPolicy struct {
	RetryOn429         bool          // Retry 429 responses, honoring Retry-After
	RetryOnError       bool          // Retry transient network failures and 5xx responses
	RetryCount         int           // Maximum number of retries (5 = 6 total attempts)
	FallbackRetryDelay time.Duration // Delay when the server gives no hint
}

// DefaultRetryPolicy returns a RetryPolicy with retries disabled and the
// default bound and delay: 5 retries, 60s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RetryCount:         config.DefaultRetryCount,
		FallbackRetryDelay: config.DefaultFallbackRetryDelay,
	}
}

// PolicyFromOptions builds the retry policy configured by opts. An unset
// retry count takes the default.
func PolicyFromOptions(opts config.Options) RetryPolicy {
	count := opts.RetryCount
	if count <= 0 {
		count = config.DefaultRetryCount
	}
	return RetryPolicy{
		RetryOn429:         opts.RetryOn429,
		RetryOnError:       opts.RetryOnError,
		RetryCount:         count,
		FallbackRetryDelay: opts.FallbackRetryDelayDuration(),
	}
}

// ShouldRetry decides whether the attempt that produced out is repeated and
// after which delay. attempt is the 1-based number of that attempt.
func ShouldRetry(out checker.Outcome, attempt int, policy RetryPolicy) (bool, time.Duration) {
	if attempt > policy.RetryCount {
		return false, 0
	}

	if policy.RetryOn429 && out.StatusCode == http.StatusTooManyRequests {
		if d, ok := ParseRetryAfter(out.RetryAfter, time.Now()); ok {
			return true, d
		}
		return true, policy.FallbackRetryDelay
	}

	if policy.RetryOnError && isRetryableOutcome(out) {
		return true, policy.FallbackRetryDelay
	}

	return false, 0
}

// isRetryableOutcome reports transient network failures and server errors.
func isRetryableOutcome(out checker.Outcome) bool {
	if out.Err != nil && out.Err.Kind.Transient() {
		return true
	}
	return out.StatusCode >= 500
}

// maxRetryAfterSeconds is the largest hint a time.Duration holds.
const maxRetryAfterSeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseRetryAfter reads a server retry hint: integer or decimal seconds, a
// Go duration such as "1m30s", or an HTTP date. Dates in the past give 0.
func ParseRetryAfter(hint string, now time.Time) (time.Duration, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(hint, 64); err == nil || math.IsInf(secs, 0) {
		if math.IsNaN(secs) || secs < 0 || secs >= maxRetryAfterSeconds {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if d, err := time.ParseDuration(hint); err == nil {
		if d < 0 {
			return 0, false
		}
		return d, true
	}
	if at, err := http.ParseTime(hint); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
