package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/boillodmanuel/markdown-link-check/config"
	"github.com/boillodmanuel/markdown-link-check/resolve"
	"github.com/boillodmanuel/markdown-link-check/urlutil"
)

// maxDrain is how much of a response body is read before closing it, so the
// connection can be reused.
const maxDrain = 64 << 10

// HTTPOptions configures an HTTPChecker.
type HTTPOptions struct {
	Client       *http.Client     // Base client; its redirect policy is overridden
	Timeout      time.Duration    // Per-check timeout (default 10s)
	MaxRedirects int              // Redirect hops followed before giving up (default 10)
	UserAgent    string           // User-Agent header sent with every probe
	Limiter      *AdaptiveLimiter // Optional per-host pacing
	Robots       *RobotsChecker   // Optional robots.txt enforcement
	Logger       *slog.Logger
}

// HTTPChecker probes http and https targets.
type HTTPChecker struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
	userAgent    string
	limiter      *AdaptiveLimiter
	robots       *RobotsChecker
	logger       *slog.Logger
}

// NewHTTPChecker creates an HTTPChecker. Redirects are never followed by the
// client itself so that loops can be detected per check.
func NewHTTPChecker(opts HTTPOptions) *HTTPChecker {
	client := &http.Client{}
	if opts.Client != nil {
		c := *opts.Client
		client = &c
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = config.DefaultMaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &HTTPChecker{
		client:       client,
		timeout:      opts.Timeout,
		maxRedirects: opts.MaxRedirects,
		userAgent:    opts.UserAgent,
		limiter:      opts.Limiter,
		robots:       opts.Robots,
		logger:       opts.Logger,
	}
}

// headFallback lists HEAD statuses that servers commonly return for HEAD
// alone; the same hop is then probed again with GET.
var headFallback = map[int]bool{
	http.StatusBadRequest:       true,
	http.StatusForbidden:        true,
	http.StatusNotFound:         true,
	http.StatusMethodNotAllowed: true,
	http.StatusNotAcceptable:    true,
	http.StatusNotImplemented:   true,
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Check probes target.Location, following redirects.
func (c *HTTPChecker) Check(ctx context.Context, target resolve.Target) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.robots != nil {
		allowed, err := c.robots.Allowed(ctx, target.Location, c.userAgent)
		if err != nil {
			c.logger.Debug("robots.txt unavailable", "url", target.Location, "error", err)
		}
		if !allowed {
			return Failed(0, KindDisallowed, errors.New("disallowed by robots.txt"))
		}
	}

	current := target.Location
	visited := map[string]bool{current: true}
	var redirects []string

	for {
		resp, err := c.probe(ctx, current, target.Headers)
		if err != nil {
			out := transportFailure(err)
			out.Redirects = redirects
			return out
		}

		location := resp.Header.Get("Location")
		if !isRedirect(resp.StatusCode) || location == "" {
			return Outcome{
				StatusCode: resp.StatusCode,
				Redirects:  redirects,
				RetryAfter: resp.Header.Get("Retry-After"),
			}
		}

		next, err := nextHop(current, location)
		if err != nil {
			// An unusable Location header leaves the redirect response final.
			return Outcome{StatusCode: resp.StatusCode, Redirects: redirects}
		}
		if visited[next] || len(redirects) >= c.maxRedirects {
			out := Failed(0, KindRedirectLoop, fmt.Errorf("redirect loop detected at %s", next))
			out.Redirects = append(redirects, next)
			return out
		}
		visited[next] = true
		redirects = append(redirects, next)
		c.logger.Debug("following redirect", "from", current, "to", next, "status", resp.StatusCode)
		current = next
	}
}

// probeResponse is the part of a response a probe needs once the body is
// closed.
type probeResponse struct {
	StatusCode int
	Header     http.Header
}

// probe issues HEAD, then GET when the HEAD status is unreliable.
func (c *HTTPChecker) probe(ctx context.Context, rawURL string, headers http.Header) (probeResponse, error) {
	resp, err := c.do(ctx, http.MethodHead, rawURL, headers)
	if err != nil || !headFallback[resp.StatusCode] {
		return resp, err
	}
	c.logger.Debug("HEAD rejected, retrying with GET", "url", rawURL, "status", resp.StatusCode)
	return c.do(ctx, http.MethodGet, rawURL, headers)
}

func (c *HTTPChecker) do(ctx context.Context, method, rawURL string, headers http.Header) (probeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return probeResponse{}, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = append([]string(nil), v...)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	host := req.URL.Host
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, host); err != nil {
			return probeResponse{}, err
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.limiter != nil {
		c.limiter.Observe(host, time.Since(start))
	}
	if err != nil {
		return probeResponse{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	c.logger.Debug("probe", "method", method, "url", rawURL, "status", resp.StatusCode)
	return probeResponse{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// nextHop resolves a Location header against the URL that returned it.
func nextHop(current, location string) (string, error) {
	next, err := urlutil.ResolveReference(current, location)
	if err != nil {
		return "", err
	}
	if !urlutil.IsHTTPScheme(next) {
		return "", fmt.Errorf("redirect to non-http location %q", next)
	}
	return urlutil.Normalize(next)
}
