package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// robotsTTL bounds how long a host's robots.txt is trusted.
const robotsTTL = time.Hour

// maxRobotsSize caps how much of a robots.txt body is read.
const maxRobotsSize = 512 << 10

type robotsEntry struct {
	data      *robotstxt.RobotsData // nil means allow all
	fetchedAt time.Time
}

// RobotsChecker answers whether a URL may be fetched according to its host's
// robots.txt. Fetches are shared between concurrent callers for the same
// host and cached for an hour. Any fetch or parse failure allows the URL.
type RobotsChecker struct {
	client *http.Client
	cache  sync.Map // scheme://host -> *robotsEntry
	group  singleflight.Group
	now    func() time.Time
}

// NewRobotsChecker creates a RobotsChecker using client for robots.txt fetches.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{client: client, now: time.Now}
}

// Allowed reports whether userAgent may fetch rawURL. A non-nil error is
// informational; the returned decision is always usable.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return true, nil
	}

	origin := u.Scheme + "://" + u.Host
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	if v, ok := r.cache.Load(origin); ok {
		if e := v.(*robotsEntry); r.now().Sub(e.fetchedAt) < robotsTTL {
			return e.allows(path, userAgent), nil
		}
	}

	v, err, _ := r.group.Do(origin, func() (any, error) {
		data, fetchErr := r.fetch(ctx, origin)
		e := &robotsEntry{data: data, fetchedAt: r.now()}
		r.cache.Store(origin, e)
		return e, fetchErr
	})
	return v.(*robotsEntry).allows(path, userAgent), err
}

func (e *robotsEntry) allows(path, userAgent string) bool {
	if e.data == nil {
		return true
	}
	return e.data.TestAgent(path, userAgent)
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create robots.txt request for %s: %w", origin, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt for %s: %w", origin, err)
	}
	defer resp.Body.Close()

	// A missing robots.txt or a failing server allows everything.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt for %s: %w", origin, err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt for %s: %w", origin, err)
	}
	return data, nil
}
