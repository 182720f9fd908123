// Package linkcheck verifies links: it applies ignore and replacement
// rules, resolves each link to a target, probes it with retries and
// classifies the outcome, memoizing results for the whole run.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/boillodmanuel/markdown-link-check/cache"
	"github.com/boillodmanuel/markdown-link-check/checker"
	"github.com/boillodmanuel/markdown-link-check/config"
	"github.com/boillodmanuel/markdown-link-check/extract"
	"github.com/boillodmanuel/markdown-link-check/metrics"
	"github.com/boillodmanuel/markdown-link-check/pattern"
	"github.com/boillodmanuel/markdown-link-check/resolve"
	"github.com/boillodmanuel/markdown-link-check/result"
)

// ErrInternal marks a run-level failure that may have left links without a
// result.
var ErrInternal = errors.New("internal error")

// Engine verifies links. It is safe for concurrent use.
type Engine struct {
	rules       *pattern.Rules
	resolver    *resolve.Resolver
	checkers    map[resolve.Protocol]checker.Checker
	policy      RetryPolicy
	alive       map[int]bool
	concurrency int
	cache       *cache.Cache
	inflight    singleflight.Group
	logger      *slog.Logger
	metrics     *metrics.Metrics
	progress    chan<- Event
	client      *http.Client
}

// Option customizes an Engine.
type Option func(*Engine)

// WithChecker replaces the checker used for protocol p.
func WithChecker(p resolve.Protocol, c checker.Checker) Option {
	return func(e *Engine) { e.checkers[p] = c }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records check, retry and cache metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCache shares c instead of a private cache.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithProgress sends an Event to ch for every verified link.
func WithProgress(ch chan<- Event) Option {
	return func(e *Engine) { e.progress = ch }
}

// WithHTTPClient sets the client the default HTTP checker builds on.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.client = c }
}

// New builds an Engine for opts. Malformed options are reported as a
// *config.Error before any link is checked.
func New(opts config.Options, deps ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rules, err := pattern.Compile(opts.IgnorePatterns, opts.ReplacementPatterns)
	if err != nil {
		return nil, err
	}
	resolver, err := resolve.New(opts.BaseURL, opts.HTTPHeaders)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		rules:       rules,
		resolver:    resolver,
		checkers:    make(map[resolve.Protocol]checker.Checker),
		policy:      PolicyFromOptions(opts),
		concurrency: opts.Concurrency,
		logger:      slog.Default(),
	}
	if e.concurrency <= 0 {
		e.concurrency = config.DefaultConcurrency
	}
	if len(opts.AliveStatusCodes) > 0 {
		e.alive = make(map[int]bool, len(opts.AliveStatusCodes))
		for _, code := range opts.AliveStatusCodes {
			e.alive[code] = true
		}
	}

	for _, dep := range deps {
		dep(e)
	}
	if e.cache == nil {
		e.cache = cache.New(nil)
	}
	e.defaultCheckers(opts)

	return e, nil
}

// defaultCheckers fills in a checker for every protocol not injected.
func (e *Engine) defaultCheckers(opts config.Options) {
	if _, ok := e.checkers[resolve.ProtocolHTTP]; !ok {
		httpOpts := checker.HTTPOptions{
			Client:       e.client,
			Timeout:      opts.TimeoutDuration(),
			MaxRedirects: opts.MaxRedirects,
			UserAgent:    opts.UserAgent,
			Logger:       e.logger,
		}
		if opts.RateLimit > 0 {
			httpOpts.Limiter = checker.NewAdaptiveLimiter(opts.RateLimit, time.Second)
		}
		if opts.RespectRobotsTxt {
			httpOpts.Robots = checker.NewRobotsChecker(&http.Client{Timeout: 5 * time.Second})
		}
		e.checkers[resolve.ProtocolHTTP] = checker.NewHTTPChecker(httpOpts)
	}
	if _, ok := e.checkers[resolve.ProtocolFile]; !ok {
		fc := &checker.FileChecker{}
		if opts.CheckAnchors {
			fc.Anchors = extract.Anchors
		}
		e.checkers[resolve.ProtocolFile] = fc
	}
	if _, ok := e.checkers[resolve.ProtocolMail]; !ok {
		e.checkers[resolve.ProtocolMail] = checker.MailChecker{}
	}
}

// Cache returns the cache backing the engine.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// verdict is what a single-flight verification hands to every waiter.
type verdict struct {
	result result.LinkResult
	hit    bool
}

// Verify produces the final result of link within document context rc. The
// error is non-nil only when ctx is done or the run cannot continue; a link
// that merely fails is reported through the result.
func (e *Engine) Verify(ctx context.Context, link result.Link, rc resolve.Context) (result.LinkResult, error) {
	if err := ctx.Err(); err != nil {
		return result.LinkResult{}, err
	}

	ignored, effective := e.rules.Classify(link.Raw)
	if ignored {
		r := result.LinkResult{Link: link.Raw, Line: link.Line, Status: result.StatusIgnored}
		e.metrics.Link(string(r.Status))
		return r, nil
	}

	id := identity(effective, rc)
	if r, ok := e.cache.Get(id); ok {
		return e.finish(link, r, true), nil
	}

	led := false
	v, err, _ := e.inflight.Do(id, func() (any, error) {
		led = true
		// A result may have landed between the lookup above and this call.
		if r, ok := e.cache.Get(id); ok {
			return verdict{result: r, hit: true}, nil
		}
		r, err := e.check(ctx, effective, rc)
		if err != nil {
			return nil, err
		}
		stored, inserted := e.cache.Store(id, r)
		if !inserted {
			e.logger.Debug("duplicate check discarded", "link", effective)
		}
		return verdict{result: stored, hit: !inserted}, nil
	})
	if err != nil {
		return result.LinkResult{}, err
	}

	if !led {
		r, ok := e.cache.Get(id)
		if !ok {
			return result.LinkResult{}, fmt.Errorf("%w: result for %q missing from cache", ErrInternal, effective)
		}
		return e.finish(link, r, true), nil
	}
	vd := v.(verdict)
	return e.finish(link, vd.result, vd.hit), nil
}

// finish stamps a cached or fresh result with the caller's link and source
// position.
func (e *Engine) finish(link result.Link, r result.LinkResult, hit bool) result.LinkResult {
	r.Link = link.Raw
	r.Line = link.Line
	r.Cache = result.CacheMiss
	if hit {
		r.Cache = result.CacheHit
	}
	e.metrics.CacheLookup(hit)
	e.metrics.Link(string(r.Status))
	return r
}

// identity keys the cache. Relative links resolve differently per document,
// so their resolution context is part of the key.
func identity(effective string, rc resolve.Context) string {
	if resolve.Absolute(effective) {
		return effective
	}
	return strings.Join([]string{effective, rc.BaseURL, rc.BaseDir, rc.DocumentDir, rc.Document}, "\x00")
}

// check resolves effective and probes it until the retry policy gives up.
func (e *Engine) check(ctx context.Context, effective string, rc resolve.Context) (result.LinkResult, error) {
	target, err := e.resolver.Resolve(effective, rc)
	if err != nil {
		return result.LinkResult{
			Status:        result.StatusError,
			Err:           err.Error(),
			ErrorCategory: result.CategoryUnsupported,
		}, nil
	}

	chk, ok := e.checkers[target.Protocol]
	if !ok {
		return result.LinkResult{}, fmt.Errorf("%w: no checker for protocol %q", ErrInternal, target.Protocol)
	}

	for attempt := 1; ; attempt++ {
		done := e.metrics.Inflight()
		start := time.Now()
		out := chk.Check(ctx, target)
		e.metrics.ObserveCheck(string(target.Protocol), out.StatusCode, time.Since(start))
		done()

		if err := ctx.Err(); err != nil {
			return result.LinkResult{}, err
		}

		retry, delay := ShouldRetry(out, attempt, e.policy)
		if !retry {
			return e.classify(out, attempt-1), nil
		}

		e.logger.Debug("retrying link",
			"link", effective,
			"attempt", attempt,
			"status", out.StatusCode,
			"delay", delay,
		)
		e.metrics.Retry()
		if err := sleep(ctx, delay); err != nil {
			return result.LinkResult{}, err
		}
	}
}

func (e *Engine) isAlive(code int) bool {
	if e.alive != nil {
		return e.alive[code]
	}
	return code >= 200 && code < 400
}

// classify turns the final outcome of a link into its result.
func (e *Engine) classify(out checker.Outcome, retries int) result.LinkResult {
	r := result.LinkResult{StatusCode: out.StatusCode, Retries: retries}

	if out.StatusCode != 0 && e.isAlive(out.StatusCode) {
		r.Status = result.StatusAlive
		return r
	}

	var kind checker.ErrorKind
	if out.Err != nil {
		kind = out.Err.Kind
		r.Err = out.Err.Error()
		if retries > 0 {
			r.Err = fmt.Sprintf("%s (after %d attempts)", r.Err, retries+1)
		}
	}

	switch {
	case kind == checker.KindRedirectLoop:
		r.Status = result.StatusDead
		r.StatusCode = 0
		if len(out.Redirects) > 0 {
			r.AdditionalMessages = []string{"redirect chain: " + strings.Join(out.Redirects, " -> ")}
		}
	case kind == checker.KindDisallowed:
		r.Status = result.StatusIgnored
		r.Err = ""
		r.AdditionalMessages = []string{"disallowed by robots.txt"}
		return r
	case out.Err != nil && out.StatusCode == 0:
		r.Status = result.StatusError
	default:
		r.Status = result.StatusDead
	}
	r.ErrorCategory = category(kind, out)
	return r
}

func category(kind checker.ErrorKind, out checker.Outcome) result.ErrorCategory {
	switch kind {
	case checker.KindTimeout:
		return result.CategoryTimeout
	case checker.KindDNS:
		return result.CategoryDNSFailure
	case checker.KindConnectionRefused:
		return result.CategoryConnectionRefused
	case checker.KindNotFound:
		return result.CategoryNotFound
	case checker.KindInvalidAddress:
		return result.CategoryInvalidAddress
	}
	var err error
	if out.Err != nil {
		err = out.Err
	}
	return result.ClassifyError(err, out.StatusCode, kind == checker.KindRedirectLoop)
}
