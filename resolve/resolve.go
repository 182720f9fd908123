// Package resolve classifies a link by protocol and turns it into a
// checkable target.
package resolve

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/boillodmanuel/markdown-link-check/config"
	"github.com/boillodmanuel/markdown-link-check/urlutil"
)

// ErrUnsupportedProtocol is returned for links no checker can handle.
var ErrUnsupportedProtocol = errors.New("unsupported protocol")

// Protocol tags a resolved target with the checker that handles it.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolFile Protocol = "file"
	ProtocolMail Protocol = "mail"
)

// Context is the per-document resolution context.
type Context struct {
	BaseURL     string // Base for relative links of a remote document, or the configured baseUrl
	BaseDir     string // Directory that root-relative ("/x") file links resolve against
	DocumentDir string // Directory of the document containing the link
	Document    string // Path of the document containing the link, for "#anchor" links
}

// Target is a link resolved to something a checker can probe.
type Target struct {
	Protocol Protocol
	Location string      // Absolute URL, filesystem path or mail address
	Fragment string      // Fragment of the original link, if any
	Headers  http.Header // Custom headers for HTTP targets
}

// bareAddress matches scheme-less mail addresses such as "foo@example.com".
var bareAddress = regexp.MustCompile(`^[^\s@/:#?]+@[^\s@/:#?]+$`)

type headerRule struct {
	prefixes []string
	headers  http.Header
}

// Resolver resolves links against a document's context. It is immutable and
// safe for concurrent use.
type Resolver struct {
	baseURL *url.URL
	headers []headerRule
}

// New builds a Resolver. baseURL, when set, overrides the base URL of every
// document. A malformed baseURL is returned as a *config.Error.
func New(baseURL string, headers []config.HTTPHeader) (*Resolver, error) {
	r := &Resolver{}
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, &config.Error{Field: "baseUrl", Err: err}
		}
		if !parsed.IsAbs() {
			return nil, &config.Error{Field: "baseUrl", Err: fmt.Errorf("%q is not an absolute URL", baseURL)}
		}
		r.baseURL = parsed
	}
	for _, h := range headers {
		rule := headerRule{headers: make(http.Header, len(h.Headers))}
		for _, prefix := range h.URLs {
			rule.prefixes = append(rule.prefixes, strings.ToLower(prefix))
		}
		for k, v := range h.Headers {
			rule.headers.Set(k, v)
		}
		r.headers = append(r.headers, rule)
	}
	return r, nil
}

// Resolve classifies link and produces its target. It returns
// ErrUnsupportedProtocol when no rule applies.
func (r *Resolver) Resolve(link string, ctx Context) (Target, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return Target{}, fmt.Errorf("empty link: %w", ErrUnsupportedProtocol)
	}

	scheme := urlutil.Scheme(link)

	if scheme == "mailto" {
		return Target{Protocol: ProtocolMail, Location: mailAddress(link[len("mailto:"):])}, nil
	}
	if scheme == "" && bareAddress.MatchString(link) {
		return Target{Protocol: ProtocolMail, Location: link}, nil
	}

	if scheme == "http" || scheme == "https" {
		return r.httpTarget(link, nil)
	}

	if scheme == "file" {
		return fileURLTarget(link)
	}

	if scheme == "" {
		if base := r.base(ctx); base != nil {
			if strings.EqualFold(base.Scheme, "file") {
				return fileBaseTarget(link, base)
			}
			return r.httpTarget(link, base)
		}
		if ctx.DocumentDir != "" || ctx.BaseDir != "" || ctx.Document != "" {
			return fileTarget(link, ctx)
		}
	}

	return Target{}, fmt.Errorf("%q: %w", link, ErrUnsupportedProtocol)
}

// base returns the configured base URL, else the document's own base URL.
func (r *Resolver) base(ctx Context) *url.URL {
	if r.baseURL != nil {
		return r.baseURL
	}
	if ctx.BaseURL == "" {
		return nil
	}
	parsed, err := url.Parse(ctx.BaseURL)
	if err != nil || !parsed.IsAbs() {
		return nil
	}
	return parsed
}

func (r *Resolver) httpTarget(link string, base *url.URL) (Target, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", link, ErrUnsupportedProtocol)
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	fragment := ref.Fragment
	normalized, err := urlutil.Normalize(ref.String())
	if err != nil {
		return Target{}, fmt.Errorf("%q: %v: %w", link, err, ErrUnsupportedProtocol)
	}
	return Target{
		Protocol: ProtocolHTTP,
		Location: normalized,
		Fragment: fragment,
		Headers:  r.headersFor(normalized),
	}, nil
}

// headersFor merges the headers of every rule with a prefix of target, in
// rule order; later rules win on key collisions.
func (r *Resolver) headersFor(target string) http.Header {
	var merged http.Header
	lower := strings.ToLower(target)
	for _, rule := range r.headers {
		for _, prefix := range rule.prefixes {
			if !strings.HasPrefix(lower, prefix) {
				continue
			}
			if merged == nil {
				merged = make(http.Header)
			}
			for k, v := range rule.headers {
				merged[k] = append([]string(nil), v...)
			}
			break
		}
	}
	return merged
}

func fileTarget(link string, ctx Context) (Target, error) {
	pathPart, fragment := urlutil.SplitFragment(link)
	if i := strings.IndexByte(pathPart, '?'); i >= 0 {
		pathPart = pathPart[:i]
	}
	decoded, err := url.PathUnescape(pathPart)
	if err != nil {
		return Target{}, fmt.Errorf("decode %q: %v: %w", link, err, ErrUnsupportedProtocol)
	}

	dir := ctx.DocumentDir
	if strings.HasPrefix(decoded, "/") && ctx.BaseDir != "" {
		dir = ctx.BaseDir
	}
	if dir == "" {
		dir = ctx.BaseDir
	}

	var location string
	switch {
	case decoded == "" && ctx.Document != "":
		// "#anchor" points at the containing document itself.
		location = ctx.Document
	case decoded == "":
		location = dir
	case filepath.IsAbs(decoded) && !strings.HasPrefix(decoded, "/"):
		location = filepath.Clean(decoded)
	default:
		location = filepath.Join(dir, filepath.FromSlash(decoded))
	}
	return Target{Protocol: ProtocolFile, Location: location, Fragment: fragment}, nil
}

func fileURLTarget(link string) (Target, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", link, ErrUnsupportedProtocol)
	}
	return fileURL(parsed), nil
}

// fileBaseTarget resolves a relative link against a file:// base URL.
func fileBaseTarget(link string, base *url.URL) (Target, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", link, ErrUnsupportedProtocol)
	}
	return fileURL(base.ResolveReference(ref)), nil
}

// fileURL maps a file:// URL to a local path. url.Parse has already
// decoded %xx escapes in Path; the query is dropped.
func fileURL(parsed *url.URL) Target {
	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}
	return Target{
		Protocol: ProtocolFile,
		Location: filepath.Clean(filepath.FromSlash(path)),
		Fragment: parsed.Fragment,
	}
}

// mailAddress strips an optional "?subject=..." query from a mailto target.
func mailAddress(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	return s
}

// Absolute reports whether link resolves the same way in every document:
// it carries a scheme or is a bare mail address.
func Absolute(link string) bool {
	link = strings.TrimSpace(link)
	return urlutil.Scheme(link) != "" || bareAddress.MatchString(link)
}
