// Package urlutil provides the link and URL helpers shared by the resolver,
// the checkers and the extractors.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme returns the lower-cased scheme of a link, or "" if the link has
// none. Windows drive letters ("C:\docs") are not schemes.
func Scheme(link string) string {
	i := strings.IndexByte(link, ':')
	if i <= 1 {
		return ""
	}
	for j, c := range link[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return ""
		}
	}
	return strings.ToLower(link[:i])
}

// IsHTTPScheme reports whether link is an http or https URL.
func IsHTTPScheme(link string) bool {
	switch Scheme(link) {
	case "http", "https":
		return true
	}
	return false
}

// SplitFragment splits a link at its first '#'. The fragment is returned
// without the '#'.
func SplitFragment(link string) (base, fragment string) {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		return link[:i], link[i+1:]
	}
	return link, ""
}

// Normalize returns the form of an absolute URL used to compare redirect
// hops: scheme and host lower-cased, fragment dropped, path and query kept
// as written.
func Normalize(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("normalize %q: not an absolute URL", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment, u.RawFragment = "", ""
	return u.String(), nil
}

// ResolveReference resolves ref, such as a Location header, against base.
// An absolute ref is returned unchanged.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
