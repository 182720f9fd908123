// Package config defines the options recognized by the link checker and
// loads them from JSON or YAML files and MLC_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when an option is left unset.
const (
	DefaultRetryCount         = 5
	DefaultFallbackRetryDelay = 60 * time.Second
	DefaultTimeout            = 10 * time.Second
	DefaultConcurrency        = 10
	DefaultMaxRedirects       = 10
	DefaultUserAgent          = "markdown-link-check/1.0 (+https://github.com/boillodmanuel/markdown-link-check)"
)

// IgnorePattern marks every link matching Pattern as ignored.
type IgnorePattern struct {
	Pattern string `json:"pattern" yaml:"pattern"`
}

// ReplacementPattern replaces the first match of Pattern with Replacement
// before a link is checked.
type ReplacementPattern struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

// HTTPHeader attaches Headers to every HTTP link starting with one of URLs.
type HTTPHeader struct {
	URLs    []string          `json:"urls" yaml:"urls"`
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Options holds every recognized configuration option.
type Options struct {
	BaseURL             string               `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	BaseDir             string               `json:"baseDir,omitempty" yaml:"baseDir,omitempty"`
	IgnorePatterns      []IgnorePattern      `json:"ignorePatterns,omitempty" yaml:"ignorePatterns,omitempty"`
	ReplacementPatterns []ReplacementPattern `json:"replacementPatterns,omitempty" yaml:"replacementPatterns,omitempty"`
	HTTPHeaders         []HTTPHeader         `json:"httpHeaders,omitempty" yaml:"httpHeaders,omitempty"`
	AliveStatusCodes    []int                `json:"aliveStatusCodes,omitempty" yaml:"aliveStatusCodes,omitempty"`
	RetryOn429          bool                 `json:"retryOn429,omitempty" yaml:"retryOn429,omitempty"`
	RetryOnError        bool                 `json:"retryOnError,omitempty" yaml:"retryOnError,omitempty"`
	RetryCount          int                  `json:"retryCount,omitempty" yaml:"retryCount,omitempty"` // 0 means DefaultRetryCount
	FallbackRetryDelay  string               `json:"fallbackRetryDelay,omitempty" yaml:"fallbackRetryDelay,omitempty"`
	Timeout             string               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FileEncoding        string               `json:"fileEncoding,omitempty" yaml:"fileEncoding,omitempty"`

	Concurrency      int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	MaxRedirects     int    `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	UserAgent        string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	RateLimit        int    `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second, 0 disables
	RespectRobotsTxt bool   `json:"respectRobotsTxt,omitempty" yaml:"respectRobotsTxt,omitempty"`
	CheckAnchors     bool   `json:"checkAnchors,omitempty" yaml:"checkAnchors,omitempty"`
}

// Error is a configuration error. It is fatal and reported before any link
// is checked.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// Default returns Options with every default applied.
func Default() Options {
	return Options{
		RetryCount:         DefaultRetryCount,
		FallbackRetryDelay: DefaultFallbackRetryDelay.String(),
		Timeout:            DefaultTimeout.String(),
		Concurrency:        DefaultConcurrency,
		MaxRedirects:       DefaultMaxRedirects,
		UserAgent:          DefaultUserAgent,
	}
}

// Load reads a configuration file on top of Default. Files ending in .yaml
// or .yml are parsed as YAML, anything else as JSON.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, &Error{Field: "file", Err: fmt.Errorf("read %s: %w", path, err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	default:
		err = json.Unmarshal(data, &opts)
	}
	if err != nil {
		return opts, &Error{Field: "file", Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	return opts, opts.Validate()
}

// Validate checks option values that would otherwise fail mid-run.
func (o Options) Validate() error {
	for i, p := range o.IgnorePatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return &Error{Field: fmt.Sprintf("ignorePatterns[%d]", i), Err: err}
		}
	}
	for i, p := range o.ReplacementPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return &Error{Field: fmt.Sprintf("replacementPatterns[%d]", i), Err: err}
		}
	}
	for i, h := range o.HTTPHeaders {
		if len(h.URLs) == 0 {
			return &Error{Field: fmt.Sprintf("httpHeaders[%d].urls", i), Err: errors.New("at least one url is required")}
		}
	}
	for _, code := range o.AliveStatusCodes {
		if code < 100 || code > 999 {
			return &Error{Field: "aliveStatusCodes", Err: fmt.Errorf("status code %d out of range", code)}
		}
	}
	if o.RetryCount < 0 {
		return &Error{Field: "retryCount", Err: fmt.Errorf("must not be negative, got %d", o.RetryCount)}
	}
	if _, err := ParseDuration(o.FallbackRetryDelay, DefaultFallbackRetryDelay); err != nil {
		return &Error{Field: "fallbackRetryDelay", Err: err}
	}
	if _, err := ParseDuration(o.Timeout, DefaultTimeout); err != nil {
		return &Error{Field: "timeout", Err: err}
	}
	if o.Concurrency < 0 {
		return &Error{Field: "concurrency", Err: fmt.Errorf("must not be negative, got %d", o.Concurrency)}
	}
	return nil
}

// TimeoutDuration returns the per-attempt timeout, falling back to the
// default when the option is empty or malformed.
func (o Options) TimeoutDuration() time.Duration {
	d, _ := ParseDuration(o.Timeout, DefaultTimeout)
	return d
}

// FallbackRetryDelayDuration returns the retry delay used when the server
// gives no hint.
func (o Options) FallbackRetryDelayDuration() time.Duration {
	d, _ := ParseDuration(o.FallbackRetryDelay, DefaultFallbackRetryDelay)
	return d
}

// maxMillis is the largest millisecond count a time.Duration holds.
const maxMillis = float64(math.MaxInt64) / float64(time.Millisecond)

// ParseDuration parses a duration option. Go duration syntax ("10s",
// "1m30s") is accepted, and a bare number is read as milliseconds. An empty
// value yields fallback.
func ParseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	if ms, err := strconv.ParseFloat(value, 64); err == nil || math.IsInf(ms, 0) {
		switch {
		case math.IsNaN(ms) || math.IsInf(ms, 0):
			return fallback, fmt.Errorf("duration %q is not a finite number", value)
		case ms < 0:
			return fallback, fmt.Errorf("negative duration %q", value)
		case ms >= maxMillis:
			return fallback, fmt.Errorf("duration %q is out of range", value)
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if d < 0 {
		return fallback, fmt.Errorf("negative duration %q", value)
	}
	return d, nil
}
