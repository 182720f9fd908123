package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ApplyEnv loads a .env file from the working directory when present and
// applies MLC_* environment overrides to opts. Malformed numeric or boolean
// values are reported as configuration errors.
func ApplyEnv(opts *Options) error {
	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("MLC_BASE_URL"); ok && v != "" {
		opts.BaseURL = v
	}
	if v, ok := os.LookupEnv("MLC_TIMEOUT"); ok && v != "" {
		opts.Timeout = v
	}
	if v, ok := os.LookupEnv("MLC_FALLBACK_RETRY_DELAY"); ok && v != "" {
		opts.FallbackRetryDelay = v
	}
	if v, ok := os.LookupEnv("MLC_FILE_ENCODING"); ok && v != "" {
		opts.FileEncoding = v
	}
	if v, ok := os.LookupEnv("MLC_USER_AGENT"); ok && v != "" {
		opts.UserAgent = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MLC_RETRY_COUNT", &opts.RetryCount},
		{"MLC_CONCURRENCY", &opts.Concurrency},
		{"MLC_MAX_REDIRECTS", &opts.MaxRedirects},
		{"MLC_RATE_LIMIT", &opts.RateLimit},
	}
	for _, e := range ints {
		if v, ok := os.LookupEnv(e.key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return &Error{Field: e.key, Err: fmt.Errorf("parse int %q: %w", v, err)}
			}
			*e.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"MLC_RETRY_ON_429", &opts.RetryOn429},
		{"MLC_RETRY_ON_ERROR", &opts.RetryOnError},
		{"MLC_RESPECT_ROBOTS_TXT", &opts.RespectRobotsTxt},
		{"MLC_CHECK_ANCHORS", &opts.CheckAnchors},
	}
	for _, e := range bools {
		if v, ok := os.LookupEnv(e.key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return &Error{Field: e.key, Err: fmt.Errorf("parse bool %q: %w", v, err)}
			}
			*e.dst = b
		}
	}

	if v, ok := os.LookupEnv("MLC_ALIVE_STATUS_CODES"); ok && v != "" {
		var codes []int
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return &Error{Field: "MLC_ALIVE_STATUS_CODES", Err: fmt.Errorf("parse int %q: %w", part, err)}
			}
			codes = append(codes, n)
		}
		opts.AliveStatusCodes = codes
	}

	return nil
}
