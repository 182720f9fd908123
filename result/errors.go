package result

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"syscall"
)

// ErrorCategory groups failed links by cause for reports and the summary.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryNotFound          ErrorCategory = "not_found"
	CategoryInvalidAddress    ErrorCategory = "invalid_address"
	CategoryUnsupported       ErrorCategory = "unsupported_protocol"
	CategoryUnknown           ErrorCategory = "unknown"
)

var categoryLabels = map[ErrorCategory]string{
	CategoryTimeout:           "Timeouts",
	CategoryDNSFailure:        "DNS Failures",
	CategoryConnectionRefused: "Connection Refused",
	Category4xx:               "Client Errors (4xx)",
	Category5xx:               "Server Errors (5xx)",
	CategoryRedirectLoop:      "Redirect Loops",
	CategoryNotFound:          "Missing Files",
	CategoryInvalidAddress:    "Invalid Mail Addresses",
	CategoryUnsupported:       "Unsupported Links",
}

// ClassifyError picks the category of a failed check. A redirect loop wins,
// then the status class, then the cause found in err's chain.
func ClassifyError(err error, statusCode int, isRedirectLoop bool) ErrorCategory {
	switch {
	case isRedirectLoop:
		return CategoryRedirectLoop
	case statusCode >= 500:
		return Category5xx
	case statusCode >= 400:
		return Category4xx
	case err == nil:
		return CategoryUnknown
	}

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return CategoryTimeout
	case errors.As(err, &dnsErr):
		return CategoryDNSFailure
	case errors.Is(err, syscall.ECONNREFUSED):
		return CategoryConnectionRefused
	case errors.Is(err, fs.ErrNotExist):
		return CategoryNotFound
	case errors.As(err, &netErr) && netErr.Timeout():
		return CategoryTimeout
	}
	return CategoryUnknown
}

// FormatCategory returns the heading used for a category in summaries.
func FormatCategory(cat ErrorCategory) string {
	if label, ok := categoryLabels[cat]; ok {
		return label
	}
	return "Other Errors"
}
