package result

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassifyError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}

	tests := []struct {
		name           string
		err            error
		statusCode     int
		isRedirectLoop bool
		want           ErrorCategory
	}{
		{name: "redirect loop", isRedirectLoop: true, want: CategoryRedirectLoop},
		{name: "redirect loop beats status", statusCode: 301, isRedirectLoop: true, want: CategoryRedirectLoop},
		{name: "4xx status", statusCode: 404, want: Category4xx},
		{name: "429 status", statusCode: 429, want: Category4xx},
		{name: "5xx status", statusCode: 503, want: Category5xx},
		{name: "3xx status is unknown", statusCode: 301, want: CategoryUnknown},
		{name: "no error no status", want: CategoryUnknown},
		{name: "deadline", err: context.DeadlineExceeded, want: CategoryTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("head: %w", os.ErrDeadlineExceeded), want: CategoryTimeout},
		{name: "dns failure", err: &net.DNSError{Err: "no such host", Name: "example.invalid"}, want: CategoryDNSFailure},
		{name: "connection refused", err: refused, want: CategoryConnectionRefused},
		{name: "missing file", err: fmt.Errorf("stat: %w", fs.ErrNotExist), want: CategoryNotFound},
		{name: "anything else", err: errors.New("boom"), want: CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err, tt.statusCode, tt.isRedirectLoop); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{CategoryTimeout, "Timeouts"},
		{CategoryDNSFailure, "DNS Failures"},
		{CategoryConnectionRefused, "Connection Refused"},
		{Category4xx, "Client Errors (4xx)"},
		{Category5xx, "Server Errors (5xx)"},
		{CategoryRedirectLoop, "Redirect Loops"},
		{CategoryNotFound, "Missing Files"},
		{CategoryInvalidAddress, "Invalid Mail Addresses"},
		{CategoryUnsupported, "Unsupported Links"},
		{CategoryUnknown, "Other Errors"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			if got := FormatCategory(tt.cat); got != tt.want {
				t.Errorf("FormatCategory(%v) = %v, want %v", tt.cat, got, tt.want)
			}
		})
	}
}
