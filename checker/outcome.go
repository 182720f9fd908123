// Package checker probes resolved link targets: HTTP(S) URLs, local files
// and mail addresses. A checker reports what it observed and leaves retry
// decisions and final classification to its caller.
package checker

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/boillodmanuel/markdown-link-check/resolve"
)

// Checker performs one physical probe of a target.
type Checker interface {
	Check(ctx context.Context, target resolve.Target) Outcome
}

// ErrorKind classifies a failed probe.
type ErrorKind string

const (
	KindNetwork           ErrorKind = "network"
	KindDNS               ErrorKind = "dns"
	KindTimeout           ErrorKind = "timeout"
	KindConnectionRefused ErrorKind = "connection_refused"
	KindRedirectLoop      ErrorKind = "redirect_loop"
	KindNotFound          ErrorKind = "not_found"
	KindIO                ErrorKind = "io"
	KindInvalidAddress    ErrorKind = "invalid_address"
	KindDisallowed        ErrorKind = "disallowed"
	KindRequest           ErrorKind = "request"
)

// Transient reports whether a probe failing with this kind may succeed if
// repeated.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindNetwork, KindDNS, KindTimeout, KindConnectionRefused:
		return true
	default:
		return false
	}
}

// Error is the structured error of a probe.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is the result of one probe attempt.
type Outcome struct {
	StatusCode int      // Response code, 0 if none was obtained
	Err        *Error   // Set when the probe failed
	Redirects  []string // Redirect targets followed, in order
	RetryAfter string   // Raw server-supplied retry hint
}

// Failed builds an Outcome carrying err classified as kind.
func Failed(code int, kind ErrorKind, err error) Outcome {
	return Outcome{StatusCode: code, Err: &Error{Kind: kind, Err: err}}
}

// KindOf classifies a transport error.
func KindOf(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetwork
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindNetwork
	}

	return KindRequest
}

// transportFailure wraps a transport error in an Outcome.
func transportFailure(err error) Outcome {
	return Failed(0, KindOf(err), err)
}
