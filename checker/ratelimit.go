package checker

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minRateFloor is the lowest rate, in requests per second, a host is
	// throttled down to.
	minRateFloor = 1.0

	// emaAlpha weights a new RTT observation against the running average.
	emaAlpha = 0.2

	// recoveryFactor is the per-observation rate increase while a host
	// answers faster than the target RTT.
	recoveryFactor = 1.1

	// backoffFactor bounds how far the rate can drop in a single step.
	backoffFactor = 0.5
)

// hostLimiter paces requests to one host and adapts its rate to the
// exponential moving average of observed response times.
type hostLimiter struct {
	limiter     *rate.Limiter
	emaRTT      time.Duration
	currentRate float64
}

// AdaptiveLimiter hands out one adaptive limiter per host, so a slow host only
// slows down links pointing at it. The configured rate is also the ceiling.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	hosts     map[string]*hostLimiter
	maxRate   float64
	targetRTT time.Duration
}

// NewAdaptiveLimiter creates a limiter allowing rps requests per second per
// host, backing off when a host's average RTT exceeds targetRTT.
func NewAdaptiveLimiter(rps int, targetRTT time.Duration) *AdaptiveLimiter {
	maxRate := math.Max(float64(rps), minRateFloor)
	return &AdaptiveLimiter{
		hosts:     make(map[string]*hostLimiter),
		maxRate:   maxRate,
		targetRTT: targetRTT,
	}
}

func (h *AdaptiveLimiter) host(name string) *hostLimiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	hl, ok := h.hosts[name]
	if !ok {
		hl = &hostLimiter{
			limiter:     rate.NewLimiter(rate.Limit(h.maxRate), int(math.Ceil(h.maxRate))),
			emaRTT:      h.targetRTT,
			currentRate: h.maxRate,
		}
		h.hosts[name] = hl
	}
	return hl
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *AdaptiveLimiter) Wait(ctx context.Context, host string) error {
	return h.host(host).limiter.Wait(ctx)
}

// Observe records the response time of a request to host and adjusts that
// host's rate.
func (h *AdaptiveLimiter) Observe(host string, rtt time.Duration) {
	hl := h.host(host)

	h.mu.Lock()
	defer h.mu.Unlock()

	hl.emaRTT = time.Duration(emaAlpha*float64(rtt) + (1-emaAlpha)*float64(hl.emaRTT))
	if hl.emaRTT <= 0 {
		return
	}

	ratio := float64(h.targetRTT) / float64(hl.emaRTT)
	var next float64
	if ratio < 1 {
		next = math.Max(hl.currentRate*ratio, hl.currentRate*backoffFactor)
	} else {
		next = hl.currentRate * recoveryFactor
	}
	next = math.Min(math.Max(next, minRateFloor), h.maxRate)

	if math.Abs(next-hl.currentRate) > 0.1 {
		hl.currentRate = next
		hl.limiter.SetLimit(rate.Limit(next))
		hl.limiter.SetBurst(int(math.Ceil(next)))
	}
}

// Rate returns the current rate for host in requests per second.
func (h *AdaptiveLimiter) Rate(host string) float64 {
	hl := h.host(host)

	h.mu.Lock()
	defer h.mu.Unlock()
	return hl.currentRate
}
