// Package chainutil holds the resiliency primitives shared by every
// component that talks to a venue or the chain RPC: per-endpoint rate
// limiting, backoff retry, and confirmation polling.
package chainutil

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/trenchsniper/trenchsniperd/internal/metrics"
)

// RateLimiter provides per-endpoint rate limiting using a token bucket,
// lazily allocating one bucket per endpoint string it sees. A single
// RateLimiter is shared across an entire RPCClient or venue client
// because distinct endpoints (e.g. "getBalance" vs "sendTransaction",
// or one AMM's /quote vs /swap) can tolerate different burst shapes
// even when they share an upstream host.
type RateLimiter struct {
	limiters   map[string]*rate.Limiter
	mu         sync.RWMutex
	rateLimit  rate.Limit
	burstLimit int
}

// NewRateLimiter creates a rate limiter with the given rate (requests per
// second) and burst size.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		rateLimit:  rate.Limit(ratePerSecond),
		burstLimit: burst,
	}
}

// RPCRateLimiter sizes a limiter for a Solana JSON-RPC endpoint: public
// and shared RPC providers generally tolerate a higher sustained rate
// than a venue's HTTP builder API, since balance/blockhash/signature-
// status polling happens on every wallet's trade loop tick.
func RPCRateLimiter() *RateLimiter {
	return NewRateLimiter(10, 20)
}

// VenueRateLimiter sizes a limiter for a venue builder or aggregator
// HTTP API: these are usually rate-limited more aggressively than an
// RPC node and return 429s readily under concurrent wallet load, so
// quote/swap/submit/status calls share a more conservative bucket.
func VenueRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// DefaultRateLimiter is an alias for VenueRateLimiter retained for
// callers (and tests) that construct a rate limiter without an
// endpoint class in mind.
func DefaultRateLimiter() *RateLimiter {
	return VenueRateLimiter()
}

// Allow reports whether a request to endpoint may proceed right now.
func (r *RateLimiter) Allow(endpoint string) bool {
	return r.getLimiter(endpoint).Allow()
}

// Wait blocks until a request to endpoint is allowed or ctx is canceled,
// recording a throttle event in metrics.Global whenever the call did not
// clear immediately.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	limiter := r.getLimiter(endpoint)
	if limiter.Tokens() < 1 {
		metrics.Global.RecordThrottle(endpoint)
	}
	return limiter.Wait(ctx)
}

func (r *RateLimiter) getLimiter(endpoint string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[endpoint]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, exists = r.limiters[endpoint]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(r.rateLimit, r.burstLimit)
	r.limiters[endpoint] = limiter
	return limiter
}
