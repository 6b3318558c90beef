// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Chain RPC metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64

	// Vault operation metrics
	walletOpsTotal  atomic.Int64
	walletOpsErrors atomic.Int64

	// Fee collection metrics
	feesCollectedTotal atomic.Int64
	feesCollectedUnits atomic.Int64

	// Per-venue quote/swap counts
	mu          sync.Mutex
	quotesTotal map[string]int64
	swapsTotal  map[string]int64

	// Resiliency: backoff retries attempted and endpoint-level throttling,
	// both shared across every RPC and venue call through chainutil.
	retriesTotal   atomic.Int64
	throttledTotal atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{
	quotesTotal: make(map[string]int64),
	swapsTotal:  make(map[string]int64),
}

// RecordRPCCall records a chain RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}
}

// RecordWalletOp records a vault operation (generate, import, remove, update).
func (m *Metrics) RecordWalletOp(err error) {
	m.walletOpsTotal.Add(1)
	if err != nil {
		m.walletOpsErrors.Add(1)
	}
}

// RecordFeeCollected records a successful platform fee transfer.
func (m *Metrics) RecordFeeCollected(units uint64) {
	m.feesCollectedTotal.Add(1)
	m.feesCollectedUnits.Add(int64(units)) //nolint:gosec // G115: fee units never approach int64 overflow
}

// RecordQuote records a quote request against a venue, identified by its ID.
func (m *Metrics) RecordQuote(venueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotesTotal[venueID]++
}

// RecordSwap records a swap dispatched to a venue, identified by its ID.
func (m *Metrics) RecordSwap(venueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swapsTotal[venueID]++
}

// RecordRetry records one backoff retry attempt against endpoint, made
// after an initial call to it failed with a retryable error.
func (m *Metrics) RecordRetry(endpoint string) {
	m.retriesTotal.Add(1)
	_ = endpoint // endpoint is accepted for future per-endpoint breakdown
}

// RecordThrottle records one call that had to wait for a rate limiter
// token before proceeding against endpoint.
func (m *Metrics) RecordThrottle(endpoint string) {
	m.throttledTotal.Add(1)
	_ = endpoint
}

// Snapshot returns a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal      int64
	RPCErrorsTotal     int64
	RPCLatencyNanos    int64
	WalletOpsTotal     int64
	WalletOpsErrors    int64
	FeesCollectedTotal int64
	FeesCollectedUnits int64
	QuotesByVenue      map[string]int64
	SwapsByVenue       map[string]int64
	RetriesTotal       int64
	ThrottledTotal     int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	quotes := make(map[string]int64, len(m.quotesTotal))
	for k, v := range m.quotesTotal {
		quotes[k] = v
	}
	swaps := make(map[string]int64, len(m.swapsTotal))
	for k, v := range m.swapsTotal {
		swaps[k] = v
	}

	return Snapshot{
		RPCCallsTotal:      m.rpcCallsTotal.Load(),
		RPCErrorsTotal:     m.rpcErrorsTotal.Load(),
		RPCLatencyNanos:    m.rpcLatencyNanos.Load(),
		WalletOpsTotal:     m.walletOpsTotal.Load(),
		WalletOpsErrors:    m.walletOpsErrors.Load(),
		FeesCollectedTotal: m.feesCollectedTotal.Load(),
		FeesCollectedUnits: m.feesCollectedUnits.Load(),
		QuotesByVenue:      quotes,
		SwapsByVenue:       swaps,
		RetriesTotal:       m.retriesTotal.Load(),
		ThrottledTotal:     m.throttledTotal.Load(),
	}
}

// RPCCallsTotal returns the total number of RPC calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCErrorsTotal returns the total number of RPC errors.
func (m *Metrics) RPCErrorsTotal() int64 {
	return m.rpcErrorsTotal.Load()
}

// RPCLatencyAvgMs returns the average RPC latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.walletOpsTotal.Store(0)
	m.walletOpsErrors.Store(0)
	m.feesCollectedTotal.Store(0)
	m.feesCollectedUnits.Store(0)
	m.retriesTotal.Store(0)
	m.throttledTotal.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotesTotal = make(map[string]int64)
	m.swapsTotal = make(map[string]int64)
}
