// Package venue implements the polymorphic Venue Client contract: a
// small set of concrete clients (bonding curve, two AMMs, an
// aggregator) each exposing the same probe/quote/swap capability so the
// router can hold a collection of them and stay venue-agnostic (§4.2).
package venue

import (
	"context"
	"time"
)

// DefaultValidityWindow is how long a freshly minted Quote stays usable
// absent an explicit override.
const DefaultValidityWindow = 30 * time.Second

// Params describes a requested trade direction and size, independent of
// venue.
type Params struct {
	InputMint   string
	OutputMint  string
	InAmount    uint64 // base units of InputMint
	SlippageBps int
}

// Quote is frozen at construction by the venue that produced it (§3).
type Quote struct {
	Venue          string
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	MinOutAmount   uint64 // after slippage; MinOutAmount <= OutAmount
	PriceImpactPct float64
	Timestamp      time.Time
	ExpiresAt      time.Time // > Timestamp

	// routeRef is an opaque venue-assigned token letting Swap rebuild the
	// exact route it quoted without a second quote round-trip. Never
	// inspected outside the venue that set it.
	routeRef string
}

// Age reports how long ago the quote was taken, relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// Expired reports whether now is past the quote's expiry.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// SwapOutcome is what a venue reports after submitting and polling a
// swap transaction. Signature is populated even when Confirmed is false
// and the caller only got NotConfirmed, per §4.2.
type SwapOutcome struct {
	Signature string
	Confirmed bool
	OutAmount uint64 // actual received amount when the venue can observe it
}

// Signer authorizes a transaction message on behalf of one wallet. It is
// the only way a Venue Client ever touches key material; implementations
// wrap the Wallet Vault so secrets never leave it.
type Signer interface {
	PublicKey() string
	Sign(ctx context.Context, message []byte) ([]byte, error)
}

// Client is the capability set every concrete venue satisfies (§4.2).
type Client interface {
	// ID names the venue (bonding_curve, amm_a, amm_b, aggregator).
	ID() string

	// Probe reports whether this venue can currently trade tokenMint.
	// An error means "not available here", never a hard failure.
	Probe(ctx context.Context, tokenMint string) (bool, error)

	// Quote prices a trade. ExpiresAt is set to Timestamp +
	// DefaultValidityWindow unless the caller overrides validityWindow.
	Quote(ctx context.Context, params Params, validityWindow time.Duration) (Quote, error)

	// Swap builds a transaction for quote, has signer (and any
	// extraSigners, e.g. a fresh mint keypair) authorize it, submits,
	// and polls for confirmation.
	Swap(ctx context.Context, quote Quote, signer Signer, extraSigners ...Signer) (SwapOutcome, error)
}

// GraduationChecker is the extra capability bonding-curve venues expose
// so the router can detect migration to an AMM (§4.2, §4.3).
type GraduationChecker interface {
	HasGraduated(ctx context.Context, tokenMint string) (bool, error)
}

// PoolReporter is the extra capability AMM venues expose so the router
// can pick a migration destination by liquidity (§4.3).
type PoolReporter interface {
	HasPool(ctx context.Context, tokenMint string) (found bool, liquidityNative float64, err error)
}
