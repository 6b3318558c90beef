// Package router implements the DEX Router: venue selection, parallel
// quote aggregation, migration detection, and validated swap dispatch
// across a fixed set of Venue Clients (§4.3).
package router

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trenchsniper/trenchsniperd/internal/metrics"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// Default validation policy (§4.3).
const (
	DefaultMaxQuoteAge       = 30 * time.Second
	DefaultMaxPriceImpactPct = 15.0
)

// Config tunes Router behavior. Zero-valued fields fall back to the
// defaults above.
type Config struct {
	ParallelQuotes    bool     // zero value false; the CLI sets it true when calling New
	FallbackOrder     []string // used only when ParallelQuotes is false
	MaxQuoteAge       time.Duration
	MaxPriceImpactPct float64
}

// MigrationResult reports whether a token has moved off its bonding
// curve onto an AMM (§4.3).
type MigrationResult struct {
	Migrated  bool
	From      string
	To        string
	NewPoolID string
}

// Router composes N Venue Clients and holds no state beyond them and
// its configuration (§4.1 ownership graph).
type Router struct {
	bondingCurve venue.Client // may be nil if no bonding-curve venue is configured
	amms         []venue.Client
	aggregator   venue.Client // may be nil
	all          []venue.Client

	cfg Config
}

// New builds a Router over the given venues. bondingCurve and
// aggregator may be nil when not configured; amms is the set of AMM
// venues (amm_a, amm_b, ...).
func New(bondingCurve venue.Client, amms []venue.Client, aggregator venue.Client, cfg Config) *Router {
	if cfg.MaxQuoteAge <= 0 {
		cfg.MaxQuoteAge = DefaultMaxQuoteAge
	}
	if cfg.MaxPriceImpactPct <= 0 {
		cfg.MaxPriceImpactPct = DefaultMaxPriceImpactPct
	}

	var all []venue.Client
	if bondingCurve != nil {
		all = append(all, bondingCurve)
	}
	all = append(all, amms...)
	if aggregator != nil {
		all = append(all, aggregator)
	}

	return &Router{
		bondingCurve: bondingCurve,
		amms:         amms,
		aggregator:   aggregator,
		all:          all,
		cfg:          cfg,
	}
}

// DetectVenue picks the venue a token should trade through (§4.3). Any
// probe error for a specific venue is treated as "not available there"
// and falls through to the next rule.
func (r *Router) DetectVenue(ctx context.Context, tokenMint string) (string, error) {
	if r.bondingCurve != nil {
		available, probeErr := r.bondingCurve.Probe(ctx, tokenMint)
		graduated := true
		if probeErr == nil && available {
			if checker, ok := r.bondingCurve.(venue.GraduationChecker); ok {
				if g, gradErr := checker.HasGraduated(ctx, tokenMint); gradErr == nil {
					graduated = g
				}
			}
		}
		if probeErr == nil && available && !graduated {
			return r.bondingCurve.ID(), nil
		}
	}

	if r.aggregator != nil {
		return r.aggregator.ID(), nil
	}
	if len(r.amms) > 0 {
		return r.amms[0].ID(), nil
	}

	return "", sniperr.ErrNoRoute
}

type quoteResult struct {
	quote venue.Quote
	err   error
}

// BestQuote requests quotes from enabled venues and selects the one
// with the largest OutAmount, tie-broken by the smaller PriceImpactPct
// (§4.3, property 7).
func (r *Router) BestQuote(ctx context.Context, params venue.Params) (venue.Quote, error) {
	if len(r.all) == 0 {
		return venue.Quote{}, sniperr.ErrNoRoute
	}

	if r.cfg.ParallelQuotes {
		return r.bestQuoteParallel(ctx, params)
	}
	return r.bestQuoteFallback(ctx, params)
}

func (r *Router) bestQuoteParallel(ctx context.Context, params venue.Params) (venue.Quote, error) {
	results := make([]quoteResult, len(r.all))

	g, gctx := errgroup.WithContext(ctx)
	for i, client := range r.all {
		i, client := i, client
		g.Go(func() error {
			q, err := client.Quote(gctx, params, 0)
			metrics.Global.RecordQuote(client.ID())
			results[i] = quoteResult{quote: q, err: err}
			return nil // individual failures are discarded, never fail the group
		})
	}
	_ = g.Wait()

	return selectBest(results)
}

func (r *Router) bestQuoteFallback(ctx context.Context, params venue.Params) (venue.Quote, error) {
	order := r.fallbackOrder()
	for _, id := range order {
		client := r.clientByID(id)
		if client == nil {
			continue
		}
		q, err := client.Quote(ctx, params, 0)
		metrics.Global.RecordQuote(client.ID())
		if err == nil {
			return q, nil
		}
	}
	return venue.Quote{}, sniperr.ErrNoRoute
}

func (r *Router) fallbackOrder() []string {
	if len(r.cfg.FallbackOrder) > 0 {
		return r.cfg.FallbackOrder
	}
	order := make([]string, 0, len(r.all))
	for _, c := range r.all {
		order = append(order, c.ID())
	}
	return order
}

func (r *Router) clientByID(id string) venue.Client {
	for _, c := range r.all {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

func selectBest(results []quoteResult) (venue.Quote, error) {
	var best venue.Quote
	found := false

	for _, res := range results {
		if res.err != nil {
			continue
		}
		if !found {
			best = res.quote
			found = true
			continue
		}
		if res.quote.OutAmount > best.OutAmount {
			best = res.quote
			continue
		}
		if res.quote.OutAmount == best.OutAmount && res.quote.PriceImpactPct < best.PriceImpactPct {
			best = res.quote
		}
	}

	if !found {
		return venue.Quote{}, sniperr.ErrNoRoute
	}
	return best, nil
}

// DetectMigration reports whether tokenMint has graduated its bonding
// curve and at least one AMM reports a pool, picking the
// highest-liquidity AMM as the destination (§4.3, property 8).
func (r *Router) DetectMigration(ctx context.Context, tokenMint string) (MigrationResult, error) {
	if r.bondingCurve == nil {
		return MigrationResult{}, nil
	}

	checker, ok := r.bondingCurve.(venue.GraduationChecker)
	if !ok {
		return MigrationResult{}, nil
	}

	graduated, err := checker.HasGraduated(ctx, tokenMint)
	if err != nil || !graduated {
		return MigrationResult{}, err
	}

	var bestAMM venue.Client
	var bestLiquidity float64
	for _, amm := range r.amms {
		reporter, ok := amm.(venue.PoolReporter)
		if !ok {
			continue
		}
		found, liquidity, poolErr := reporter.HasPool(ctx, tokenMint)
		if poolErr != nil || !found {
			continue
		}
		if bestAMM == nil || liquidity > bestLiquidity {
			bestAMM = amm
			bestLiquidity = liquidity
		}
	}

	if bestAMM == nil {
		return MigrationResult{}, nil
	}

	return MigrationResult{
		Migrated: true,
		From:     r.bondingCurve.ID(),
		To:       bestAMM.ID(),
	}, nil
}

// Validate rejects quotes older than MaxQuoteAge, past ExpiresAt, or
// with PriceImpactPct above MaxPriceImpactPct (§4.3, property 6).
func (r *Router) Validate(quote venue.Quote, now time.Time) error {
	if quote.Age(now) > r.cfg.MaxQuoteAge || quote.Expired(now) {
		return sniperr.ErrStaleQuote
	}
	if quote.PriceImpactPct > r.cfg.MaxPriceImpactPct {
		return sniperr.ErrExcessivePriceImpact
	}
	return nil
}

// Execute acquires the best quote, validates it, and dispatches to the
// venue it names (§4.3).
func (r *Router) Execute(ctx context.Context, signer venue.Signer, params venue.Params) (venue.SwapOutcome, error) {
	quote, err := r.BestQuote(ctx, params)
	if err != nil {
		return venue.SwapOutcome{}, err
	}

	if err := r.Validate(quote, time.Now()); err != nil {
		return venue.SwapOutcome{}, err
	}

	client := r.clientByID(quote.Venue)
	if client == nil {
		return venue.SwapOutcome{}, sniperr.ErrNoRoute
	}

	metrics.Global.RecordSwap(client.ID())
	return client.Swap(ctx, quote, signer)
}
