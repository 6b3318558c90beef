package router_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenchsniper/trenchsniperd/internal/router"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

type fakeVenue struct {
	id             string
	probeAvailable bool
	probeErr       error
	graduated      bool
	graduatedErr   error
	hasPool        bool
	poolLiquidity  float64
	poolErr        error

	quote    venue.Quote
	quoteErr error

	swapOutcome venue.SwapOutcome
	swapErr     error
}

func (f *fakeVenue) ID() string { return f.id }

func (f *fakeVenue) Probe(_ context.Context, _ string) (bool, error) {
	return f.probeAvailable, f.probeErr
}

func (f *fakeVenue) HasGraduated(_ context.Context, _ string) (bool, error) {
	return f.graduated, f.graduatedErr
}

func (f *fakeVenue) HasPool(_ context.Context, _ string) (bool, float64, error) {
	return f.hasPool, f.poolLiquidity, f.poolErr
}

func (f *fakeVenue) Quote(_ context.Context, _ venue.Params, _ time.Duration) (venue.Quote, error) {
	return f.quote, f.quoteErr
}

func (f *fakeVenue) Swap(_ context.Context, _ venue.Quote, _ venue.Signer, _ ...venue.Signer) (venue.SwapOutcome, error) {
	return f.swapOutcome, f.swapErr
}

type fakeSigner struct{}

func (fakeSigner) PublicKey() string                                  { return "signer" }
func (fakeSigner) Sign(_ context.Context, _ []byte) ([]byte, error) { return make([]byte, 64), nil }

func TestDetectVenuePicksBondingCurveWhenAvailableAndNotGraduated(t *testing.T) {
	t.Parallel()
	bc := &fakeVenue{id: "bonding_curve", probeAvailable: true, graduated: false}
	agg := &fakeVenue{id: "aggregator"}
	r := router.New(bc, nil, agg, router.Config{})

	id, err := r.DetectVenue(context.Background(), "TOKEN1")
	require.NoError(t, err)
	assert.Equal(t, "bonding_curve", id)
}

func TestDetectVenueFallsThroughToAggregatorWhenGraduated(t *testing.T) {
	t.Parallel()
	bc := &fakeVenue{id: "bonding_curve", probeAvailable: true, graduated: true}
	agg := &fakeVenue{id: "aggregator"}
	r := router.New(bc, nil, agg, router.Config{})

	id, err := r.DetectVenue(context.Background(), "TOKEN1")
	require.NoError(t, err)
	assert.Equal(t, "aggregator", id)
}

func TestDetectVenueTreatsProbeErrorAsUnavailable(t *testing.T) {
	t.Parallel()
	bc := &fakeVenue{id: "bonding_curve", probeErr: errors.New("rpc down")}
	agg := &fakeVenue{id: "aggregator"}
	r := router.New(bc, nil, agg, router.Config{})

	id, err := r.DetectVenue(context.Background(), "TOKEN1")
	require.NoError(t, err)
	assert.Equal(t, "aggregator", id)
}

func TestBestQuoteSelectsLargestOutAmount(t *testing.T) {
	t.Parallel()
	low := &fakeVenue{id: "amm_a", quote: venue.Quote{Venue: "amm_a", OutAmount: 100}}
	high := &fakeVenue{id: "amm_b", quote: venue.Quote{Venue: "amm_b", OutAmount: 200}}
	r := router.New(nil, []venue.Client{low, high}, nil, router.Config{ParallelQuotes: true})

	q, err := r.BestQuote(context.Background(), venue.Params{})
	require.NoError(t, err)
	assert.Equal(t, "amm_b", q.Venue)
}

func TestBestQuoteTieBreaksByLowerPriceImpact(t *testing.T) {
	t.Parallel()
	a := &fakeVenue{id: "amm_a", quote: venue.Quote{Venue: "amm_a", OutAmount: 100, PriceImpactPct: 2.0}}
	b := &fakeVenue{id: "amm_b", quote: venue.Quote{Venue: "amm_b", OutAmount: 100, PriceImpactPct: 0.5}}
	r := router.New(nil, []venue.Client{a, b}, nil, router.Config{ParallelQuotes: true})

	q, err := r.BestQuote(context.Background(), venue.Params{})
	require.NoError(t, err)
	assert.Equal(t, "amm_b", q.Venue)
}

func TestBestQuoteDiscardsFailures(t *testing.T) {
	t.Parallel()
	failing := &fakeVenue{id: "amm_a", quoteErr: errors.New("no liquidity")}
	ok := &fakeVenue{id: "amm_b", quote: venue.Quote{Venue: "amm_b", OutAmount: 50}}
	r := router.New(nil, []venue.Client{failing, ok}, nil, router.Config{ParallelQuotes: true})

	q, err := r.BestQuote(context.Background(), venue.Params{})
	require.NoError(t, err)
	assert.Equal(t, "amm_b", q.Venue)
}

func TestBestQuoteFallbackOrderReturnsFirstSuccess(t *testing.T) {
	t.Parallel()
	failing := &fakeVenue{id: "amm_a", quoteErr: errors.New("down")}
	ok := &fakeVenue{id: "amm_b", quote: venue.Quote{Venue: "amm_b", OutAmount: 50}}
	r := router.New(nil, []venue.Client{failing, ok}, nil, router.Config{
		ParallelQuotes: false,
		FallbackOrder:  []string{"amm_a", "amm_b"},
	})

	q, err := r.BestQuote(context.Background(), venue.Params{})
	require.NoError(t, err)
	assert.Equal(t, "amm_b", q.Venue)
}

func TestDetectMigrationPicksHighestLiquidityAMM(t *testing.T) {
	t.Parallel()
	bc := &fakeVenue{id: "bonding_curve", graduated: true}
	thin := &fakeVenue{id: "amm_a", hasPool: true, poolLiquidity: 10}
	deep := &fakeVenue{id: "amm_b", hasPool: true, poolLiquidity: 500}
	r := router.New(bc, []venue.Client{thin, deep}, nil, router.Config{})

	result, err := r.DetectMigration(context.Background(), "TOKEN1")
	require.NoError(t, err)
	assert.True(t, result.Migrated)
	assert.Equal(t, "bonding_curve", result.From)
	assert.Equal(t, "amm_b", result.To)
}

func TestDetectMigrationFalseWhenNotGraduated(t *testing.T) {
	t.Parallel()
	bc := &fakeVenue{id: "bonding_curve", graduated: false}
	amm := &fakeVenue{id: "amm_a", hasPool: true, poolLiquidity: 10}
	r := router.New(bc, []venue.Client{amm}, nil, router.Config{})

	result, err := r.DetectMigration(context.Background(), "TOKEN1")
	require.NoError(t, err)
	assert.False(t, result.Migrated)
}

func TestValidateRejectsStaleQuote(t *testing.T) {
	t.Parallel()
	r := router.New(nil, nil, &fakeVenue{id: "aggregator"}, router.Config{MaxQuoteAge: 30 * time.Second})

	now := time.Now()
	quote := venue.Quote{Timestamp: now.Add(-31 * time.Second), ExpiresAt: now.Add(-1 * time.Second)}
	err := r.Validate(quote, now)
	assert.ErrorIs(t, err, sniperr.ErrStaleQuote)
}

func TestValidateRejectsExcessivePriceImpact(t *testing.T) {
	t.Parallel()
	r := router.New(nil, nil, &fakeVenue{id: "aggregator"}, router.Config{MaxPriceImpactPct: 15})

	now := time.Now()
	quote := venue.Quote{Timestamp: now, ExpiresAt: now.Add(time.Minute), PriceImpactPct: 20}
	err := r.Validate(quote, now)
	assert.ErrorIs(t, err, sniperr.ErrExcessivePriceImpact)
}

func TestValidateAcceptsFreshQuote(t *testing.T) {
	t.Parallel()
	r := router.New(nil, nil, &fakeVenue{id: "aggregator"}, router.Config{})

	now := time.Now()
	quote := venue.Quote{Timestamp: now, ExpiresAt: now.Add(time.Minute), PriceImpactPct: 1}
	assert.NoError(t, r.Validate(quote, now))
}

func TestExecuteDispatchesToQuotedVenue(t *testing.T) {
	t.Parallel()
	now := time.Now()
	amm := &fakeVenue{
		id:          "amm_a",
		quote:       venue.Quote{Venue: "amm_a", OutAmount: 100, Timestamp: now, ExpiresAt: now.Add(time.Minute)},
		swapOutcome: venue.SwapOutcome{Signature: "sig-1", Confirmed: true},
	}
	r := router.New(nil, []venue.Client{amm}, nil, router.Config{ParallelQuotes: true})

	outcome, err := r.Execute(context.Background(), fakeSigner{}, venue.Params{})
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
	assert.Equal(t, "sig-1", outcome.Signature)
}

func TestExecuteRejectsStaleQuoteBeforeSwap(t *testing.T) {
	t.Parallel()
	now := time.Now()
	amm := &fakeVenue{
		id:    "amm_a",
		quote: venue.Quote{Venue: "amm_a", OutAmount: 100, Timestamp: now.Add(-time.Hour), ExpiresAt: now.Add(-time.Minute)},
	}
	r := router.New(nil, []venue.Client{amm}, nil, router.Config{ParallelQuotes: true})

	_, err := r.Execute(context.Background(), fakeSigner{}, venue.Params{})
	assert.ErrorIs(t, err, sniperr.ErrStaleQuote)
	assert.False(t, amm.swapOutcome.Confirmed)
}

func TestBestQuoteNoRouteWhenNoVenuesConfigured(t *testing.T) {
	t.Parallel()
	r := router.New(nil, nil, nil, router.Config{})
	_, err := r.BestQuote(context.Background(), venue.Params{})
	assert.ErrorIs(t, err, sniperr.ErrNoRoute)
}
