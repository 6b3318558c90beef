package venue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// AMMClient trades against a constant-product style pool. Both amm_a and
// amm_b are instances of this same type, differing only by venue id and
// builder endpoint — the Router holds each as an opaque Client and a
// PoolReporter (§4.3 "Implement as a small set of concrete types").
type AMMClient struct {
	venueID string
	http    *builderClient
}

// NewAMMClient builds an AMM client identified by venueID (e.g. "amm_a",
// "amm_b") against a builder service at baseURL.
func NewAMMClient(venueID, baseURL, apiKey string) *AMMClient {
	return &AMMClient{venueID: venueID, http: newBuilderClient(baseURL, apiKey)}
}

// ID implements Client.
func (c *AMMClient) ID() string { return c.venueID }

// Probe implements Client.
func (c *AMMClient) Probe(ctx context.Context, tokenMint string) (bool, error) {
	var resp probeResponse
	if err := c.http.getJSON(ctx, "/probe", map[string]string{"mint": tokenMint}, &resp); err != nil {
		return false, fmt.Errorf("probing %s for %s: %w", c.venueID, tokenMint, err)
	}
	return resp.Available, nil
}

type poolResponse struct {
	Found           bool    `json:"found"`
	LiquidityNative float64 `json:"liquidity_native"`
}

// HasPool implements PoolReporter.
func (c *AMMClient) HasPool(ctx context.Context, tokenMint string) (bool, float64, error) {
	var resp poolResponse
	if err := c.http.getJSON(ctx, "/pool", map[string]string{"mint": tokenMint}, &resp); err != nil {
		return false, 0, fmt.Errorf("checking %s pool for %s: %w", c.venueID, tokenMint, err)
	}
	return resp.Found, resp.LiquidityNative, nil
}

// Quote implements Client.
func (c *AMMClient) Quote(ctx context.Context, params Params, validityWindow time.Duration) (Quote, error) {
	if validityWindow <= 0 {
		validityWindow = DefaultValidityWindow
	}

	var resp quoteResponse
	err := c.http.getJSON(ctx, "/quote", map[string]string{
		"input":        params.InputMint,
		"output":       params.OutputMint,
		"amount":       strconv.FormatUint(params.InAmount, 10),
		"slippage_bps": strconv.Itoa(params.SlippageBps),
	}, &resp)
	if err != nil {
		return Quote{}, fmt.Errorf("quoting %s %s->%s: %w", c.venueID, params.InputMint, params.OutputMint, err)
	}

	now := time.Now()
	return Quote{
		Venue:          c.venueID,
		InputMint:      params.InputMint,
		OutputMint:     params.OutputMint,
		InAmount:       params.InAmount,
		OutAmount:      resp.OutAmount,
		MinOutAmount:   applySlippage(resp.OutAmount, params.SlippageBps),
		PriceImpactPct: resp.PriceImpactPct,
		Timestamp:      now,
		ExpiresAt:      now.Add(validityWindow),
		routeRef:       resp.RouteRef,
	}, nil
}

// Swap implements Client.
func (c *AMMClient) Swap(ctx context.Context, quote Quote, signer Signer, extraSigners ...Signer) (SwapOutcome, error) {
	var built swapBuildResponse
	err := c.http.postJSON(ctx, "/swap", swapBuildRequest{
		RouteRef:     quote.routeRef,
		User:         signer.PublicKey(),
		MinOutAmount: quote.MinOutAmount,
	}, &built)
	if err != nil {
		return SwapOutcome{}, sniperr.Wrap(err, "building %s swap transaction", c.venueID)
	}

	signedTx, err := signTransaction(ctx, built.UnsignedTransaction, signer, extraSigners...)
	if err != nil {
		return SwapOutcome{}, sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"reason": err.Error()})
	}

	var submitted submitResponse
	if err := c.http.postJSON(ctx, "/submit", submitRequest{SignedTransaction: signedTx}, &submitted); err != nil {
		return SwapOutcome{}, sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"reason": err.Error()})
	}

	return pollConfirmation(ctx, submitted.Signature, func(ctx context.Context) (bool, error, error) {
		var status statusResponse
		if err := c.http.getJSON(ctx, "/status", map[string]string{"signature": submitted.Signature}, &status); err != nil {
			return false, nil, err
		}
		if status.Rejected {
			return false, fmt.Errorf("%s", status.Error), nil
		}
		return status.Confirmed, nil, nil
	})
}
