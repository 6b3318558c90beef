package venue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

const aggregatorVenueID = "aggregator"

// AggregatorClient routes through a third-party swap aggregator (e.g. a
// Jupiter-style quote/swap API) once a token has graduated off its
// bonding curve or never had one.
type AggregatorClient struct {
	http *builderClient
}

// NewAggregatorClient builds an aggregator client against a builder
// service at baseURL, authenticated with apiKey when non-empty.
func NewAggregatorClient(baseURL, apiKey string) *AggregatorClient {
	return &AggregatorClient{http: newBuilderClient(baseURL, apiKey)}
}

// ID implements Client.
func (c *AggregatorClient) ID() string { return aggregatorVenueID }

// Probe implements Client. The aggregator is considered available
// whenever it can return any route for the token, independent of
// per-venue liquidity.
func (c *AggregatorClient) Probe(ctx context.Context, tokenMint string) (bool, error) {
	var resp probeResponse
	if err := c.http.getJSON(ctx, "/probe", map[string]string{"mint": tokenMint}, &resp); err != nil {
		return false, fmt.Errorf("probing aggregator for %s: %w", tokenMint, err)
	}
	return resp.Available, nil
}

// Quote implements Client.
func (c *AggregatorClient) Quote(ctx context.Context, params Params, validityWindow time.Duration) (Quote, error) {
	if validityWindow <= 0 {
		validityWindow = DefaultValidityWindow
	}

	var resp quoteResponse
	err := c.http.getJSON(ctx, "/quote", map[string]string{
		"inputMint":   params.InputMint,
		"outputMint":  params.OutputMint,
		"amount":      strconv.FormatUint(params.InAmount, 10),
		"slippageBps": strconv.Itoa(params.SlippageBps),
	}, &resp)
	if err != nil {
		return Quote{}, fmt.Errorf("quoting aggregator %s->%s: %w", params.InputMint, params.OutputMint, err)
	}

	now := time.Now()
	return Quote{
		Venue:          aggregatorVenueID,
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
func (c *AggregatorClient) Swap(ctx context.Context, quote Quote, signer Signer, extraSigners ...Signer) (SwapOutcome, error) {
	var built swapBuildResponse
	err := c.http.postJSON(ctx, "/swap", swapBuildRequest{
		RouteRef:     quote.routeRef,
		User:         signer.PublicKey(),
		MinOutAmount: quote.MinOutAmount,
	}, &built)
	if err != nil {
		return SwapOutcome{}, sniperr.Wrap(err, "building aggregator swap transaction")
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
