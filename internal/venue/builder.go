package venue

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/chainutil"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

const maxBuilderResponseBody = 2 << 20 // 2 MB

// Wire shapes shared by every builder-backed venue (both AMMs, the
// aggregator): a uniform probe/quote/swap/submit/status contract the
// remote builder service exposes regardless of which pool or route it
// fronts.
type probeResponse struct {
	Available bool `json:"available"`
}

type quoteResponse struct {
	OutAmount      uint64  `json:"out_amount"`
	PriceImpactPct float64 `json:"price_impact_pct"`
	RouteRef       string  `json:"route_ref"`
}

type swapBuildRequest struct {
	RouteRef     string `json:"route_ref"`
	User         string `json:"user"`
	MinOutAmount uint64 `json:"min_out_amount"`
}

type swapBuildResponse struct {
	UnsignedTransaction string `json:"unsigned_transaction"`
}

type submitRequest struct {
	SignedTransaction string `json:"signed_transaction"`
}

type submitResponse struct {
	Signature string `json:"signature"`
}

type statusResponse struct {
	Confirmed bool   `json:"confirmed"`
	Rejected  bool   `json:"rejected"`
	Error     string `json:"error"`
}

// builderClient is the shared HTTP transport every HTTP-backed venue
// (both AMMs, the aggregator) embeds; the bonding curve does not use it. Each venue builds
// its own request/response shapes on top; this type owns only the
// connection pooling, rate limiting, and retry policy.
type builderClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *chainutil.RateLimiter
}

func newBuilderClient(baseURL, apiKey string) *builderClient {
	transport := &http.Transport{
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &builderClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   20 * time.Second,
		},
		rateLimiter: chainutil.VenueRateLimiter(),
	}
}

// getJSON performs a GET against path with query params, rate-limited
// and retried, decoding the JSON response into out.
func (b *builderClient) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building venue request: %w", err)
	}

	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	return b.do(ctx, req, out)
}

// postJSON performs a POST with a JSON body, rate-limited and retried,
// decoding the JSON response into out.
func (b *builderClient) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling venue request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building venue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return b.do(ctx, req, out)
}

func (b *builderClient) do(ctx context.Context, req *http.Request, out any) error {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	_, err := chainutil.RetryWithConfig(ctx, b.baseURL, chainutil.VenueRetryConfig(), func() (struct{}, error) {
		if waitErr := b.rateLimiter.Wait(ctx, b.baseURL); waitErr != nil {
			return struct{}{}, fmt.Errorf("venue rate limiter: %w", waitErr)
		}

		//nolint:gosec // G704: baseURL comes from validated configuration, not user input
		resp, doErr := b.httpClient.Do(req.Clone(ctx))
		if doErr != nil {
			return struct{}{}, chainutil.WrapRetryable(doErr)
		}
		defer func() { _ = resp.Body.Close() }()

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBuilderResponseBody))
		if readErr != nil {
			return struct{}{}, fmt.Errorf("reading venue response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return struct{}{}, chainutil.ErrRateLimited
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return struct{}{}, chainutil.WrapRetryable(fmt.Errorf("venue returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{
				"http_status": resp.Status,
				"body":        string(data),
			})
		}

		if out != nil {
			if unmarshalErr := json.Unmarshal(data, out); unmarshalErr != nil {
				return struct{}{}, fmt.Errorf("decoding venue response: %w", unmarshalErr)
			}
		}

		return struct{}{}, nil
	})

	return err
}
