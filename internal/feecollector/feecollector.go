// Package feecollector takes a best-effort native-token fee share off a
// trade's notional and sends it to a configured platform account. It
// holds no state: every call is a fresh attempt, and every failure is
// swallowed and logged rather than propagated to the caller (§4.4).
package feecollector

import (
	"context"
	"log/slog"

	"github.com/trenchsniper/trenchsniperd/internal/metrics"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
)

// Logger is the minimal logging surface feecollector needs. obs.Logger
// satisfies this.
type Logger interface {
	Error(msg string, attrs ...slog.Attr)
}

// Transferrer sends a native-token transfer of amountUnits from signer
// to feeAccount and returns the resulting signature once submitted.
// treasury.Mover satisfies this with its Transfer method; kept distinct
// from venue.Client so fee collection never depends on quoting.
type Transferrer interface {
	Transfer(ctx context.Context, signer venue.Signer, feeAccount string, amountUnits uint64) (signature string, err error)
}

// Collector computes and submits the platform's fee share of a trade.
type Collector struct {
	transfer Transferrer
	log      Logger
}

// New builds a Collector. log may be nil, in which case failures are
// swallowed silently.
func New(transfer Transferrer, log Logger) *Collector {
	return &Collector{transfer: transfer, log: log}
}

// Collect computes fee_units = floor(tradeNotionalNative * feeBps / 10_000)
// and, if non-zero, submits a transfer of that amount from signer to
// feeAccount on a fresh transaction. Returns the signature when a
// transfer was attempted and succeeded, or "" (no error) when the
// computed fee was zero. Any transfer failure is logged and discarded:
// fee collection must never fail the caller's trade.
func (c *Collector) Collect(ctx context.Context, signer venue.Signer, tradeNotionalNative uint64, feeAccount string, feeBps int) string {
	units := FeeUnits(tradeNotionalNative, feeBps)
	if units == 0 {
		return ""
	}

	signature, err := c.transfer.Transfer(ctx, signer, feeAccount, units)
	if err != nil {
		if c.log != nil {
			c.log.Error("fee collection failed",
				slog.String("fee_account", feeAccount),
				slog.Uint64("fee_units", units),
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	metrics.Global.RecordFeeCollected(units)
	return signature
}

// FeeUnits computes floor(tradeNotionalNative * feeBps / 10_000).
func FeeUnits(tradeNotionalNative uint64, feeBps int) uint64 {
	if feeBps <= 0 || tradeNotionalNative == 0 {
		return 0
	}
	return tradeNotionalNative * uint64(feeBps) / 10_000
}
