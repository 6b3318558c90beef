package venue

import (
	"context"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/chainutil"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// confirmCadence and confirmAttempts implement the "fixed cadence,
// bounded attempts" poll schedule every venue swap uses (§4.2): 2.5s
// between checks, up to 10 attempts (~25s, inside the 30s quote
// validity window).
const (
	confirmCadence  = 2500 * time.Millisecond
	confirmAttempts = 10
)

// statusFn reports a submitted transaction's on-chain status. confirmed
// is true once the transaction lands; rejectErr is non-nil when the
// chain reports a final error; probeErr is non-nil for a transient
// lookup failure that should just be retried on the next tick.
type statusFn func(ctx context.Context) (confirmed bool, rejectErr error, probeErr error)

// pollConfirmation polls check on the standard venue cadence and
// translates the outcome into a SwapOutcome or a taxonomy error.
// Signature is always returned, even on NotConfirmed, per §4.2.
func pollConfirmation(ctx context.Context, signature string, check statusFn) (SwapOutcome, error) {
	outcome, err := chainutil.PollUntil(ctx, chainutil.Predicate(check), confirmCadence, confirmAttempts)

	switch outcome {
	case chainutil.PollConfirmed:
		return SwapOutcome{Signature: signature, Confirmed: true}, nil
	case chainutil.PollRejected:
		return SwapOutcome{Signature: signature}, sniperr.WithDetails(sniperr.ErrOnChainReject, map[string]string{
			"signature": signature,
			"reason":    errString(err),
		})
	default: // chainutil.PollTimeout
		return SwapOutcome{Signature: signature}, sniperr.WithDetails(sniperr.ErrNotConfirmed, map[string]string{
			"signature": signature,
		})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
