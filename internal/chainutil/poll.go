package chainutil

import (
	"context"
	"time"
)

// PollOutcome is the terminal state of a PollUntil run.
type PollOutcome int

const (
	// PollConfirmed means predicate returned true before the attempt
	// budget was exhausted.
	PollConfirmed PollOutcome = iota
	// PollRejected means predicate returned a definitive false (the
	// caller-supplied err is non-nil and not retryable) before the
	// attempt budget was exhausted.
	PollRejected
	// PollTimeout means the attempt budget was exhausted without a
	// definitive confirm or reject.
	PollTimeout
)

// Predicate is polled by PollUntil on a fixed cadence. It returns
// (confirmed, rejected-with-reason, error). A non-nil error that is not
// itself a rejection is treated as a transient probe failure and simply
// retried on the next tick.
type Predicate func(ctx context.Context) (confirmed bool, rejectErr error, probeErr error)

// PollUntil calls predicate on a fixed cadence, up to attempts times,
// replacing the ad-hoc "poll for confirmation" loops venue clients would
// otherwise hand-roll. It returns as soon as predicate reports a
// confirmation or a rejection; it returns PollTimeout if neither happens
// within the attempt budget.
func PollUntil(ctx context.Context, predicate Predicate, cadence time.Duration, attempts int) (PollOutcome, error) {
	var lastProbeErr error

	for attempt := 0; attempt < attempts; attempt++ {
		confirmed, rejectErr, probeErr := predicate(ctx)
		switch {
		case confirmed:
			return PollConfirmed, nil
		case rejectErr != nil:
			return PollRejected, rejectErr
		case probeErr != nil:
			lastProbeErr = probeErr
		}

		if attempt < attempts-1 {
			timer := time.NewTimer(cadence)
			select {
			case <-ctx.Done():
				timer.Stop()
				return PollTimeout, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return PollTimeout, lastProbeErr
}
