package orchestrator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/venue"
)

// runWalletLoop is the cooperative per-wallet trade task: sleep a
// jittered interval, then decide and trade, repeat. One goroutine runs this
// per wallet in a session; it exits as soon as the session stops
// running, its context is cancelled, or (for activity sessions) end_at
// passes.
func (o *Orchestrator) runWalletLoop(ctx context.Context, sess *Session, wallet string) {
	defer sess.wg.Done()

	for {
		if !sess.running.Load() {
			return
		}

		if sess.kind == KindActivity && !sess.endAt.IsZero() && time.Now().After(sess.endAt) {
			sess.running.Store(false)
			sess.cancel()
			return
		}

		interval := jitterInterval(sess.preset.MinIntervalMs, sess.preset.MaxIntervalMs)
		if sess.kind == KindActivity && !sess.endAt.IsZero() {
			if untilEnd := time.Until(sess.endAt); untilEnd < interval {
				interval = untilEnd
			}
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !sess.running.Load() {
			return
		}

		if sess.kind == KindActivity && !sess.endAt.IsZero() && !time.Now().Before(sess.endAt) {
			continue
		}

		o.iterate(ctx, sess, wallet)
	}
}

// iterate performs one decide-and-execute cycle for wallet. All
// failures are absorbed into Stats; nothing leaks out of the loop.
func (o *Orchestrator) iterate(ctx context.Context, sess *Session, wallet string) {
	if sess.kind == KindActivity && sess.preset.TransferChance > 0 && rand.Float64() < sess.preset.TransferChance { //nolint:gosec
		target := sess.pickTransferTarget(wallet)
		if target != "" {
			o.runTransfer(ctx, sess, wallet, target)
			return
		}
	}

	token := sess.token
	if sess.kind == KindActivity {
		token = o.cfg.OrganicTokens[rand.IntN(len(o.cfg.OrganicTokens))] //nolint:gosec
	}
	o.runSwap(ctx, sess, wallet, token)
}

func (o *Orchestrator) runTransfer(ctx context.Context, sess *Session, wallet, target string) {
	amount := randomAmountNative(0.001, 0.005)
	units := nativeToUnits(amount)

	result, err := o.treasury.Fund(ctx, o.vault.SignerFor(wallet), wallet, []string{target}, units)
	if err != nil || result.FundedCount == 0 {
		sess.stats.record(false, 0)
		return
	}
	sess.stats.record(true, units)
}

func (o *Orchestrator) runSwap(ctx context.Context, sess *Session, wallet, token string) {
	balance, err := o.balances.TokenBalance(ctx, wallet, token)
	if err != nil {
		sess.stats.record(false, 0)
		return
	}

	var params venue.Params
	sell := balance > 0 && rand.Float64() < 0.5 //nolint:gosec
	if sell {
		params = venue.Params{InputMint: token, OutputMint: NativeMint, InAmount: balance, SlippageBps: o.cfg.SlippageBps}
	} else {
		amount := randomAmountNative(sess.preset.MinSwapNative, sess.preset.MaxSwapNative)
		params = venue.Params{InputMint: NativeMint, OutputMint: token, InAmount: nativeToUnits(amount), SlippageBps: o.cfg.SlippageBps}
	}

	if !sell {
		nativeBal, err := o.balances.NativeBalance(ctx, wallet)
		if err != nil || params.InAmount+o.cfg.ReserveUnits+o.cfg.PerTxFeeUnits > nativeBal {
			sess.stats.record(false, 0)
			return
		}
	}

	signer := o.vault.SignerFor(wallet)
	outcome, err := o.router.Execute(ctx, signer, params)
	if err != nil {
		o.logError("trade failed", "session", sess.id, "wallet", wallet, "token", token, "error", err.Error())
		sess.stats.record(false, 0)
		return
	}

	notional := params.InAmount
	if sell {
		notional = outcome.OutAmount
		if notional == 0 {
			notional = params.InAmount
		}
	}
	sess.stats.record(true, notional)

	if sess.kind == KindActivity {
		sess.markTouched(wallet, token)
	}

	if o.cfg.FeeAccount != "" && o.cfg.FeeBps > 0 {
		o.fees.Collect(ctx, signer, notional, o.cfg.FeeAccount, o.cfg.FeeBps)
	}
}
