package orchestrator

import (
	"context"

	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// StopSession cancels all of a session's per-wallet loops and removes
// it from the registry. Idempotent: stopping an unknown or
// already-stopped session returns ErrNotFound, never panics.
func (o *Orchestrator) StopSession(ctx context.Context, id string, sellHeld bool) (FinalStats, error) {
	o.mu.Lock()
	sess, ok := o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return FinalStats{}, sniperr.ErrNotFound
	}
	delete(o.sessions, id)
	o.mu.Unlock()

	sess.running.Store(false)
	sess.cancel()
	sess.wg.Wait()

	final := FinalStats{Stats: sess.stats.snapshot()}

	if sellHeld || sess.kind == KindActivity {
		sold, failed := o.sellBack(ctx, sess)
		final.SoldCount = sold
		final.SellFailures = failed
	}

	return final, nil
}

// sellBack attempts to sell every token a wallet touched during the
// session back to native, swallowing individual failures.
func (o *Orchestrator) sellBack(ctx context.Context, sess *Session) (sold, failed int) {
	touched := sess.touchedTokens()

	if sess.kind != KindActivity {
		for _, wallet := range sess.wallets {
			touched[wallet] = map[string]bool{sess.token: true}
		}
	}

	for wallet, tokens := range touched {
		signer := o.vault.SignerFor(wallet)
		for token := range tokens {
			balance, err := o.balances.TokenBalance(ctx, wallet, token)
			if err != nil || balance == 0 {
				continue
			}

			params := venue.Params{
				InputMint:   token,
				OutputMint:  NativeMint,
				InAmount:    balance,
				SlippageBps: o.cfg.SlippageBps,
			}
			if _, err := o.router.Execute(ctx, signer, params); err != nil {
				failed++
				o.logError("cleanup sell-back failed", "wallet", wallet, "token", token, "error", err.Error())
				continue
			}
			sold++
		}
	}

	return sold, failed
}
