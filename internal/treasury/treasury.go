// Package treasury implements the Treasury Mover: fund and sweep
// operations over plain native-token transfers, with pre-flight balance
// checks and confirmation polling (§4.5). Unlike internal/venue, which
// talks to DEX builder endpoints, transfers here are a single
// system-program instruction, so the Mover builds, signs, and submits
// them directly rather than delegating to a remote builder.
package treasury

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/trenchsniper/trenchsniperd/internal/chainutil"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// Default confirmation cadence (§4.5).
const (
	DefaultConfirmCadence  = 2500 * time.Millisecond
	DefaultConfirmAttempts = 8
)

// ChainClient is the minimal chain surface the Mover needs: balance
// lookups, a recent blockhash to stamp transfers with, and
// submit/confirm for the signed result.
type ChainClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SubmitTransaction(ctx context.Context, signedTxB64 string) (signature string, err error)
	TransactionStatus(ctx context.Context, signature string) (confirmed bool, rejectErr error, err error)
}

// Protector reports whether an address is protected by a launch record
// and must be excluded from cleanup-path operations (§3, §4.5).
type Protector interface {
	IsProtected(address string) bool
}

// Config tunes the Mover's pre-flight math and confirmation budget.
type Config struct {
	PerTxFeeUnits    uint64 // flat fee reserved per submitted transfer
	RentReserveUnits uint64 // additional reserve held back on the source
	ConfirmCadence   time.Duration
	ConfirmAttempts  int
}

func (c Config) withDefaults() Config {
	if c.ConfirmCadence <= 0 {
		c.ConfirmCadence = DefaultConfirmCadence
	}
	if c.ConfirmAttempts <= 0 {
		c.ConfirmAttempts = DefaultConfirmAttempts
	}
	return c
}

// FundFailure reports why an individual target could not be funded.
type FundFailure struct {
	Target string
	Reason string
}

// FundResult is the outcome of a fund operation.
type FundResult struct {
	FundedCount int
	Failures    []FundFailure
}

// SweepFailure reports why an individual source could not be swept.
type SweepFailure struct {
	Source string
	Reason string
}

// SweepResult is the outcome of a sweep operation.
type SweepResult struct {
	SweptTotal uint64
	Failures   []SweepFailure
}

// Mover fund/sweeps native-token balances across vault wallets. It holds
// no wallet secrets; callers supply a venue.Signer per source address.
type Mover struct {
	chain       ChainClient
	protector   Protector
	rateLimiter *chainutil.RateLimiter
	cfg         Config
}

// New builds a Mover. rateLimiter paces submitted transfers as a token
// bucket (requests per second plus a burst); it does not bound how many
// transfers are in flight at once. Pass chainutil.DefaultRateLimiter()
// if the caller has no specific policy.
func New(chain ChainClient, protector Protector, rateLimiter *chainutil.RateLimiter, cfg Config) *Mover {
	return &Mover{chain: chain, protector: protector, rateLimiter: rateLimiter, cfg: cfg.withDefaults()}
}

// Fund sends perTargetNative to each of targets from fromSigner/fromAddress.
// It pre-checks fromAddress's balance against the full batch cost and
// refuses to submit anything if the balance is insufficient (§4.5).
func (m *Mover) Fund(ctx context.Context, fromSigner venue.Signer, fromAddress string, targets []string, perTargetNative uint64) (FundResult, error) {
	needed := uint64(len(targets))*(perTargetNative+m.cfg.PerTxFeeUnits) + m.cfg.RentReserveUnits

	available, err := m.chain.GetBalance(ctx, fromAddress)
	if err != nil {
		return FundResult{}, fmt.Errorf("checking source balance: %w", err)
	}
	if available < needed {
		return FundResult{}, sniperr.WithDetails(sniperr.ErrInsufficientFunds, map[string]string{
			"needed":    fmt.Sprintf("%d", needed),
			"available": fmt.Sprintf("%d", available),
		})
	}

	result := FundResult{}
	for _, target := range targets {
		if err := m.wait(ctx); err != nil {
			result.Failures = append(result.Failures, FundFailure{Target: target, Reason: err.Error()})
			continue
		}

		signature, err := m.transfer(ctx, fromSigner, fromAddress, target, perTargetNative)
		if err != nil {
			result.Failures = append(result.Failures, FundFailure{Target: target, Reason: err.Error()})
			continue
		}
		_ = signature
		result.FundedCount++
	}

	return result, nil
}

// Transfer sends a single native-token transfer from signer's own
// address to "to". It satisfies feecollector.Transferrer, letting the
// Fee Collector reuse the Mover's signing/submission path for platform
// fee sweeps without a second chain client.
func (m *Mover) Transfer(ctx context.Context, signer venue.Signer, to string, amountUnits uint64) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return m.transfer(ctx, signer, signer.PublicKey(), to, amountUnits)
}

// Sweep drains each source down to keepReserveNative, sending the
// remainder to "to". Sources that equal "to", are protected by a
// launch record, or whose send amount would be non-positive are
// skipped with a reason rather than treated as hard failures (§4.5).
func (m *Mover) Sweep(ctx context.Context, sources map[string]venue.Signer, to string, keepReserveNative uint64) (SweepResult, error) {
	result := SweepResult{}

	for address, signer := range sources {
		if address == to {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: "source equals destination"})
			continue
		}
		if m.protector != nil && m.protector.IsProtected(address) {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: "wallet is protected by a launch record"})
			continue
		}

		balance, err := m.chain.GetBalance(ctx, address)
		if err != nil {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: err.Error()})
			continue
		}

		send := sub(balance, keepReserveNative+m.cfg.PerTxFeeUnits)
		if send == 0 {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: "balance below reserve plus fee"})
			continue
		}

		if err := m.wait(ctx); err != nil {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: err.Error()})
			continue
		}

		if _, err := m.transfer(ctx, signer, address, to, send); err != nil {
			result.Failures = append(result.Failures, SweepFailure{Source: address, Reason: err.Error()})
			continue
		}
		result.SweptTotal += send
	}

	return result, nil
}

func sub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func (m *Mover) wait(ctx context.Context) error {
	if m.rateLimiter == nil {
		return nil
	}
	return m.rateLimiter.Wait(ctx, "treasury-submit")
}

// transfer builds, signs, submits, and confirms a single native
// transfer, returning the confirmed signature.
func (m *Mover) transfer(ctx context.Context, signer venue.Signer, from, to string, amountUnits uint64) (string, error) {
	fromPub, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return "", fmt.Errorf("parsing source address: %w", err)
	}
	toPub, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("parsing destination address: %w", err)
	}

	blockhash, err := m.chain.LatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching blockhash: %w", err)
	}

	ix := system.NewTransferInstruction(amountUnits, fromPub, toPub).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(fromPub))
	if err != nil {
		return "", fmt.Errorf("building transfer transaction: %w", err)
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("marshaling transfer message: %w", err)
	}

	sigBytes, err := signer.Sign(ctx, messageBytes)
	if err != nil {
		return "", fmt.Errorf("signing transfer: %w", err)
	}
	tx.Signatures = []solana.Signature{solana.SignatureFromBytes(sigBytes)}

	signedBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("marshaling signed transfer: %w", err)
	}

	signature, err := m.chain.SubmitTransaction(ctx, base64.StdEncoding.EncodeToString(signedBytes))
	if err != nil {
		return "", sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"error": err.Error()})
	}

	outcome, pollErr := chainutil.PollUntil(ctx, func(ctx context.Context) (bool, error, error) {
		return m.chain.TransactionStatus(ctx, signature)
	}, m.cfg.ConfirmCadence, m.cfg.ConfirmAttempts)

	switch outcome {
	case chainutil.PollConfirmed:
		return signature, nil
	case chainutil.PollRejected:
		return signature, sniperr.WithDetails(sniperr.ErrOnChainReject, map[string]string{"signature": signature, "reason": errString(pollErr)})
	default:
		return signature, sniperr.WithDetails(sniperr.ErrNotConfirmed, map[string]string{"signature": signature})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
