package chainutil

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/trenchsniper/trenchsniperd/internal/metrics"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// RPCClient is the thin wrapper around a Solana JSON-RPC endpoint that
// satisfies both treasury.ChainClient and orchestrator.BalanceReader,
// so the control plane's native-balance, blockhash, submission, and
// confirmation needs all go through one rate-limited connection. Built
// on solana-go/rpc rather than a hand-rolled HTTP client, the way the
// rest of this codebase reaches for solana-go for every other chain
// interaction instead of re-implementing the wire protocol.
type RPCClient struct {
	client      *rpc.Client
	rateLimiter *RateLimiter
}

// NewRPCClient dials endpoint with the shared submission rate limiter.
// A nil limiter disables throttling (tests only).
func NewRPCClient(endpoint string, limiter *RateLimiter) *RPCClient {
	return &RPCClient{client: rpc.New(endpoint), rateLimiter: limiter}
}

func (c *RPCClient) wait(ctx context.Context, endpoint string) error {
	if c.rateLimiter == nil {
		return nil
	}
	return c.rateLimiter.Wait(ctx, endpoint)
}

// recordCall times fn and records it as one RPC call in metrics.Global,
// regardless of which underlying method the caller invoked.
func recordCall(fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.Global.RecordRPCCall(time.Since(start), err)
	return err
}

// GetBalance returns address's lamport balance. Also serves as
// NativeBalance for orchestrator.BalanceReader.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	if err := c.wait(ctx, "getBalance"); err != nil {
		return 0, err
	}

	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, sniperr.Wrap(err, "parsing address")
	}

	var balance uint64
	err = recordCall(func() error {
		out, callErr := c.client.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
		if callErr != nil {
			return fmt.Errorf("fetching balance: %w", callErr)
		}
		balance = out.Value
		return nil
	})
	return balance, err
}

// NativeBalance implements orchestrator.BalanceReader by delegating to
// GetBalance; native balances and vault-facing balances are the same
// lamport figure.
func (c *RPCClient) NativeBalance(ctx context.Context, address string) (uint64, error) {
	return c.GetBalance(ctx, address)
}

// TokenBalance returns the SPL token balance address holds for mint,
// summed across every token account address owns for that mint (an
// owner may hold more than one account per mint, though in practice
// wallets created by this control plane only ever have one).
func (c *RPCClient) TokenBalance(ctx context.Context, address, mint string) (uint64, error) {
	if err := c.wait(ctx, "getTokenAccountsByOwner"); err != nil {
		return 0, err
	}

	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, sniperr.Wrap(err, "parsing address")
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, sniperr.Wrap(err, "parsing mint")
	}

	out, err := c.client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mintKey},
		&rpc.GetTokenAccountsOpts{Commitment: rpc.CommitmentConfirmed, Encoding: solana.EncodingJSONParsed})
	if err != nil {
		return 0, fmt.Errorf("fetching token accounts: %w", err)
	}

	var total uint64
	for _, acc := range out.Value {
		bal, balErr := c.client.GetTokenAccountBalance(ctx, acc.Pubkey, rpc.CommitmentConfirmed)
		if balErr != nil {
			continue
		}
		amount, convErr := parseUint64(bal.Value.Amount)
		if convErr != nil {
			continue
		}
		total += amount
	}
	return total, nil
}

// LatestBlockhash fetches the current blockhash transactions should be
// built against.
func (c *RPCClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx, "getLatestBlockhash"); err != nil {
		return solana.Hash{}, err
	}

	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("fetching latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// SubmitTransaction submits a base64-encoded, fully-signed transaction
// and returns its signature.
func (c *RPCClient) SubmitTransaction(ctx context.Context, signedTxB64 string) (string, error) {
	if err := c.wait(ctx, "sendTransaction"); err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(signedTxB64)
	if err != nil {
		return "", sniperr.Wrap(err, "decoding signed transaction")
	}

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return "", sniperr.Wrap(err, "decoding transaction")
	}

	var signature string
	err = recordCall(func() error {
		_, retryErr := RetryWithConfig(ctx, "sendTransaction", RPCRetryConfig(), func() (struct{}, error) {
			sig, sendErr := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
				SkipPreflight:       false,
				PreflightCommitment: rpc.CommitmentConfirmed,
			})
			if sendErr != nil {
				return struct{}{}, WrapRetryable(sendErr)
			}
			signature = sig.String()
			return struct{}{}, nil
		})
		if retryErr != nil {
			return sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"error": retryErr.Error()})
		}
		return nil
	})
	return signature, err
}

// TransactionStatus reports whether signature has confirmed, been
// rejected, or is still pending, matching the tri-state statusFn shape
// venue confirmation and treasury polling both expect.
func (c *RPCClient) TransactionStatus(ctx context.Context, signature string) (confirmed bool, rejectErr error, err error) {
	if waitErr := c.wait(ctx, "getSignatureStatuses"); waitErr != nil {
		return false, nil, waitErr
	}

	sig, parseErr := solana.SignatureFromBase58(signature)
	if parseErr != nil {
		return false, nil, sniperr.Wrap(parseErr, "parsing signature")
	}

	out, rpcErr := c.client.GetSignatureStatuses(ctx, true, sig)
	if rpcErr != nil {
		return false, nil, fmt.Errorf("fetching signature status: %w", rpcErr)
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("on-chain error: %v", status.Err), nil
	}
	if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		return true, nil, nil
	}
	return false, nil, nil
}

func parseUint64(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// GetAccountInfo returns the raw account data stored at address,
// decoded from the RPC's base64 encoding. Used by venue clients that
// read on-chain program state directly (e.g. a bonding-curve account's
// reserves) instead of going through an off-chain builder API.
func (c *RPCClient) GetAccountInfo(ctx context.Context, address string) ([]byte, error) {
	if err := c.wait(ctx, "getAccountInfo"); err != nil {
		return nil, err
	}

	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, sniperr.Wrap(err, "parsing account address")
	}

	var data []byte
	err = recordCall(func() error {
		out, callErr := c.client.GetAccountInfoWithOpts(ctx, pub, &rpc.GetAccountInfoOpts{
			Encoding:   rpc.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		if callErr != nil {
			return fmt.Errorf("fetching account info: %w", callErr)
		}
		if out == nil || out.Value == nil {
			return sniperr.Wrap(errAccountNotFound, address)
		}
		data = out.Value.Data.GetBinary()
		return nil
	})
	return data, err
}

var errAccountNotFound = errors.New("account not found")
