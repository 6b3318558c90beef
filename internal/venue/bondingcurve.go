package venue

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

const bondingCurveVenueID = "bonding_curve"

// bondingCurveProgramID is the pre-graduation bonding-curve program's
// on-chain address. Every account this client reads or writes is
// derived relative to it, rather than through an off-chain builder API
// the way the AMM and aggregator venues work.
var bondingCurveProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

// Anchor-style 8-byte instruction discriminators (sighash of
// "global:buy" / "global:sell"). The bonding-curve program's IDL is
// not in solana-go, so this client, like any off-IDL caller, pins the
// discriminator bytes directly instead of generating them.
var (
	bondingCurveBuyDiscriminator  = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	bondingCurveSellDiscriminator = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
)

// bondingCurveAccountLen is the minimum decoded length of a bonding
// curve account: an 8-byte Anchor discriminator followed by five
// little-endian uint64 reserve/supply fields and a 1-byte complete flag.
const bondingCurveAccountLen = 8 + 5*8 + 1

// AccountReader reads raw account data directly off-chain, the way
// BondingCurveClient prices and sizes a trade against the bonding
// curve's own reserves instead of asking a builder service for a quote.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, address string) ([]byte, error)
}

// ChainSubmitter is the minimal chain surface BondingCurveClient needs
// beyond reading account state: a blockhash to stamp instructions with
// and submit/confirm for the signed result.
type ChainSubmitter interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SubmitTransaction(ctx context.Context, signedTxB64 string) (signature string, err error)
	TransactionStatus(ctx context.Context, signature string) (confirmed bool, rejectErr error, err error)
}

// BondingCurveClient trades against the pre-graduation bonding-curve
// market for a token by constructing the program's buy/sell
// instructions directly via solana-go, rather than delegating
// transaction construction to a remote HTTP builder the way the AMM
// and aggregator venues do. It additionally reports graduation so the
// router can detect migration to an AMM.
type BondingCurveClient struct {
	chain     AccountReader
	submitter ChainSubmitter
}

// NewBondingCurveClient builds a client that reads bonding-curve
// reserves and submits swaps directly against chain, via reader for
// account lookups and submitter for blockhash/submit/confirm.
func NewBondingCurveClient(reader AccountReader, submitter ChainSubmitter) *BondingCurveClient {
	return &BondingCurveClient{chain: reader, submitter: submitter}
}

// ID implements Client.
func (c *BondingCurveClient) ID() string { return bondingCurveVenueID }

// bondingCurveState is the decoded reserve/supply state of one
// bonding-curve account, laid out the way pump.fun-style programs
// commonly store it after the Anchor discriminator.
type bondingCurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// bondingCurveAddress derives the bonding-curve PDA for tokenMint:
// seeds ["bonding-curve", mint], owned by bondingCurveProgramID.
func bondingCurveAddress(tokenMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), tokenMint.Bytes()}, bondingCurveProgramID)
}

func (c *BondingCurveClient) readState(ctx context.Context, tokenMint string) (solana.PublicKey, bondingCurveState, error) {
	mintPub, err := solana.PublicKeyFromBase58(tokenMint)
	if err != nil {
		return solana.PublicKey{}, bondingCurveState{}, sniperr.Wrap(err, "parsing token mint")
	}

	curvePDA, _, err := bondingCurveAddress(mintPub)
	if err != nil {
		return solana.PublicKey{}, bondingCurveState{}, fmt.Errorf("deriving bonding curve address: %w", err)
	}

	data, err := c.chain.GetAccountInfo(ctx, curvePDA.String())
	if err != nil {
		return curvePDA, bondingCurveState{}, err
	}

	state, err := decodeBondingCurveState(data)
	if err != nil {
		return curvePDA, bondingCurveState{}, err
	}
	return curvePDA, state, nil
}

func decodeBondingCurveState(data []byte) (bondingCurveState, error) {
	if len(data) < bondingCurveAccountLen {
		return bondingCurveState{}, fmt.Errorf("bonding curve account too short: got %d bytes, want >= %d", len(data), bondingCurveAccountLen)
	}

	body := data[8:] // skip Anchor discriminator
	return bondingCurveState{
		VirtualTokenReserves: binary.LittleEndian.Uint64(body[0:8]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(body[8:16]),
		RealTokenReserves:    binary.LittleEndian.Uint64(body[16:24]),
		RealSolReserves:      binary.LittleEndian.Uint64(body[24:32]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(body[32:40]),
		Complete:             body[40] != 0,
	}, nil
}

// Probe implements Client: a mint is tradable here if its bonding
// curve account exists and has not yet graduated.
func (c *BondingCurveClient) Probe(ctx context.Context, tokenMint string) (bool, error) {
	_, state, err := c.readState(ctx, tokenMint)
	if err != nil {
		return false, fmt.Errorf("probing bonding curve for %s: %w", tokenMint, err)
	}
	return !state.Complete, nil
}

// HasGraduated implements GraduationChecker.
func (c *BondingCurveClient) HasGraduated(ctx context.Context, tokenMint string) (bool, error) {
	_, state, err := c.readState(ctx, tokenMint)
	if err != nil {
		return false, fmt.Errorf("checking graduation for %s: %w", tokenMint, err)
	}
	return state.Complete, nil
}

// nativeMint is wrapped SOL's mint address, used to tell a buy
// (native in, token out) from a sell (token in, native out).
const nativeMint = "So11111111111111111111111111111111111111112"

// Quote implements Client, pricing against the bonding curve's own
// constant-product reserves rather than an off-chain quote endpoint.
func (c *BondingCurveClient) Quote(ctx context.Context, params Params, validityWindow time.Duration) (Quote, error) {
	if validityWindow <= 0 {
		validityWindow = DefaultValidityWindow
	}

	mint := params.OutputMint
	if params.InputMint != nativeMint {
		mint = params.InputMint
	}

	_, state, err := c.readState(ctx, mint)
	if err != nil {
		return Quote{}, fmt.Errorf("quoting bonding curve %s->%s: %w", params.InputMint, params.OutputMint, err)
	}
	if state.Complete {
		return Quote{}, fmt.Errorf("bonding curve for %s has graduated", mint)
	}

	isBuy := params.InputMint == nativeMint
	outAmount := constantProductOut(state, params.InAmount, isBuy)
	minOut := applySlippage(outAmount, params.SlippageBps)
	now := time.Now()

	return Quote{
		Venue:        bondingCurveVenueID,
		InputMint:    params.InputMint,
		OutputMint:   params.OutputMint,
		InAmount:     params.InAmount,
		OutAmount:    outAmount,
		MinOutAmount: minOut,
		Timestamp:    now,
		ExpiresAt:    now.Add(validityWindow),
	}, nil
}

// constantProductOut computes the bonding curve's x*y=k output for a
// trade of inAmount, buying tokens with SOL when isBuy, selling tokens
// for SOL otherwise.
func constantProductOut(state bondingCurveState, inAmount uint64, isBuy bool) uint64 {
	solReserves := state.VirtualSolReserves
	tokenReserves := state.VirtualTokenReserves
	if solReserves == 0 || tokenReserves == 0 {
		return 0
	}

	// k is held as a 128-bit product: real reserves overflow uint64.
	kHi, kLo := bits.Mul64(solReserves, tokenReserves)

	if isBuy {
		newSol := solReserves + inAmount
		newTokens, _ := bits.Div64(kHi, kLo, newSol)
		if newTokens >= tokenReserves {
			return 0
		}
		return tokenReserves - newTokens
	}

	newTokens := tokenReserves + inAmount
	newSol, _ := bits.Div64(kHi, kLo, newTokens)
	if newSol >= solReserves {
		return 0
	}
	return solReserves - newSol
}

// Swap implements Client: it builds a buy or sell instruction against
// the bonding curve program directly, has signer authorize it, and
// submits/polls through the chain submitter.
func (c *BondingCurveClient) Swap(ctx context.Context, quote Quote, signer Signer, _ ...Signer) (SwapOutcome, error) {
	mint := quote.OutputMint
	isBuy := quote.InputMint == nativeMint
	if !isBuy {
		mint = quote.InputMint
	}

	mintPub, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return SwapOutcome{}, sniperr.Wrap(err, "parsing token mint")
	}
	userPub, err := solana.PublicKeyFromBase58(signer.PublicKey())
	if err != nil {
		return SwapOutcome{}, sniperr.Wrap(err, "parsing signer address")
	}
	curvePDA, _, err := bondingCurveAddress(mintPub)
	if err != nil {
		return SwapOutcome{}, fmt.Errorf("deriving bonding curve address: %w", err)
	}

	ix := buildBondingCurveInstruction(curvePDA, mintPub, userPub, quote.InAmount, quote.MinOutAmount, isBuy)

	blockhash, err := c.submitter.LatestBlockhash(ctx)
	if err != nil {
		return SwapOutcome{}, fmt.Errorf("fetching blockhash: %w", err)
	}

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(userPub))
	if err != nil {
		return SwapOutcome{}, fmt.Errorf("building bonding curve swap transaction: %w", err)
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return SwapOutcome{}, fmt.Errorf("marshaling swap message: %w", err)
	}

	sigBytes, err := signer.Sign(ctx, messageBytes)
	if err != nil {
		return SwapOutcome{}, sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"reason": err.Error()})
	}
	tx.Signatures = []solana.Signature{solana.SignatureFromBytes(sigBytes)}

	signedBytes, err := tx.MarshalBinary()
	if err != nil {
		return SwapOutcome{}, fmt.Errorf("marshaling signed swap transaction: %w", err)
	}

	signature, err := c.submitter.SubmitTransaction(ctx, base64.StdEncoding.EncodeToString(signedBytes))
	if err != nil {
		return SwapOutcome{}, sniperr.WithDetails(sniperr.ErrSubmissionFailed, map[string]string{"reason": err.Error()})
	}

	return pollConfirmation(ctx, signature, func(ctx context.Context) (bool, error, error) {
		return c.submitter.TransactionStatus(ctx, signature)
	})
}

// bondingCurveInstructionDataLen is the discriminator plus two
// little-endian uint64 arguments (amount, minOut/maxCost).
const bondingCurveInstructionDataLen = 8 + 8 + 8

// buildBondingCurveInstruction encodes a buy or sell call against the
// bonding curve program: an 8-byte discriminator followed by the trade
// amount and the slippage-bounded counterparty amount, both
// little-endian uint64, against the curve PDA, the mint, and the
// user's own authority.
func buildBondingCurveInstruction(curvePDA, mint, user solana.PublicKey, amount, boundedAmount uint64, isBuy bool) solana.Instruction {
	data := make([]byte, bondingCurveInstructionDataLen)
	if isBuy {
		copy(data[0:8], bondingCurveBuyDiscriminator[:])
	} else {
		copy(data[0:8], bondingCurveSellDiscriminator[:])
	}
	binary.LittleEndian.PutUint64(data[8:16], amount)
	binary.LittleEndian.PutUint64(data[16:24], boundedAmount)

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(curvePDA, true, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(user, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return solana.NewInstruction(bondingCurveProgramID, accounts, data)
}

// applySlippage computes the minimum acceptable output amount after
// slippage, for buys and sells alike, rounding down so the guarantee is
// never optimistic.
func applySlippage(outAmount uint64, slippageBps int) uint64 {
	if slippageBps <= 0 {
		return outAmount
	}
	reduced := outAmount * uint64(10_000-slippageBps) / 10_000
	return reduced
}
