package venue_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenchsniper/trenchsniperd/internal/venue"
)

// fakeAccountReader serves canned account bytes keyed by address,
// standing in for chainutil.RPCClient.GetAccountInfo.
type fakeAccountReader struct {
	data map[string][]byte
}

func (f *fakeAccountReader) GetAccountInfo(_ context.Context, address string) ([]byte, error) {
	data, ok := f.data[address]
	if !ok {
		return nil, errors.New("account not found")
	}
	return data, nil
}

// fakeChainSubmitter fakes LatestBlockhash/SubmitTransaction/TransactionStatus
// for exercising BondingCurveClient.Swap without a live RPC connection.
type fakeChainSubmitter struct {
	signature string
	confirmed bool
}

func (f *fakeChainSubmitter) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *fakeChainSubmitter) SubmitTransaction(context.Context, string) (string, error) {
	return f.signature, nil
}

func (f *fakeChainSubmitter) TransactionStatus(context.Context, string) (bool, error, error) {
	return f.confirmed, nil, nil
}

// encodeBondingCurveAccount lays out a bonding curve account the way
// decodeBondingCurveState expects: an 8-byte discriminator (unchecked by
// the client) followed by five little-endian uint64 reserve/supply
// fields and a 1-byte complete flag.
func encodeBondingCurveAccount(virtualSol, virtualToken, realSol, realToken, totalSupply uint64, complete bool) []byte {
	buf := make([]byte, 8+5*8+1)
	binary.LittleEndian.PutUint64(buf[8:16], virtualToken)
	binary.LittleEndian.PutUint64(buf[16:24], virtualSol)
	binary.LittleEndian.PutUint64(buf[24:32], realToken)
	binary.LittleEndian.PutUint64(buf[32:40], realSol)
	binary.LittleEndian.PutUint64(buf[40:48], totalSupply)
	if complete {
		buf[48] = 1
	}
	return buf
}

func bondingCurvePDA(t *testing.T, mint string) string {
	t.Helper()
	mintPub, err := solana.PublicKeyFromBase58(mint)
	require.NoError(t, err)
	programID := solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), mintPub.Bytes()}, programID)
	require.NoError(t, err)
	return pda.String()
}

func TestBondingCurveProbeAndHasGraduated(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey().String()
	pda := bondingCurvePDA(t, mint)

	reader := &fakeAccountReader{data: map[string][]byte{
		pda: encodeBondingCurveAccount(30*solana.LAMPORTS_PER_SOL, 1_000_000_000, 0, 0, 1_000_000_000, false),
	}}
	c := venue.NewBondingCurveClient(reader, &fakeChainSubmitter{})

	available, err := c.Probe(context.Background(), mint)
	require.NoError(t, err)
	assert.True(t, available)

	graduated, err := c.HasGraduated(context.Background(), mint)
	require.NoError(t, err)
	assert.False(t, graduated)
}

func TestBondingCurveHasGraduatedWhenComplete(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey().String()
	pda := bondingCurvePDA(t, mint)

	reader := &fakeAccountReader{data: map[string][]byte{
		pda: encodeBondingCurveAccount(30*solana.LAMPORTS_PER_SOL, 1_000_000_000, 30*solana.LAMPORTS_PER_SOL, 0, 1_000_000_000, true),
	}}
	c := venue.NewBondingCurveClient(reader, &fakeChainSubmitter{})

	graduated, err := c.HasGraduated(context.Background(), mint)
	require.NoError(t, err)
	assert.True(t, graduated)

	available, err := c.Probe(context.Background(), mint)
	require.NoError(t, err)
	assert.False(t, available, "a graduated curve is no longer tradable here")
}

func TestBondingCurveQuoteBuyAppliesConstantProductAndSlippage(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey().String()
	pda := bondingCurvePDA(t, mint)

	const virtualSol = 30 * solana.LAMPORTS_PER_SOL
	const virtualToken = 1_000_000_000_000

	reader := &fakeAccountReader{data: map[string][]byte{
		pda: encodeBondingCurveAccount(virtualSol, virtualToken, 0, 0, virtualToken, false),
	}}
	c := venue.NewBondingCurveClient(reader, &fakeChainSubmitter{})

	inAmount := uint64(1 * solana.LAMPORTS_PER_SOL)
	q, err := c.Quote(context.Background(), venue.Params{
		InputMint: "So11111111111111111111111111111111111111112", OutputMint: mint,
		InAmount: inAmount, SlippageBps: 500,
	}, 0)
	require.NoError(t, err)

	// x*y=k: 1e12 - floor(30e9*1e12 / 31e9) = 1e12 - 967_741_935_483.
	wantOut := uint64(32_258_064_517)
	assert.Equal(t, "bonding_curve", q.Venue)
	assert.Equal(t, wantOut, q.OutAmount)
	assert.Equal(t, wantOut*9_500/10_000, q.MinOutAmount)
	assert.False(t, q.Expired(time.Now()))
	assert.True(t, q.ExpiresAt.After(q.Timestamp))
}

func TestBondingCurveQuoteRejectsGraduatedCurve(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey().String()
	pda := bondingCurvePDA(t, mint)

	reader := &fakeAccountReader{data: map[string][]byte{
		pda: encodeBondingCurveAccount(30*solana.LAMPORTS_PER_SOL, 0, 30*solana.LAMPORTS_PER_SOL, 0, 0, true),
	}}
	c := venue.NewBondingCurveClient(reader, &fakeChainSubmitter{})

	_, err := c.Quote(context.Background(), venue.Params{
		InputMint: "So11111111111111111111111111111111111111112", OutputMint: mint,
		InAmount: 1_000, SlippageBps: 100,
	}, 0)
	assert.Error(t, err)
}

func TestBondingCurveSwapConfirms(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey().String()
	pda := bondingCurvePDA(t, mint)
	signer := venueSigner{pub: solana.NewWallet().PublicKey().String()}

	reader := &fakeAccountReader{data: map[string][]byte{
		pda: encodeBondingCurveAccount(30*solana.LAMPORTS_PER_SOL, 1_000_000_000, 0, 0, 1_000_000_000, false),
	}}
	c := venue.NewBondingCurveClient(reader, &fakeChainSubmitter{signature: "sig-bc-1", confirmed: true})

	quote := venue.Quote{
		Venue: "bonding_curve", InputMint: "So11111111111111111111111111111111111111112",
		OutputMint: mint, InAmount: 1_000_000, MinOutAmount: 1,
	}
	outcome, err := c.Swap(context.Background(), quote, signer)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
	assert.Equal(t, "sig-bc-1", outcome.Signature)
}
