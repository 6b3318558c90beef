package venue

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	pub  solana.PublicKey
	priv ed25519.PrivateKey
}

func newFakeSigner(t *testing.T) fakeSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return fakeSigner{pub: solana.PublicKeyFromBytes(pub), priv: priv}
}

func (f fakeSigner) PublicKey() string { return f.pub.String() }

func (f fakeSigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	return ed25519.Sign(f.priv, message), nil
}

func unsignedTransferTxBase64(t *testing.T, payer solana.PublicKey) string {
	t.Helper()

	ix := system.NewTransferInstruction(1, payer, solana.SystemProgramID).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(raw)
}

func TestSignTransactionProducesValidSignature(t *testing.T) {
	t.Parallel()
	signer := newFakeSigner(t)
	unsigned := unsignedTransferTxBase64(t, signer.pub)

	signedB64, err := signTransaction(context.Background(), unsigned, signer)
	require.NoError(t, err)

	signedTx, err := solana.TransactionFromBase64(signedB64)
	require.NoError(t, err)
	require.Len(t, signedTx.Signatures, 1)
	assert.NotEqual(t, solana.Signature{}, signedTx.Signatures[0])

	messageBytes, err := signedTx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(signer.pub.Bytes(), messageBytes, signedTx.Signatures[0][:]))
}

func TestSignTransactionRejectsTooFewSigners(t *testing.T) {
	t.Parallel()
	payer := newFakeSigner(t)
	newAccount := newFakeSigner(t)

	ix := system.NewCreateAccountInstruction(1, 0, solana.SystemProgramID, payer.pub, newAccount.pub).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer.pub))
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	unsigned := base64.StdEncoding.EncodeToString(raw)

	// This transaction requires two signatures (payer + newAccount) but
	// only one signer is supplied.
	_, err = signTransaction(context.Background(), unsigned, payer)
	assert.Error(t, err)
}
