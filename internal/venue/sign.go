package venue

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// signTransaction decodes the base64 unsigned transaction a builder
// endpoint returned, has signer (and extraSigners, in order, for any
// additional required signatures such as a freshly generated mint
// keypair) authorize the message, and re-encodes the now-signed
// transaction for submission. The Signer interface never exposes key
// material to this package; it only ever sees the bytes to sign.
func signTransaction(ctx context.Context, unsignedTxB64 string, signer Signer, extraSigners ...Signer) (string, error) {
	tx, err := solana.TransactionFromBase64(unsignedTxB64)
	if err != nil {
		return "", fmt.Errorf("parsing unsigned transaction: %w", err)
	}

	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("marshaling transaction message: %w", err)
	}

	numRequired := int(tx.Message.Header.NumRequiredSignatures)
	signers := append([]Signer{signer}, extraSigners...)
	if len(signers) < numRequired {
		return "", fmt.Errorf("swap requires %d signers, got %d", numRequired, len(signers))
	}

	tx.Signatures = make([]solana.Signature, numRequired)
	for i := 0; i < numRequired; i++ {
		sigBytes, signErr := signers[i].Sign(ctx, messageBytes)
		if signErr != nil {
			return "", fmt.Errorf("signing with signer %d: %w", i, signErr)
		}
		tx.Signatures[i] = solana.SignatureFromBytes(sigBytes)
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("marshaling signed transaction: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signed), nil
}
