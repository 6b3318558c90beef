package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"

	"filippo.io/age"
)

// scryptWorkFactor controls the cost parameter of the password-based KDF.
// Default is age's secure default (18); tests lower it for speed.
//
//nolint:gochecknoglobals // package-level atomic for thread-safe work factor configuration
var scryptWorkFactor atomic.Int32

//nolint:gochecknoinits
func init() {
	scryptWorkFactor.Store(18)
}

// SetScryptWorkFactor sets the scrypt work factor used by sealBlob and
// openBlob. Range 10 (fast/insecure) to 22 (very secure). Use only in
// tests — production vaults must stay at the default.
func SetScryptWorkFactor(factor int) {
	if factor < 10 {
		factor = 10
	} else if factor > 22 {
		factor = 22
	}
	scryptWorkFactor.Store(int32(factor))
}

// sealBlob encrypts plaintext with a password-derived age recipient,
// producing the vault's on-disk envelope.
func sealBlob(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(int(scryptWorkFactor.Load()))

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// openBlob decrypts ciphertext sealed by sealBlob. Returns ErrInvalidPassword
// (via the caller, which maps age's generic failure) when the password is
// wrong or the envelope is corrupt — age does not distinguish the two.
func openBlob(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	identity.SetMaxWorkFactor(int(scryptWorkFactor.Load()))

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}
