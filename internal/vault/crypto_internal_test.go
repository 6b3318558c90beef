package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetScryptWorkFactor(10) // keep the test suite fast
}

func TestSealOpenBlobRoundTrip(t *testing.T) {
	t.Parallel()
	plaintext := []byte("wallet vault contents")
	password := "strong-passphrase-123" // gitleaks:allow

	ciphertext, err := sealBlob(plaintext, password)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.NotEmpty(t, ciphertext)

	decrypted, err := openBlob(ciphertext, password)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestOpenBlobWrongPassword(t *testing.T) {
	t.Parallel()
	ciphertext, err := sealBlob([]byte("secret"), "correct-password") // gitleaks:allow
	require.NoError(t, err)

	_, err = openBlob(ciphertext, "wrong-password")
	assert.Error(t, err)
}

func TestSealOpenBlobEmptyPlaintext(t *testing.T) {
	t.Parallel()
	ciphertext, err := sealBlob([]byte{}, "password") // gitleaks:allow
	require.NoError(t, err)

	decrypted, err := openBlob(ciphertext, "password")
	require.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestSecretDestroyZeroesAndUnlocks(t *testing.T) {
	t.Parallel()
	s := secretFromSlice([]byte{1, 2, 3, 4})
	assert.Equal(t, 4, s.Len())

	s.Destroy()
	assert.Nil(t, s.Bytes())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.IsLocked())
}

func TestSecretDestroyIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newSecret(8)
	s.Destroy()
	assert.NotPanics(t, func() { s.Destroy() })
}
