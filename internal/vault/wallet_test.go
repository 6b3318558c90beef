package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateWalletName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "sniper_1", false},
		{"too long", string(make([]byte, 65)), true},
		{"null bytes", string(make([]byte, 4)), true},
		{"empty", "", true},
		{"spaces", "has space", true},
		{"dashes", "has-dash", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateWalletName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateKind(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateKind(KindSniper))
	assert.NoError(t, ValidateKind(KindTreasury))
	assert.NoError(t, ValidateKind(KindBurner))
	assert.ErrorIs(t, ValidateKind(Kind("rug")), ErrInvalidKind)
}

func TestWalletHandleHidesSecret(t *testing.T) {
	t.Parallel()

	w := wallet{ID: "w1", Address: "addr", Name: "n", Kind: KindSniper, Secret: "should-not-leak"}
	h := w.handle()

	assert.Equal(t, "w1", h.ID)
	assert.Equal(t, "addr", h.Address)
	// Handle has no Secret field at all — compile-time guarantee that
	// callers outside the vault package cannot reach it.
}
