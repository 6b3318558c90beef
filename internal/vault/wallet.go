package vault

import (
	"errors"
	"regexp"
)

// Kind tags the purpose a wallet is used for.
type Kind string

// Wallet kinds (§3).
const (
	KindSniper   Kind = "sniper"
	KindTreasury Kind = "treasury"
	KindBurner   Kind = "burner"
)

// ErrInvalidWalletName indicates a wallet name does not satisfy walletNameRegex.
var ErrInvalidWalletName = errors.New("wallet name must be 1-64 alphanumeric characters or underscores")

// ErrInvalidKind indicates a wallet type tag is not one of the known kinds.
var ErrInvalidKind = errors.New("wallet type must be sniper, treasury, or burner")

var walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,64}$`)

// ValidateWalletName checks a proposed wallet display name.
func ValidateWalletName(name string) error {
	if !walletNameRegex.MatchString(name) {
		return ErrInvalidWalletName
	}
	return nil
}

// ValidateKind checks a proposed wallet type tag.
func ValidateKind(k Kind) error {
	switch k {
	case KindSniper, KindTreasury, KindBurner:
		return nil
	default:
		return ErrInvalidKind
	}
}

// wallet is the vault's internal record for one signing identity. Secret
// holds the persisted base58 key; the decoded key is kept in the vault's
// secrets map only while the vault is unlocked.
type wallet struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	CreatedAt string `json:"created_at"`

	// Secret is the base58-encoded private key as persisted inside the
	// sealed blob. Never populated outside the vault process.
	Secret string `json:"secret"`
}

// Handle is the address-only view of a wallet exposed to the rest of the
// control plane. Components request signing operations by ID; they never
// see secret material (§3 "other components hold address strings").
type Handle struct {
	ID        string
	Address   string
	Name      string
	Kind      Kind
	CreatedAt string
}

func (w wallet) handle() Handle {
	return Handle{
		ID:        w.ID,
		Address:   w.Address,
		Name:      w.Name,
		Kind:      w.Kind,
		CreatedAt: w.CreatedAt,
	}
}
