package vault

import (
	"context"

	"github.com/trenchsniper/trenchsniperd/internal/venue"
)

// Session wraps an unlocked Vault with the password needed for further
// mutating calls (GenerateBatch, Import, ...), so callers that only see
// addresses and signing capability — the orchestrator, the CLI's
// session commands — never have to carry the password around
// themselves. Lock does not invalidate it: after Lock, Addresses returns
// ErrLocked and signers report unknown wallets, while GenerateWallets
// re-opens the vault from disk with the bound password.
type Session struct {
	v        *Vault
	password string
}

// NewSession binds password to v. The caller is responsible for having
// already called v.Unlock(password) successfully; NewSession does not
// unlock on its own so callers can distinguish "wrong password" from
// "vault wiring error" at the point they actually unlock.
func NewSession(v *Vault, password string) *Session {
	return &Session{v: v, password: password}
}

// Addresses returns every wallet address currently held.
func (s *Session) Addresses() ([]string, error) {
	handles, err := s.v.Handles()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = h.Address
	}
	return out, nil
}

// GenerateWallets creates count new Sniper-kind wallets and returns their
// addresses, in the order generated.
func (s *Session) GenerateWallets(count int, namePrefix string) ([]string, error) {
	handles, err := s.v.GenerateBatch(count, namePrefix, KindSniper, s.password)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = h.Address
	}
	return out, nil
}

// SignerFor returns a venue.Signer bound to address's wallet. Lookups
// and signing are deferred to the call, so a signer handed out before a
// wallet is removed simply starts failing afterward rather than holding
// a stale copy of the key.
func (s *Session) SignerFor(address string) venue.Signer {
	return &walletSigner{session: s, address: address}
}

type walletSigner struct {
	session *Session
	address string
}

func (w *walletSigner) PublicKey() string { return w.address }

func (w *walletSigner) Sign(_ context.Context, message []byte) ([]byte, error) {
	id, err := w.session.v.idForAddress(w.address)
	if err != nil {
		return nil, err
	}
	return w.session.v.Sign(id, message)
}
