// Package vault provides confidentiality-at-rest for wallet signing
// material and a signing interface the rest of the control plane uses
// without ever seeing secrets (§4.1).
package vault

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/trenchsniper/trenchsniperd/internal/fileutil"
	"github.com/trenchsniper/trenchsniperd/internal/metrics"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 256

	vaultFilePerm = 0o600
)

// LaunchChecker reports whether a wallet address is referenced by any
// launch record and must therefore not be removed (§3 LaunchRecord).
// Implemented by *launch.Registry; kept as an interface here so vault
// never imports launch.
type LaunchChecker interface {
	IsProtected(address string) bool
}

// Vault is a sealed container of Wallets. All exported methods are safe
// for concurrent use.
type Vault struct {
	mu sync.Mutex

	path    string
	checker LaunchChecker

	unlocked bool
	password string
	wallets  map[string]wallet // keyed by ID
	secrets  map[string]*secret
}

// Open returns a Vault bound to path, in the locked state. No disk I/O
// happens until unlock or a mutating operation runs.
func Open(path string, checker LaunchChecker) *Vault {
	return &Vault{path: path, checker: checker}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return sniperr.WithDetails(sniperr.ErrInvalidPassword, map[string]string{
			"requirement": fmt.Sprintf("%d-%d characters", minPasswordLen, maxPasswordLen),
		})
	}
	return nil
}

// Unlock reads the sealed blob, decrypts it with password, and
// materializes wallet handles in memory. Idempotent while already
// unlocked with the same password; the vault re-derives and replaces
// state on a fresh call either way, since unlock is not called on a hot
// path. A missing vault file is treated as an empty, freshly-unlocked
// vault — it is created on the first mutating call.
func (v *Vault) Unlock(password string) ([]Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := v.loadLocked(password); err != nil {
		return nil, err
	}

	return v.handlesLocked(), nil
}

// loadLocked reads and decrypts the blob at v.path, installing password
// as the active key and the decoded wallet set as current state. A
// missing file bootstraps an empty, freshly-unlocked vault. Callers must
// hold v.mu and have already validated password.
func (v *Vault) loadLocked(password string) error {
	data, err := os.ReadFile(v.path) //nolint:gosec // G304: vault path comes from validated configuration
	if err != nil {
		if os.IsNotExist(err) {
			v.unlocked = true
			v.password = password
			v.wallets = map[string]wallet{}
			v.secrets = map[string]*secret{}
			return nil
		}
		return fmt.Errorf("reading vault file: %w", err)
	}

	env, err := unmarshalEnvelope(data)
	if err != nil {
		return err
	}

	plaintext := env.Ciphertext
	if !env.Plaintext {
		plaintext, err = openBlob(env.Ciphertext, password)
		if err != nil {
			return sniperr.ErrInvalidPassword
		}
	}

	p, err := unmarshalPayload(plaintext)
	if err != nil {
		return err
	}

	wallets := make(map[string]wallet, len(p.Wallets))
	secrets := make(map[string]*secret, len(p.Wallets))
	for _, w := range p.Wallets {
		raw, decErr := base58.Decode(w.Secret)
		if decErr != nil {
			return fmt.Errorf("%w: decoding secret for wallet %s: %v", sniperr.ErrCorruptVault, w.ID, decErr)
		}
		wallets[w.ID] = w
		secrets[w.ID] = secretFromSlice(raw)
	}

	v.unlocked = true
	v.password = password
	v.wallets = wallets
	v.secrets = secrets

	return nil
}

// Lock zeroes in-memory secrets and forgets the derived key. Always
// succeeds, including when already locked.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lockLocked()
}

func (v *Vault) lockLocked() {
	for _, s := range v.secrets {
		s.Destroy()
	}
	v.secrets = nil
	v.wallets = nil
	v.password = ""
	v.unlocked = false
}

func (v *Vault) requireUnlockedLocked() error {
	if !v.unlocked {
		return sniperr.ErrLocked
	}
	return nil
}

func (v *Vault) handlesLocked() []Handle {
	handles := make([]Handle, 0, len(v.wallets))
	for _, w := range v.wallets {
		handles = append(handles, w.handle())
	}
	return handles
}

// Handles returns the address-only view of every wallet currently held.
// Returns ErrLocked while locked.
func (v *Vault) Handles() ([]Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	return v.handlesLocked(), nil
}

// Generate creates a new Wallet, merges it with the existing set, and
// re-saves the vault atomically.
func (v *Vault) Generate(name string, kind Kind, password string) (Handle, error) {
	handles, err := v.GenerateBatch(1, name, kind, password)
	if err != nil {
		return Handle{}, err
	}
	return handles[0], nil
}

// GenerateBatch creates count new Wallets named "<prefix>-1".."<prefix>-N"
// (or bare prefix when count == 1), merges them with the existing set,
// and re-saves atomically.
func (v *Vault) GenerateBatch(count int, namePrefix string, kind Kind, password string) (handles []Handle, err error) {
	defer func() { metrics.Global.RecordWalletOp(err) }()

	if err := ValidateWalletName(namePrefix); err != nil {
		return nil, err
	}
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, sniperr.New("INVALID_COUNT", "batch count must be at least 1")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureUnlockedForMutationLocked(password); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	handles = make([]Handle, 0, count)

	for i := 0; i < count; i++ {
		name := namePrefix
		if count > 1 {
			name = fmt.Sprintf("%s-%d", namePrefix, i+1)
		}

		priv, genErr := solana.NewRandomPrivateKey()
		if genErr != nil {
			return nil, fmt.Errorf("generating keypair: %w", genErr)
		}

		w := wallet{
			ID:        newWalletID(),
			Address:   priv.PublicKey().String(),
			Name:      name,
			Kind:      kind,
			CreatedAt: now,
			Secret:    priv.String(),
		}

		v.wallets[w.ID] = w
		v.secrets[w.ID] = secretFromSlice([]byte(priv))
		handles = append(handles, w.handle())
	}

	if err := v.saveLocked(); err != nil {
		return nil, err
	}

	return handles, nil
}

// Import adds an existing secret as a new Wallet, rejecting duplicates by
// address.
func (v *Vault) Import(secretB58, name string, kind Kind, password string) (handle Handle, err error) {
	defer func() { metrics.Global.RecordWalletOp(err) }()

	if err := ValidateWalletName(name); err != nil {
		return Handle{}, err
	}
	if err := ValidateKind(kind); err != nil {
		return Handle{}, err
	}

	priv, decErr := solana.PrivateKeyFromBase58(secretB58)
	if decErr != nil {
		return Handle{}, sniperr.Wrap(decErr, "decoding imported secret")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureUnlockedForMutationLocked(password); err != nil {
		return Handle{}, err
	}

	address := priv.PublicKey().String()
	for _, w := range v.wallets {
		if w.Address == address {
			return Handle{}, sniperr.ErrWalletExists
		}
	}

	w := wallet{
		ID:        newWalletID(),
		Address:   address,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Secret:    priv.String(),
	}

	v.wallets[w.ID] = w
	v.secrets[w.ID] = secretFromSlice([]byte(priv))

	if err := v.saveLocked(); err != nil {
		return Handle{}, err
	}

	return w.handle(), nil
}

// Remove deletes a single wallet. Returns ErrProtectedWallet if the
// wallet is referenced by a launch record.
func (v *Vault) Remove(id, password string) error {
	removed, err := v.RemoveMany([]string{id}, password)
	if err != nil {
		return err
	}
	if removed == 0 {
		return sniperr.ErrProtectedWallet
	}
	return nil
}

// RemoveMany removes the subset of ids that are not protected, reporting
// how many were actually removed (§4.1 "partial batch").
func (v *Vault) RemoveMany(ids []string, password string) (removed int, err error) {
	defer func() { metrics.Global.RecordWalletOp(err) }()

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureUnlockedForMutationLocked(password); err != nil {
		return 0, err
	}

	for _, id := range ids {
		w, ok := v.wallets[id]
		if !ok {
			continue // unknown ids are silently skipped; not a batch failure
		}
		if v.checker != nil && v.checker.IsProtected(w.Address) {
			continue
		}

		if s, ok := v.secrets[id]; ok {
			s.Destroy()
		}
		delete(v.secrets, id)
		delete(v.wallets, id)
		removed++
	}

	if removed > 0 {
		if err := v.saveLocked(); err != nil {
			return 0, err
		}
	}

	return removed, nil
}

// Update changes the display name and/or type tag of a wallet.
func (v *Vault) Update(id string, name *string, kind *Kind, password string) (handle Handle, err error) {
	defer func() { metrics.Global.RecordWalletOp(err) }()

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureUnlockedForMutationLocked(password); err != nil {
		return Handle{}, err
	}

	w, ok := v.wallets[id]
	if !ok {
		return Handle{}, sniperr.ErrUnknownWallet
	}

	if name != nil {
		if err := ValidateWalletName(*name); err != nil {
			return Handle{}, err
		}
		w.Name = *name
	}
	if kind != nil {
		if err := ValidateKind(*kind); err != nil {
			return Handle{}, err
		}
		w.Kind = *kind
	}

	v.wallets[id] = w

	if err := v.saveLocked(); err != nil {
		return Handle{}, err
	}

	return w.handle(), nil
}

// ExportBackup returns the encrypted vault blob as bytes, suitable for
// round-tripping through ImportBackup.
func (v *Vault) ExportBackup(password string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}
	if password != v.password {
		return nil, sniperr.ErrInvalidPassword
	}

	return v.sealLocked()
}

// ImportBackup decrypts exported bytes and merges their wallet set into
// the current vault, atomically re-saving. Rejects ciphertext whose
// integrity check fails with ErrInvalidPassword/ErrCorruptVault.
func (v *Vault) ImportBackup(data []byte, password string) error {
	env, err := unmarshalEnvelope(data)
	if err != nil {
		return err
	}

	plaintext := env.Ciphertext
	if !env.Plaintext {
		plaintext, err = openBlob(env.Ciphertext, password)
		if err != nil {
			return sniperr.ErrInvalidPassword
		}
	}

	p, err := unmarshalPayload(plaintext)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.ensureUnlockedForMutationLocked(password); err != nil {
		return err
	}

	for _, w := range p.Wallets {
		raw, decErr := base58.Decode(w.Secret)
		if decErr != nil {
			return fmt.Errorf("%w: decoding secret for wallet %s: %v", sniperr.ErrCorruptVault, w.ID, decErr)
		}
		if _, exists := v.wallets[w.ID]; exists {
			continue
		}
		v.wallets[w.ID] = w
		v.secrets[w.ID] = secretFromSlice(raw)
	}

	return v.saveLocked()
}

// Sign signs payload with the private key of wallet id, never exposing
// the secret outside the vault process.
func (v *Vault) Sign(id string, payload []byte) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlockedLocked(); err != nil {
		return nil, err
	}

	s, ok := v.secrets[id]
	if !ok {
		return nil, sniperr.ErrUnknownWallet
	}

	priv := solana.PrivateKey(s.Bytes())
	sig, err := priv.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}

	return sig[:], nil
}

// SignBatch signs each payload in order, short-circuiting the first
// failure (§4.1 sign_batch).
func (v *Vault) SignBatch(ids []string, payloads [][]byte) ([][]byte, error) {
	if len(ids) != len(payloads) {
		return nil, sniperr.New("INVALID_INPUT", "ids and payloads must be the same length")
	}

	sigs := make([][]byte, len(ids))
	for i, id := range ids {
		sig, err := v.Sign(id, payloads[i])
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// idForAddress resolves a wallet address to its internal id, for callers
// (Session) that only carry addresses. Returns ErrUnknownWallet if no
// currently-held wallet matches, including while locked.
func (v *Vault) idForAddress(address string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, w := range v.wallets {
		if w.Address == address {
			return id, nil
		}
	}
	return "", sniperr.ErrUnknownWallet
}

// ensureUnlockedForMutationLocked unlocks-on-demand: if the vault is
// already unlocked, the given password must match it; otherwise it reads
// and decrypts the blob (bootstrapping an empty vault if none exists
// yet), exactly as Unlock would, so a bare generate/import call on a
// locked vault fails with ErrInvalidPassword rather than ErrLocked
// (§4.1 "Fails with InvalidPassword if the blob exists and the given
// password does not unlock it").
func (v *Vault) ensureUnlockedForMutationLocked(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	if v.unlocked {
		if password != v.password {
			return sniperr.ErrInvalidPassword
		}
		return nil
	}

	return v.loadLocked(password)
}

func (v *Vault) sealLocked() ([]byte, error) {
	wallets := make([]wallet, 0, len(v.wallets))
	for _, w := range v.wallets {
		wallets = append(wallets, w)
	}

	plaintext, err := marshalPayload(payload{Wallets: wallets})
	if err != nil {
		return nil, err
	}

	ciphertext, err := sealBlob(plaintext, v.password)
	if err != nil {
		return nil, fmt.Errorf("sealing vault: %w", err)
	}

	return marshalEnvelope(envelope{
		Version:    blobVersion,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Ciphertext: ciphertext,
	})
}

func (v *Vault) saveLocked() error {
	data, err := v.sealLocked()
	if err != nil {
		return err
	}
	return fileutil.WriteAtomicSecret(v.path, data, vaultFilePerm)
}

var walletIDCounter struct {
	mu sync.Mutex
	n  uint64
}

// newWalletID returns a process-unique, monotonically increasing wallet
// id. Wallets are identified by address for external purposes; this id
// is only a stable map key within the vault.
func newWalletID() string {
	walletIDCounter.mu.Lock()
	defer walletIDCounter.mu.Unlock()
	walletIDCounter.n++
	return fmt.Sprintf("w%d-%d", time.Now().UnixNano(), walletIDCounter.n)
}
