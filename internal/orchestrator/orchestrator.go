// Package orchestrator implements the Session Orchestrator: the
// registry of running trading Sessions and the per-wallet trade loop
// that drives each one. It is the component that ties the Vault, DEX
// Router, Treasury Mover, and Fee Collector together; every
// cross-component invariant (already-running checks, the running-bot
// group limit, protected wallets, atomic counters) is enforced here.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/treasury"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// NativeMint is the wrapped-SOL mint address used as the "native" leg
// of every swap quote.
const NativeMint = "So11111111111111111111111111111111111111112"

// LamportsPerNative is the base-unit scale of the native token.
const LamportsPerNative = 1_000_000_000

// Kind is the category of a Session.
type Kind string

// Session kinds.
const (
	KindVolume   Kind = "volume"
	KindBot      Kind = "bot"
	KindActivity Kind = "activity"
)

// MaxRunningBotSessions is the group limit on concurrently running bot
// sessions.
const MaxRunningBotSessions = 6

// MaxActivityDurationHours is the longest duration an activity session
// may be started with; StartSession rejects anything outside
// (0, MaxActivityDurationHours].
const MaxActivityDurationHours = 48

// defaultOrganicTokens is the fixed small set of tokens activity
// sessions rotate through when not transferring. Callers may override
// via Config.OrganicTokens.
var defaultOrganicTokens = []string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", // BONK
}

// WalletVault is the subset of the Wallet Vault the Orchestrator needs:
// enumerate addresses, mint new ones for a bot session, and obtain a
// signer for a given address without ever seeing its secret.
type WalletVault interface {
	Addresses() ([]string, error)
	GenerateWallets(count int, namePrefix string) ([]string, error)
	SignerFor(address string) venue.Signer
}

// BalanceReader reads native and token balances. Implementations talk
// to chain RPC; the Orchestrator never parses account data itself.
type BalanceReader interface {
	NativeBalance(ctx context.Context, address string) (uint64, error)
	TokenBalance(ctx context.Context, address, mint string) (uint64, error)
}

// Router is the subset of the DEX Router the trade loop calls.
type Router interface {
	Execute(ctx context.Context, signer venue.Signer, params venue.Params) (venue.SwapOutcome, error)
}

// TreasuryFunder is the subset of the Treasury Mover the Orchestrator
// calls: funding new bot wallets and the small peer-to-peer transfers
// activity sessions make.
type TreasuryFunder interface {
	Fund(ctx context.Context, fromSigner venue.Signer, fromAddress string, targets []string, perTargetNative uint64) (treasury.FundResult, error)
}

// FeeCollector is the subset of the Fee Collector the trade loop calls.
type FeeCollector interface {
	Collect(ctx context.Context, signer venue.Signer, tradeNotionalNative uint64, feeAccount string, feeBps int) string
}

// Logger is the minimal logging surface the Orchestrator needs.
type Logger interface {
	Error(msg string, attrs ...slog.Attr)
}

// Config holds the Orchestrator's cross-session policy.
type Config struct {
	ReserveUnits          uint64 // native units always left unspent per wallet
	PerTxFeeUnits         uint64
	SlippageBps           int
	FeeAccount            string // empty disables fee collection
	FeeBps                int
	TreasuryWalletAddress string // funding source for newly generated bot wallets
	OrganicTokens         []string
}

func (c Config) withDefaults() Config {
	if c.SlippageBps <= 0 {
		c.SlippageBps = 100
	}
	if len(c.OrganicTokens) == 0 {
		c.OrganicTokens = defaultOrganicTokens
	}
	return c
}

// Orchestrator owns the process-wide Session registry.
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	vault    WalletVault
	balances BalanceReader
	router   Router
	treasury TreasuryFunder
	fees     FeeCollector
	log      Logger
	cfg      Config

	idCounter uint64
	idMu      sync.Mutex
}

// New builds an Orchestrator. log may be nil.
func New(vault WalletVault, balances BalanceReader, router Router, mover TreasuryFunder, fees FeeCollector, log Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		sessions: make(map[string]*Session),
		vault:    vault,
		balances: balances,
		router:   router,
		treasury: mover,
		fees:     fees,
		log:      log,
		cfg:      cfg.withDefaults(),
	}
}

func (o *Orchestrator) nextID(kind Kind) string {
	o.idMu.Lock()
	defer o.idMu.Unlock()
	o.idCounter++
	return fmt.Sprintf("%s-%d-%d", kind, time.Now().UnixNano(), o.idCounter)
}

func (o *Orchestrator) logError(msg string, args ...any) {
	if o.log == nil {
		return
	}
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, _ := args[i].(string)
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	o.log.Error(msg, attrs...)
}

// GetStatus returns a read-only snapshot of a Session, or ErrNotFound.
func (o *Orchestrator) GetStatus(id string) (Status, error) {
	o.mu.RLock()
	sess, ok := o.sessions[id]
	o.mu.RUnlock()
	if !ok {
		return Status{}, sniperr.ErrNotFound
	}
	return sess.status(), nil
}

// ListByKind returns read-only snapshots of every session of kind.
func (o *Orchestrator) ListByKind(kind Kind) []Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var out []Status
	for _, sess := range o.sessions {
		if sess.kind == kind {
			out = append(out, sess.status())
		}
	}
	return out
}

func (o *Orchestrator) countRunning(kind Kind) int {
	n := 0
	for _, sess := range o.sessions {
		if sess.kind == kind && sess.running.Load() {
			n++
		}
	}
	return n
}

func (o *Orchestrator) nameInUse(name string) bool {
	for _, sess := range o.sessions {
		if sess.kind == KindBot && sess.running.Load() && sess.name == name {
			return true
		}
	}
	return false
}

func jitterInterval(minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	span := maxMs - minMs
	ms := minMs + rand.IntN(span+1) //nolint:gosec // trade-timing jitter, not security sensitive
	return time.Duration(ms) * time.Millisecond
}

func randomAmountNative(minNative, maxNative float64) float64 {
	if maxNative <= minNative {
		return minNative
	}
	return minNative + rand.Float64()*(maxNative-minNative) //nolint:gosec
}

func nativeToUnits(amount float64) uint64 {
	return uint64(amount * LamportsPerNative)
}
