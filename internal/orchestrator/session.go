package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/preset"
)

// Stats holds the mutable counters of a running Session. Every counter
// is monotonically increasing; a snapshot need not be instantaneous
// across fields.
type Stats struct {
	mu          sync.Mutex
	executed    uint64
	successful  uint64
	failed      uint64
	volumeUnits uint64
}

func (s *Stats) record(success bool, notionalUnits uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed++
	if success {
		s.successful++
		s.volumeUnits += notionalUnits
	} else {
		s.failed++
	}
}

// Snapshot is a point-in-time read of Stats.
type Snapshot struct {
	Executed    uint64
	Successful  uint64
	Failed      uint64
	VolumeUnits uint64
}

func (s *Stats) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Executed: s.executed, Successful: s.successful, Failed: s.failed, VolumeUnits: s.volumeUnits}
}

// Status is the read-only view GetStatus/ListByKind return.
type Status struct {
	ID        string
	Kind      Kind
	Name      string
	Token     string
	Wallets   []string
	Running   bool
	StartedAt time.Time
	EndAt     time.Time
	Stats     Snapshot
}

// FinalStats is returned by StopSession; it embeds the session's last
// stats plus the outcome of any best-effort sell-back cleanup.
type FinalStats struct {
	Stats        Snapshot
	SoldCount    int
	SellFailures int
}

// Session is one running trade campaign: a registry entry plus the
// cancellation plumbing for its per-wallet loops.
type Session struct {
	id        string
	kind      Kind
	name      string // bot only
	token     string // volume/bot target; empty for activity
	wallets   []string
	startedAt time.Time
	endAt     time.Time // zero unless kind == activity
	preset    preset.Preset

	running atomic.Bool
	cancel  func()
	wg      sync.WaitGroup
	stats   Stats

	touchedMu sync.Mutex
	touched   map[string]map[string]bool // wallet -> set of tokens swapped this session (activity cleanup)
}

func (s *Session) status() Status {
	return Status{
		ID:        s.id,
		Kind:      s.kind,
		Name:      s.name,
		Token:     s.token,
		Wallets:   append([]string(nil), s.wallets...),
		Running:   s.running.Load(),
		StartedAt: s.startedAt,
		EndAt:     s.endAt,
		Stats:     s.stats.snapshot(),
	}
}

func (s *Session) markTouched(wallet, token string) {
	s.touchedMu.Lock()
	defer s.touchedMu.Unlock()
	if s.touched == nil {
		s.touched = make(map[string]map[string]bool)
	}
	if s.touched[wallet] == nil {
		s.touched[wallet] = make(map[string]bool)
	}
	s.touched[wallet][token] = true
}

// touchedTokens returns the wallet->tokens map built up over the
// session's lifetime, for StopSession's sell-back cleanup.
func (s *Session) touchedTokens() map[string]map[string]bool {
	s.touchedMu.Lock()
	defer s.touchedMu.Unlock()
	out := make(map[string]map[string]bool, len(s.touched))
	for w, toks := range s.touched {
		cp := make(map[string]bool, len(toks))
		for t := range toks {
			cp[t] = true
		}
		out[w] = cp
	}
	return out
}

// pickTransferTarget returns another wallet in the session to transfer
// to, or "" if this is the only participant.
func (s *Session) pickTransferTarget(wallet string) string {
	for _, w := range s.wallets {
		if w != wallet {
			return w
		}
	}
	return ""
}
