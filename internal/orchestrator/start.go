package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/trenchsniper/trenchsniperd/internal/preset"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// StartSpec describes a StartSession request. Only the fields relevant
// to Kind are consulted.
type StartSpec struct {
	Kind Kind

	// volume
	Token         string
	MaxWallets    int
	MinSwapNative float64
	MaxSwapNative float64
	MinIntervalMs int
	MaxIntervalMs int

	// bot
	Name            string
	WalletCount     int
	NativePerWallet float64
	Intensity       preset.Intensity // bot and activity

	// activity
	DurationHours   float64
	WalletAddresses []string
}

// StartSession validates spec against the running registry and the
// per-kind invariants, then starts one per-wallet trade loop per
// participating wallet.
func (o *Orchestrator) StartSession(ctx context.Context, spec StartSpec) (Status, error) {
	switch spec.Kind {
	case KindVolume:
		return o.startVolume(ctx, spec)
	case KindBot:
		return o.startBot(ctx, spec)
	case KindActivity:
		return o.startActivity(ctx, spec)
	default:
		return Status{}, sniperr.New("INVALID_INPUT", fmt.Sprintf("unknown session kind %q", spec.Kind))
	}
}

func (o *Orchestrator) startVolume(ctx context.Context, spec StartSpec) (Status, error) {
	o.mu.Lock()
	if o.countRunning(KindVolume) > 0 {
		o.mu.Unlock()
		return Status{}, sniperr.ErrAlreadyRunning
	}

	wallets, err := o.selectWallets(spec.MaxWallets)
	if err != nil {
		o.mu.Unlock()
		return Status{}, err
	}

	p := preset.Volume(spec.MinSwapNative, spec.MaxSwapNative, spec.MinIntervalMs, spec.MaxIntervalMs)
	sess := o.newSession(KindVolume, "", spec.Token, wallets, p, time.Time{})
	o.sessions[sess.id] = sess
	o.mu.Unlock()

	return sess.status(), nil
}

func (o *Orchestrator) startBot(ctx context.Context, spec StartSpec) (Status, error) {
	o.mu.Lock()
	if o.countRunning(KindBot) >= MaxRunningBotSessions {
		o.mu.Unlock()
		return Status{}, sniperr.ErrGroupLimit
	}
	if o.nameInUse(spec.Name) {
		o.mu.Unlock()
		return Status{}, sniperr.ErrDuplicateName
	}
	o.mu.Unlock()

	if o.cfg.TreasuryWalletAddress != "" && o.balances != nil {
		needed := uint64(spec.WalletCount) * nativeToUnits(spec.NativePerWallet)
		available, err := o.balances.NativeBalance(ctx, o.cfg.TreasuryWalletAddress)
		if err != nil {
			return Status{}, fmt.Errorf("checking treasury balance: %w", err)
		}
		if available < needed {
			return Status{}, sniperr.WithDetails(sniperr.ErrInsufficientTreasury, map[string]string{
				"needed":    fmt.Sprintf("%d", needed),
				"available": fmt.Sprintf("%d", available),
			})
		}
	}

	generated, err := o.vault.GenerateWallets(spec.WalletCount, "bot_"+spec.Name)
	if err != nil {
		return Status{}, fmt.Errorf("generating bot wallets: %w", err)
	}

	var funded []string
	if o.treasury != nil && o.cfg.TreasuryWalletAddress != "" && len(generated) > 0 {
		result, err := o.treasury.Fund(ctx, o.vault.SignerFor(o.cfg.TreasuryWalletAddress), o.cfg.TreasuryWalletAddress, generated, nativeToUnits(spec.NativePerWallet))
		if err != nil {
			o.logError("bot session funding check failed", "name", spec.Name, "error", err.Error())
		}
		failedSet := make(map[string]bool, len(result.Failures))
		for _, f := range result.Failures {
			failedSet[f.Target] = true
		}
		for _, addr := range generated {
			if !failedSet[addr] {
				funded = append(funded, addr)
			}
		}
	} else {
		funded = generated
	}

	p, err := preset.Bot(spec.Intensity)
	if err != nil {
		return Status{}, sniperr.WithDetails(sniperr.ErrConfiguration, map[string]string{"intensity": string(spec.Intensity)})
	}

	o.mu.Lock()
	groupFull := o.countRunning(KindBot) >= MaxRunningBotSessions
	nameTaken := o.nameInUse(spec.Name)
	if groupFull || nameTaken {
		o.mu.Unlock()
		o.logError("bot session funded but rejected on re-check", "name", spec.Name)
		if groupFull {
			return Status{}, sniperr.ErrGroupLimit
		}
		return Status{}, sniperr.ErrDuplicateName
	}
	sess := o.newSession(KindBot, spec.Name, spec.Token, funded, p, time.Time{})
	o.sessions[sess.id] = sess
	o.mu.Unlock()

	return sess.status(), nil
}

func (o *Orchestrator) startActivity(ctx context.Context, spec StartSpec) (Status, error) {
	o.mu.Lock()
	if o.countRunning(KindActivity) > 0 {
		o.mu.Unlock()
		return Status{}, sniperr.ErrAlreadyRunning
	}

	wallets := spec.WalletAddresses
	if len(wallets) == 0 {
		all, err := o.vault.Addresses()
		if err != nil {
			o.mu.Unlock()
			return Status{}, fmt.Errorf("listing vault wallets: %w", err)
		}
		wallets = all
	} else {
		known, err := o.vault.Addresses()
		if err != nil {
			o.mu.Unlock()
			return Status{}, fmt.Errorf("listing vault wallets: %w", err)
		}
		knownSet := make(map[string]bool, len(known))
		for _, a := range known {
			knownSet[a] = true
		}
		for _, w := range wallets {
			if !knownSet[w] {
				o.mu.Unlock()
				return Status{}, sniperr.WithDetails(sniperr.ErrUnknownWallet, map[string]string{"address": w})
			}
		}
	}

	p, err := preset.Activity(spec.Intensity)
	if err != nil {
		o.mu.Unlock()
		return Status{}, sniperr.WithDetails(sniperr.ErrConfiguration, map[string]string{"intensity": string(spec.Intensity)})
	}

	if spec.DurationHours <= 0 || spec.DurationHours > MaxActivityDurationHours {
		o.mu.Unlock()
		return Status{}, sniperr.WithDetails(sniperr.ErrConfiguration, map[string]string{
			"duration_hours": fmt.Sprintf("%g", spec.DurationHours),
			"reason":         fmt.Sprintf("must be greater than 0 and at most %g", MaxActivityDurationHours),
		})
	}

	endAt := time.Now().Add(time.Duration(spec.DurationHours * float64(time.Hour)))
	sess := o.newSession(KindActivity, "", "", wallets, p, endAt)
	o.sessions[sess.id] = sess
	o.mu.Unlock()

	return sess.status(), nil
}

func (o *Orchestrator) selectWallets(maxWallets int) ([]string, error) {
	all, err := o.vault.Addresses()
	if err != nil {
		return nil, fmt.Errorf("listing vault wallets: %w", err)
	}
	if maxWallets > 0 && maxWallets < len(all) {
		all = all[:maxWallets]
	}
	return all, nil
}

func (o *Orchestrator) newSession(kind Kind, name, token string, wallets []string, p preset.Preset, endAt time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		id:        o.nextID(kind),
		kind:      kind,
		name:      name,
		token:     token,
		wallets:   append([]string(nil), wallets...),
		startedAt: time.Now(),
		endAt:     endAt,
		preset:    p,
		cancel:    cancel,
	}
	sess.running.Store(true)

	for _, wallet := range sess.wallets {
		sess.wg.Add(1)
		go o.runWalletLoop(ctx, sess, wallet)
	}
	return sess
}
