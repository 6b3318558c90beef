// Package preset holds the authoritative intensity tables for bot and
// activity sessions (§4.6). Presets are snapshotted at session creation;
// callers must copy the returned value rather than hold a pointer into
// the table, so later table edits (there are none at runtime) can never
// affect a running session.
package preset

import "fmt"

// Intensity is a session's configured trading aggressiveness.
type Intensity string

// Intensity levels (§4.6).
const (
	Low    Intensity = "low"
	Medium Intensity = "medium"
	High   Intensity = "high"
)

// Preset is a snapshot of trade-loop tuning parameters for one
// kind/intensity pair.
type Preset struct {
	MinSwapNative  float64
	MaxSwapNative  float64
	MinIntervalMs  int
	MaxIntervalMs  int
	TransferChance float64 // activity only; zero for bot
}

// DefaultVolumeMinSwapNative and DefaultVolumeMaxSwapNative are the
// sensible defaults volume sessions fall back to when the caller does
// not supply explicit bounds (§4.6 "Volume sessions take explicit bounds
// from the caller; sensible defaults are 0.01-0.05 native").
const (
	DefaultVolumeMinSwapNative = 0.01
	DefaultVolumeMaxSwapNative = 0.05
	DefaultVolumeMinIntervalMs = 30_000
	DefaultVolumeMaxIntervalMs = 120_000
)

//nolint:gochecknoglobals // authoritative static table, read-only after init
var botTable = map[Intensity]Preset{
	Low:    {MinSwapNative: 0.005, MaxSwapNative: 0.02, MinIntervalMs: 60_000, MaxIntervalMs: 300_000},
	Medium: {MinSwapNative: 0.01, MaxSwapNative: 0.05, MinIntervalMs: 30_000, MaxIntervalMs: 120_000},
	High:   {MinSwapNative: 0.02, MaxSwapNative: 0.10, MinIntervalMs: 15_000, MaxIntervalMs: 60_000},
}

//nolint:gochecknoglobals // authoritative static table, read-only after init
var activityTable = map[Intensity]Preset{
	Low:    {MinSwapNative: 0.002, MaxSwapNative: 0.01, MinIntervalMs: 120_000, MaxIntervalMs: 600_000, TransferChance: 0.3},
	Medium: {MinSwapNative: 0.005, MaxSwapNative: 0.02, MinIntervalMs: 60_000, MaxIntervalMs: 300_000, TransferChance: 0.4},
	High:   {MinSwapNative: 0.01, MaxSwapNative: 0.05, MinIntervalMs: 30_000, MaxIntervalMs: 120_000, TransferChance: 0.5},
}

// ErrUnknownIntensity is returned by Bot/Activity for an intensity that
// is not low/medium/high.
type ErrUnknownIntensity struct {
	Intensity Intensity
}

func (e ErrUnknownIntensity) Error() string {
	return fmt.Sprintf("unknown intensity %q", e.Intensity)
}

// Bot returns the snapshot for a bot session at the given intensity.
func Bot(level Intensity) (Preset, error) {
	p, ok := botTable[level]
	if !ok {
		return Preset{}, ErrUnknownIntensity{Intensity: level}
	}
	return p, nil
}

// Activity returns the snapshot for an activity session at the given
// intensity.
func Activity(level Intensity) (Preset, error) {
	p, ok := activityTable[level]
	if !ok {
		return Preset{}, ErrUnknownIntensity{Intensity: level}
	}
	return p, nil
}

// Volume returns the snapshot for a volume session, preferring the
// caller-supplied bounds and falling back to the table defaults for any
// zero-valued field.
func Volume(minSwap, maxSwap float64, minIntervalMs, maxIntervalMs int) Preset {
	p := Preset{
		MinSwapNative: minSwap,
		MaxSwapNative: maxSwap,
		MinIntervalMs: minIntervalMs,
		MaxIntervalMs: maxIntervalMs,
	}
	if p.MinSwapNative == 0 {
		p.MinSwapNative = DefaultVolumeMinSwapNative
	}
	if p.MaxSwapNative == 0 {
		p.MaxSwapNative = DefaultVolumeMaxSwapNative
	}
	if p.MinIntervalMs == 0 {
		p.MinIntervalMs = DefaultVolumeMinIntervalMs
	}
	if p.MaxIntervalMs == 0 {
		p.MaxIntervalMs = DefaultVolumeMaxIntervalMs
	}
	return p
}
