package output

import (
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
	"rsc.io/qr"

	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

// QRConfig configures QR code rendering.
type QRConfig struct {
	// Level is the error correction level.
	Level qr.Level
	// QuietZone is the number of empty blocks around the QR code.
	QuietZone int
	// HalfBlocks uses half-height blocks for a more compact display.
	HalfBlocks bool
}

// DefaultQRConfig returns sensible defaults for rendering a Solana address
// in a terminal: addresses are short fixed-length base58 strings, so the
// lowest error-correction level keeps the matrix small enough to read at
// normal terminal font sizes.
func DefaultQRConfig() QRConfig {
	return QRConfig{
		Level:      qr.L,
		QuietZone:  1,
		HalfBlocks: true, // compact display for terminals
	}
}

// CanRenderQR checks if the output writer is a terminal suitable for QR rendering.
func CanRenderQR(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}

// RenderAddressQR validates address as a Solana base58 public key, then
// renders it as a QR code to w if w is a terminal. Returns without error
// and without output when w is not a terminal (e.g. piped to a file or
// another process) — a QR matrix in a JSON/log stream is noise, not data.
// Operators scan this to load a wallet's receive address into a mobile
// wallet without retyping the base58 string.
func RenderAddressQR(w io.Writer, address string, cfg QRConfig) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return sniperr.Wrap(err, "rendering address QR: invalid Solana address")
	}

	if !CanRenderQR(w) {
		return nil
	}

	config := qrterminal.Config{
		Level:          cfg.Level,
		Writer:         w,
		QuietZone:      cfg.QuietZone,
		HalfBlocks:     cfg.HalfBlocks,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
	}

	qrterminal.GenerateWithConfig(address, config)
	return nil
}
