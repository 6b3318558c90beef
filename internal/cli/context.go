package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trenchsniper/trenchsniperd/internal/chainutil"
	"github.com/trenchsniper/trenchsniperd/internal/config"
	"github.com/trenchsniper/trenchsniperd/internal/feecollector"
	"github.com/trenchsniper/trenchsniperd/internal/launch"
	"github.com/trenchsniper/trenchsniperd/internal/orchestrator"
	"github.com/trenchsniper/trenchsniperd/internal/output"
	"github.com/trenchsniper/trenchsniperd/internal/router"
	"github.com/trenchsniper/trenchsniperd/internal/treasury"
	"github.com/trenchsniper/trenchsniperd/internal/vault"
)

// contextKey is the type for context keys to avoid collisions.
type contextKey string

// cmdCtxKey is the key for storing CommandContext in cobra's context.
const cmdCtxKey contextKey = "trenchsniperd-cmd-ctx"

// SetCmdContext stores the CommandContext in the cobra command's context.
func SetCmdContext(cmd *cobra.Command, ctx *CommandContext) {
	cmd.SetContext(context.WithValue(cmd.Context(), cmdCtxKey, ctx))
}

// GetCmdContext retrieves the CommandContext from the cobra command's context.
// Returns nil if no context is set.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	if cmdCtx, ok := ctx.Value(cmdCtxKey).(*CommandContext); ok {
		return cmdCtx
	}
	return nil
}

// LogWriter provides logging capabilities. Matches *obs.Logger's shape
// so commands can be tested against a fake.
type LogWriter interface {
	Debug(msg string, attrs ...slog.Attr)
	Error(msg string, attrs ...slog.Attr)
	Close() error
}

// FormatProvider provides output format information.
type FormatProvider interface {
	Format() output.Format
}

// CommandContext holds the dependencies every command needs. Vault,
// Launch, Chain, Router and Mover are wired by initGlobals'
// PersistentPreRunE, which leaves the vault locked; Orch stays nil until
// OpenOrchestrator unlocks the vault — commands that need them check and
// return ErrLocked / ErrConfiguration themselves rather than the context
// doing it for them.
type CommandContext struct {
	Cfg *config.Config
	Log LogWriter
	Fmt FormatProvider

	Vault  *vault.Vault
	Launch *launch.Registry
	Router *router.Router
	Chain  *chainutil.RPCClient
	Mover  *treasury.Mover
	Orch   *orchestrator.Orchestrator
}

// NewCommandContext creates a context with the given ambient dependencies.
func NewCommandContext(cfg *config.Config, logger LogWriter, formatter FormatProvider) *CommandContext {
	return &CommandContext{Cfg: cfg, Log: logger, Fmt: formatter}
}

// OpenOrchestrator unlocks the Vault with password, wraps it in a
// vault.Session (the password-less capability the Orchestrator expects),
// and builds an Orchestrator over it plus the already-wired Chain,
// Router, and Mover. Every invocation gets a fresh, empty session
// registry — one CLI process runs at most one foreground session at a
// time.
func (c *CommandContext) OpenOrchestrator(password string) (*orchestrator.Orchestrator, error) {
	if _, err := c.Vault.Unlock(password); err != nil {
		return nil, err
	}

	session := vault.NewSession(c.Vault, password)
	fees := feecollector.New(c.Mover, c.Log)

	c.Orch = orchestrator.New(
		session,
		c.Chain,
		c.Router,
		c.Mover,
		fees,
		c.Log,
		orchestrator.Config{
			SlippageBps:           c.Cfg.Trading.SlippageBps,
			FeeAccount:            c.Cfg.Fees.Account,
			FeeBps:                c.Cfg.Fees.Bps,
			TreasuryWalletAddress: c.Cfg.Vault.TreasuryAddress,
		},
	)
	return c.Orch, nil
}
