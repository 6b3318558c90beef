// Package cli implements the trenchsniperd command-line interface.
//
// This package provides two ways to access CLI state:
//  1. Global variables (legacy) - for backwards compatibility
//  2. Context-based access (recommended) - via GetCmdContext(cmd)
//
// The globals are initialized in PersistentPreRunE and cleaned up in
// PersistentPostRun. New code should prefer GetCmdContext(cmd) for better
// testability and explicit dependency passing.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trenchsniper/trenchsniperd/internal/chainutil"
	"github.com/trenchsniper/trenchsniperd/internal/config"
	"github.com/trenchsniper/trenchsniperd/internal/launch"
	"github.com/trenchsniper/trenchsniperd/internal/obs"
	"github.com/trenchsniper/trenchsniperd/internal/output"
	"github.com/trenchsniper/trenchsniperd/internal/router"
	"github.com/trenchsniper/trenchsniperd/internal/treasury"
	"github.com/trenchsniper/trenchsniperd/internal/vault"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *obs.Logger
	formatter *output.Formatter

	// Command context for dependency injection
	cmdCtx *CommandContext
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trenchsniperd",
	Short: "A Solana memecoin trading control plane",
	Long: `trenchsniperd drives volume, bot, and activity trading sessions across
a vault of Solana wallets, routing swaps through bonding-curve, AMM, and
aggregator venues, and moving treasury funds to and from them.

Example:
  trenchsniperd vault generate --count 10
  trenchsniperd session start-bot --wallets 5 --token <mint>
  trenchsniperd treasury fund --targets <addr1>,<addr2> --amount 0.05`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// formatErr prints the error with proper formatting.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	if fmtErr := output.FormatError(os.Stderr, err, format); fmtErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (formatting failed: %v)\n", err, fmtErr)
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return sniperr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, formatter, and
// the component graph every command needs. The vault is opened but left
// locked; commands that mutate or sign check Vault.Unlock themselves,
// since only some subcommands need secrets.
//
//nolint:gocognit,gocyclo // Initialization logic requires multiple conditional branches
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	configPath := config.Path(home)
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	if strings.HasPrefix(cfg.Home, "~/") {
		if userHome, homeErr := os.UserHomeDir(); homeErr == nil {
			cfg.Home = filepath.Join(userHome, cfg.Home[2:])
		}
	}

	for _, warning := range cfg.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	logLevel := obs.ParseLevel(cfg.Logging.Level)
	logger, err = obs.New(logLevel, expandHome(cfg.Logging.File))
	if err != nil {
		logger = obs.NullLogger()
	}

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	detectedFormat := output.DetectFormat(os.Stdout, explicitFormat)
	formatter = output.NewFormatter(detectedFormat, os.Stdout)

	cmdCtx = NewCommandContext(cfg, logger, formatter)
	cmdCtx.Launch, err = launch.Open(expandHome(launchPath(cfg)))
	if err != nil {
		return sniperr.Wrap(err, "opening launch registry")
	}

	cmdCtx.Vault = vault.Open(expandHome(cfg.Vault.Path), cmdCtx.Launch)

	cmdCtx.Chain = chainutil.NewRPCClient(cfg.Chain.RPCURL, chainutil.RPCRateLimiter())

	cmdCtx.Router = router.New(
		venue.NewBondingCurveClient(cmdCtx.Chain, cmdCtx.Chain),
		[]venue.Client{
			venue.NewAMMClient("amm_a", cfg.Hosted.APIURL, cfg.Hosted.APIKey),
			venue.NewAMMClient("amm_b", cfg.Hosted.APIURL, cfg.Hosted.APIKey),
		},
		venue.NewAggregatorClient(cfg.Hosted.APIURL, cfg.Chain.JupiterAPIKey),
		router.Config{ParallelQuotes: true},
	)

	cmdCtx.Mover = treasury.New(cmdCtx.Chain, cmdCtx.Launch, chainutil.RPCRateLimiter(), treasury.Config{})

	// Orch is built lazily by OpenOrchestrator once a command has unlocked
	// the vault: the Orchestrator's WalletVault dependency needs the vault
	// password, which initGlobals never sees.
	SetCmdContext(cmd, cmdCtx)

	return nil
}

// launchPath returns the launch registry path alongside the vault file.
func launchPath(c *config.Config) string {
	return filepath.Join(filepath.Dir(c.Vault.Path), "launches.json")
}

// expandHome expands a leading "~/" against the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(userHome, path[2:])
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		if closeErr := logger.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close logger: %v\n", closeErr)
		}
	}
}

// Context returns the global command context.
func Context() *CommandContext {
	return cmdCtx
}

// Version information, set at build time.
//
//nolint:gochecknoglobals // Version info set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// versionCmd shows version information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version, build commit, and build date.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if formatter != nil && formatter.Format() == output.FormatJSON {
			cmd.Println("{")
			cmd.Printf(`  "version": "%s",`+"\n", Version)
			cmd.Printf(`  "commit": "%s",`+"\n", GitCommit)
			cmd.Printf(`  "date": "%s"`+"\n", BuildDate)
			cmd.Println("}")
		} else {
			cmd.Printf("trenchsniperd version %s\n", Version)
			cmd.Printf("  commit: %s\n", GitCommit)
			cmd.Printf("  built:  %s\n", BuildDate)
		}
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "trenchsniperd data directory (default: ~/.trenchsniper)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
