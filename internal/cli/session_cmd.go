package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trenchsniper/trenchsniperd/internal/orchestrator"
	"github.com/trenchsniper/trenchsniperd/internal/output"
	"github.com/trenchsniper/trenchsniperd/internal/preset"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start and inspect trading sessions",
	Long: `A session runs until stopped: start blocks in the foreground, driving
per-wallet trade loops until Ctrl+C or its configured duration elapses, then
prints final stats and exits. status/list only see sessions started by the
current process invocation -- there is no background daemon tracking
sessions across separate command runs.`,
}

//nolint:gochecknoglobals
var (
	sessionToken         string
	sessionMaxWallets    int
	sessionMinSwap       float64
	sessionMaxSwap       float64
	sessionMinIntervalMs int
	sessionMaxIntervalMs int
	sessionName          string
	sessionWalletCount   int
	sessionNativePerW    float64
	sessionIntensity     string
	sessionDurationHrs   float64
	sessionWalletCSV     string
	sessionSellOnStop    bool
)

var sessionStartVolumeCmd = &cobra.Command{
	Use:   "start-volume",
	Short: "Start a volume session against a single token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSession(cmd, orchestrator.StartSpec{
			Kind:          orchestrator.KindVolume,
			Token:         sessionToken,
			MaxWallets:    sessionMaxWallets,
			MinSwapNative: sessionMinSwap,
			MaxSwapNative: sessionMaxSwap,
			MinIntervalMs: sessionMinIntervalMs,
			MaxIntervalMs: sessionMaxIntervalMs,
		})
	},
}

var sessionStartBotCmd = &cobra.Command{
	Use:   "start-bot",
	Short: "Start a bot session over freshly funded wallets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSession(cmd, orchestrator.StartSpec{
			Kind:            orchestrator.KindBot,
			Token:           sessionToken,
			Name:            sessionName,
			WalletCount:     sessionWalletCount,
			NativePerWallet: sessionNativePerW,
			Intensity:       preset.Intensity(sessionIntensity),
		})
	},
}

var sessionStartActivityCmd = &cobra.Command{
	Use:   "start-activity",
	Short: "Start an organic-activity session over explicit wallets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var wallets []string
		if sessionWalletCSV != "" {
			wallets = strings.Split(sessionWalletCSV, ",")
		}
		return runSession(cmd, orchestrator.StartSpec{
			Kind:            orchestrator.KindActivity,
			DurationHours:   sessionDurationHrs,
			WalletAddresses: wallets,
			Intensity:       preset.Intensity(sessionIntensity),
		})
	},
}

// runSession unlocks the vault, starts spec, then blocks until SIGINT/
// SIGTERM or (for activity sessions) the configured duration elapses,
// stopping the session and printing its final stats before returning.
func runSession(cmd *cobra.Command, spec orchestrator.StartSpec) error {
	ctx := GetCmdContext(cmd)

	password, err := promptPassword("Enter vault password: ")
	if err != nil {
		return err
	}
	defer zero(password)

	orch, err := ctx.OpenOrchestrator(string(password))
	if err != nil {
		return err
	}

	status, err := orch.StartSession(cmd.Context(), spec)
	if err != nil {
		return err
	}
	if err := printResult(cmd, status); err != nil {
		return err
	}

	autoStops := spec.Kind == orchestrator.KindActivity && spec.DurationHours > 0
	output.SessionStarted(status.ID, autoStops)
	if sessionSellOnStop {
		output.SellOnStopWarning(status.ID)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	stopReason := "requested by operator"
	if autoStops {
		timer := time.NewTimer(time.Duration(spec.DurationHours * float64(time.Hour)))
		defer timer.Stop()
		select {
		case <-sigCtx.Done():
		case <-timer.C:
			stopReason = "activity duration elapsed"
		}
	} else {
		<-sigCtx.Done()
	}

	output.SessionStopping(status.ID, stopReason)
	final, err := orch.StopSession(context.Background(), status.ID, sessionSellOnStop)
	if err != nil {
		return err
	}
	return printResult(cmd, final)
}

//nolint:gochecknoglobals
var sessionStatusID string

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a running session's status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		if ctx.Orch == nil {
			return fmt.Errorf("no session has been started in this process")
		}
		status, err := ctx.Orch.GetStatus(sessionStatusID)
		if err != nil {
			return err
		}
		return printResult(cmd, status)
	},
}

//nolint:gochecknoglobals
var sessionListKind string

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List running sessions of a kind",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		var sessions []orchestrator.Status
		if ctx.Orch != nil {
			sessions = ctx.Orch.ListByKind(orchestrator.Kind(sessionListKind))
		}

		if ctx.Fmt.Format() == output.FormatText {
			rows := make([]output.SessionRow, len(sessions))
			for i, s := range sessions {
				rows[i] = output.SessionRow{
					ID: s.ID, Kind: string(s.Kind), Name: s.Name, Token: s.Token,
					Running: s.Running, Wallets: len(s.Wallets),
				}
			}
			return output.RenderSessionTable(os.Stdout, rows)
		}
		return printResult(cmd, sessions)
	},
}

//nolint:gochecknoinits
func init() {
	sessionStartVolumeCmd.Flags().StringVar(&sessionToken, "token", "", "token mint to trade")
	sessionStartVolumeCmd.Flags().IntVar(&sessionMaxWallets, "max-wallets", 0, "maximum participating wallets (0 = all)")
	sessionStartVolumeCmd.Flags().Float64Var(&sessionMinSwap, "min-swap", 0, "minimum native swap size")
	sessionStartVolumeCmd.Flags().Float64Var(&sessionMaxSwap, "max-swap", 0, "maximum native swap size")
	sessionStartVolumeCmd.Flags().IntVar(&sessionMinIntervalMs, "min-interval-ms", 0, "minimum delay between swaps")
	sessionStartVolumeCmd.Flags().IntVar(&sessionMaxIntervalMs, "max-interval-ms", 0, "maximum delay between swaps")

	sessionStartBotCmd.Flags().StringVar(&sessionToken, "token", "", "token mint to trade")
	sessionStartBotCmd.Flags().StringVar(&sessionName, "name", "", "unique session name")
	sessionStartBotCmd.Flags().IntVar(&sessionWalletCount, "wallets", 1, "number of wallets to generate and fund")
	sessionStartBotCmd.Flags().Float64Var(&sessionNativePerW, "native-per-wallet", 0.1, "native funding per generated wallet")
	sessionStartBotCmd.Flags().StringVar(&sessionIntensity, "intensity", string(preset.Medium), "low, medium, or high")

	sessionStartActivityCmd.Flags().Float64Var(&sessionDurationHrs, "duration-hours", 1, "how long the session runs")
	sessionStartActivityCmd.Flags().StringVar(&sessionWalletCSV, "wallets", "", "comma-separated wallet addresses")

	for _, c := range []*cobra.Command{sessionStartVolumeCmd, sessionStartBotCmd, sessionStartActivityCmd} {
		c.Flags().BoolVar(&sessionSellOnStop, "sell-on-stop", false, "sell back any held tokens when the session stops")
	}

	sessionStatusCmd.Flags().StringVar(&sessionStatusID, "id", "", "session id")
	sessionListCmd.Flags().StringVar(&sessionListKind, "kind", "", "filter by kind: volume, bot, activity")

	sessionCmd.AddCommand(sessionStartVolumeCmd, sessionStartBotCmd, sessionStartActivityCmd, sessionStatusCmd, sessionListCmd)
	rootCmd.AddCommand(sessionCmd)
}
