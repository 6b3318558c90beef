package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/trenchsniper/trenchsniperd/internal/orchestrator"
	"github.com/trenchsniper/trenchsniperd/internal/vault"
	"github.com/trenchsniper/trenchsniperd/internal/venue"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var treasuryCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Fund and sweep native-token balances across vault wallets",
}

//nolint:gochecknoglobals
var (
	treasuryFrom         string
	treasuryTargetsCSV   string
	treasuryAmountNative float64
	treasurySweepSources string
	treasurySweepTo      string
	treasurySweepReserve float64
)

var treasuryFundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Send native tokens from one wallet to a set of targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)

		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		if _, err := ctx.Vault.Unlock(string(password)); err != nil {
			return err
		}
		session := vault.NewSession(ctx.Vault, string(password))

		targets := strings.Split(treasuryTargetsCSV, ",")
		perTarget := uint64(treasuryAmountNative * orchestrator.LamportsPerNative)

		result, err := ctx.Mover.Fund(cmd.Context(), session.SignerFor(treasuryFrom), treasuryFrom, targets, perTarget)
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	},
}

var treasurySweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Drain a set of source wallets down to a reserve, to one destination",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)

		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		if _, err := ctx.Vault.Unlock(string(password)); err != nil {
			return err
		}
		session := vault.NewSession(ctx.Vault, string(password))

		sources := make(map[string]venue.Signer)
		for _, addr := range strings.Split(treasurySweepSources, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			sources[addr] = session.SignerFor(addr)
		}

		reserve := uint64(treasurySweepReserve * orchestrator.LamportsPerNative)
		result, err := ctx.Mover.Sweep(cmd.Context(), sources, treasurySweepTo, reserve)
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	},
}

//nolint:gochecknoinits
func init() {
	treasuryFundCmd.Flags().StringVar(&treasuryFrom, "from", "", "source wallet address")
	treasuryFundCmd.Flags().StringVar(&treasuryTargetsCSV, "targets", "", "comma-separated target addresses")
	treasuryFundCmd.Flags().Float64Var(&treasuryAmountNative, "amount", 0, "native amount per target")

	treasurySweepCmd.Flags().StringVar(&treasurySweepSources, "sources", "", "comma-separated source addresses")
	treasurySweepCmd.Flags().StringVar(&treasurySweepTo, "to", "", "destination address")
	treasurySweepCmd.Flags().Float64Var(&treasurySweepReserve, "keep-reserve", 0, "native units to leave behind per source")

	treasuryCmd.AddCommand(treasuryFundCmd, treasurySweepCmd)
	rootCmd.AddCommand(treasuryCmd)
}
