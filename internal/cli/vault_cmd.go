package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trenchsniper/trenchsniperd/internal/output"
	"github.com/trenchsniper/trenchsniperd/internal/vault"
	"github.com/trenchsniper/trenchsniperd/pkg/sniperr"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the wallet vault",
	Long:  `Generate, import, list, remove, and back up wallets held in the encrypted vault.`,
}

//nolint:gochecknoglobals
var vaultGenerateCount int

//nolint:gochecknoglobals
var vaultGenerateKind string

//nolint:gochecknoglobals
var vaultNamePrefix string

var vaultGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new wallets in the vault",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		handles, err := ctx.Vault.GenerateBatch(vaultGenerateCount, vaultNamePrefix, vault.Kind(vaultGenerateKind), string(password))
		if err != nil {
			return err
		}

		addresses := make([]string, len(handles))
		for i, h := range handles {
			addresses[i] = h.Address
		}
		return printResult(cmd, addresses)
	},
}

var vaultImportCmd = &cobra.Command{
	Use:   "import [secret]",
	Short: "Import a wallet from a base58-encoded secret key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		handle, err := ctx.Vault.Import(args[0], vaultNamePrefix, vault.Kind(vaultGenerateKind), string(password))
		if err != nil {
			return err
		}
		return printResult(cmd, handle)
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallet addresses held in the vault",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		handles, err := ctx.Vault.Handles()
		if err != nil {
			return err
		}

		if ctx.Fmt.Format() == output.FormatText {
			rows := make([]output.WalletRow, len(handles))
			for i, h := range handles {
				rows[i] = output.WalletRow{ID: h.ID, Address: h.Address, Name: h.Name, Kind: string(h.Kind)}
			}
			return output.RenderWalletTable(os.Stdout, rows)
		}
		return printResult(cmd, handles)
	},
}

var vaultQRCmd = &cobra.Command{
	Use:   "qr [id]",
	Short: "Render a wallet's address as a terminal QR code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := GetCmdContext(cmd)
		handles, err := ctx.Vault.Handles()
		if err != nil {
			return err
		}

		for _, h := range handles {
			if h.ID == args[0] {
				return output.RenderAddressQR(os.Stdout, h.Address, output.DefaultQRConfig())
			}
		}
		return sniperr.ErrUnknownWallet
	},
}

//nolint:gochecknoglobals
var vaultRemoveForce bool

var vaultRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a wallet from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !vaultRemoveForce && !promptConfirmation(fmt.Sprintf("Remove wallet %s?", args[0])) {
			return nil
		}

		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		if err := ctx.Vault.Remove(args[0], string(password)); err != nil {
			return err
		}
		return output.FormatSuccess(os.Stdout, "wallet removed", ctx.Fmt.Format())
	},
}

//nolint:gochecknoglobals
var vaultExportPath string

var vaultExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an encrypted backup of the vault",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		data, err := ctx.Vault.ExportBackup(string(password))
		if err != nil {
			return err
		}

		if vaultExportPath == "" {
			cmd.Println(base64.StdEncoding.EncodeToString(data))
			return nil
		}
		return os.WriteFile(vaultExportPath, data, 0o600)
	},
}

var vaultImportBackupCmd = &cobra.Command{
	Use:   "import-backup [path]",
	Short: "Restore the vault from an exported backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		if err := ctx.Vault.ImportBackup(data, string(password)); err != nil {
			return err
		}
		return output.FormatSuccess(os.Stdout, "vault restored", ctx.Fmt.Format())
	},
}

var vaultUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Verify the vault password unlocks it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		password, err := promptPassword("Enter vault password: ")
		if err != nil {
			return err
		}
		defer zero(password)

		handles, err := ctx.Vault.Unlock(string(password))
		if err != nil {
			return err
		}
		return output.FormatSuccess(os.Stdout, fmt.Sprintf("vault unlocked: %d wallets", len(handles)), ctx.Fmt.Format())
	},
}

var vaultLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault, clearing decrypted secrets from memory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := GetCmdContext(cmd)
		ctx.Vault.Lock()
		return output.FormatSuccess(os.Stdout, "vault locked", ctx.Fmt.Format())
	},
}

// printResult renders v through the command context's formatter.
func printResult(cmd *cobra.Command, v any) error {
	ctx := GetCmdContext(cmd)
	formatter := output.NewFormatter(ctx.Fmt.Format(), os.Stdout)
	return formatter.Print(v)
}

//nolint:gochecknoinits
func init() {
	vaultGenerateCmd.Flags().IntVar(&vaultGenerateCount, "count", 1, "number of wallets to generate")
	vaultGenerateCmd.Flags().StringVar(&vaultGenerateKind, "kind", "sniper", "wallet kind: sniper, treasury, burner")
	vaultGenerateCmd.Flags().StringVar(&vaultNamePrefix, "prefix", "wallet", "name prefix for generated wallets")

	vaultImportCmd.Flags().StringVar(&vaultGenerateKind, "kind", "sniper", "wallet kind: sniper, treasury, burner")
	vaultImportCmd.Flags().StringVar(&vaultNamePrefix, "name", "imported", "wallet name")

	vaultRemoveCmd.Flags().BoolVar(&vaultRemoveForce, "force", false, "skip the confirmation prompt")

	vaultExportCmd.Flags().StringVar(&vaultExportPath, "out", "", "write the backup to this path instead of stdout (base64)")

	vaultCmd.AddCommand(vaultUnlockCmd, vaultLockCmd, vaultGenerateCmd, vaultImportCmd, vaultListCmd, vaultQRCmd, vaultRemoveCmd, vaultExportCmd, vaultImportBackupCmd)
	rootCmd.AddCommand(vaultCmd)
}
