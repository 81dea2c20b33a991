package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

var keyPath string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new sealer key pair",
	RunE:  keygenRun,
}

func init() {
	keygenCmd.Flags().StringVar(&keyPath, "key", "zblock/sealer.ecdsa", "Path to write the private key.")
	rootCmd.AddCommand(keygenCmd)
}

func keygenRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.GenerateKey(keyPath)
	if err != nil {
		return err
	}

	pterm.Success.Printfln("sealer %s written to %s", signature.Address(privateKey), keyPath)
	return nil
}
