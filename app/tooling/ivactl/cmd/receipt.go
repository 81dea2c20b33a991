package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/nameservice"
)

var (
	expectSealer string
	keysPath     string
)

var verifyReceiptCmd = &cobra.Command{
	Use:   "verify-receipt <receipt.json>",
	Short: "Recover the sealer address from a block receipt",
	Args:  cobra.ExactArgs(1),
	RunE:  verifyReceiptRun,
}

func init() {
	verifyReceiptCmd.Flags().StringVar(&expectSealer, "sealer", "", "Address the receipt must be signed by.")
	verifyReceiptCmd.Flags().StringVar(&keysPath, "keys", "", "Folder of known sealer keys used to name the signer.")
	rootCmd.AddCommand(verifyReceiptCmd)
}

func verifyReceiptRun(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	addr, err := verifyReceipt(data, expectSealer)
	if err != nil {
		return err
	}

	name := addr
	if keysPath != "" {
		ns, err := nameservice.New(keysPath)
		if err != nil {
			return err
		}
		name = ns.Lookup(addr)
	}

	pterm.Success.Printfln("receipt signed by %s", name)
	return nil
}

// verifyReceipt parses the receipt, recovers the signer and, when an
// expected sealer is provided, checks they match.
func verifyReceipt(data []byte, sealer string) (string, error) {
	var rct state.Receipt
	if err := json.Unmarshal(data, &rct); err != nil {
		return "", fmt.Errorf("decode receipt: %w", err)
	}

	addr, err := state.VerifyReceipt(rct)
	if err != nil {
		return "", err
	}

	if sealer != "" && !strings.EqualFold(addr, sealer) {
		return "", fmt.Errorf("receipt signed by %s, expected %s", addr, sealer)
	}

	return addr, nil
}
