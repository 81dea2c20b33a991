package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/merkle"
)

// ErrInvalid is returned when the chain fails validation.
var ErrInvalid = errors.New("chain is not valid")

var strictTraces bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Recompute every hash and report the first block that fails",
	RunE:  validateRun,
}

func init() {
	validateCmd.Flags().BoolVar(&strictTraces, "traces", false, "Also check the trace commitments.")
	rootCmd.AddCommand(validateCmd)
}

func validateRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain(context.Background(), source, path, slotKey)
	if err != nil {
		return err
	}

	return report(blocks, strictTraces)
}

// report prints the validation result and returns ErrInvalid when the
// chain or, if asked, its traces fail.
func report(blocks []ledger.Block, traces bool) error {
	if err := ledger.Validate(blocks); err != nil {
		if ve := ledger.AsValidationError(err); ve != nil {
			pterm.Error.Printfln("block %d: %s", ve.Index, ve.Reason)
			pterm.Info.Printfln("got %s", ve.Got)
			pterm.Info.Printfln("exp %s", ve.Exp)
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if traces {
		if err := ledger.ValidateTraces(blocks); err != nil {
			pterm.Error.Println(err.Error())
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	pterm.Success.Printfln("%d blocks, chain is valid", len(blocks))

	if tree, err := merkle.NewTree(blocks); err == nil {
		pterm.Info.Printfln("merkle root %s", tree.RootHex())
	}

	return nil
}
