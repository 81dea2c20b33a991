package cmd

import (
	"context"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the blocks of the chain as a table",
	RunE:  showRun,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func showRun(cmd *cobra.Command, args []string) error {
	blocks, err := readChain(context.Background(), source, path, slotKey)
	if err != nil {
		return err
	}

	return pterm.DefaultTable.WithHasHeader().WithData(table(blocks)).Render()
}

func table(blocks []ledger.Block) pterm.TableData {
	data := pterm.TableData{
		{"Index", "Timestamp", "Hash", "Previous", "Status", "Payload"},
	}

	for _, b := range blocks {
		status := ""
		if n := len(b.Trace); n > 0 {
			status = b.Trace[n-1].Status
		}

		data = append(data, []string{
			strconv.FormatUint(b.Index, 10),
			b.Timestamp,
			short(b.Hash),
			short(b.PreviousHash),
			status,
			string(b.Payload),
		})
	}

	return data
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
