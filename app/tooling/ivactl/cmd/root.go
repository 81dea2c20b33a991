// Package cmd contains the ledger maintenance commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	source  string
	path    string
	slotKey string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "json", "Kind of chain source: json, disk, leveldb or sqlite.")
	rootCmd.PersistentFlags().StringVarP(&path, "path", "p", "zblock/ledger.db", "Path to the chain source.")
	rootCmd.PersistentFlags().StringVarP(&slotKey, "slot", "k", "blockchain_data", "Key holding the chain in a leveldb source.")
}

var rootCmd = &cobra.Command{
	Use:          "ivactl",
	Short:        "Inspect and verify an IVA ledger",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
