package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversion runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if ledger == nil {
		fmt.Fprintln(out, "No run ledger configured (set store.ledger_path, DJANGIFY_LEDGER or --ledger).")
		return nil
	}
	defer ledger.Close()

	runs, err := ledger.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprintln(out, renderRuns(runs))
	return nil
}
