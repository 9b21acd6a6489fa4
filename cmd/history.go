package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var (
	historyLimit int
	historyJSON  bool
	historyKind  string

	historyOnchain bool
	historyAccount string
	historyYes     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed transfers, mints and burns, newest first",
	Long: `List the transfers, mints and burns made from this machine, newest first.

With --onchain the account's token transfers are read from the block explorer
APIs instead, and entries already in the local history are marked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger, appOptions{approve: approveConnect(historyYes)})
		if err != nil {
			return err
		}
		defer a.Close()

		if historyOnchain {
			ctx, stop := signalContext()
			defer stop()
			account, err := resolveAccount(ctx, a, historyAccount)
			if err != nil {
				return err
			}
			return runOnchainHistory(ctx, a, account, historyLimit)
		}

		entries, err := filterEntries(a.ledger.All(), historyKind, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if a.ledger.Degraded() {
			fmt.Println(ui.Warn("History storage is unavailable; showing this session only."))
		}
		if len(entries) == 0 {
			fmt.Println(ui.Info("No transactions yet."))
			fmt.Println(ui.Hint("Make one with: neondash transfer <recipient> <amount>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "TYPE", Width: 9},
			{Title: "AMOUNT", Width: 18},
			{Title: "TO", Width: 13},
			{Title: "GAS", Width: 8},
			{Title: "TIME", Width: 19},
			{Title: "EXPLORER", Width: 86},
		})
		for _, e := range entries {
			t.AddRow(ui.Row{
				string(e.Kind),
				e.Amount,
				ui.TruncateAddr(e.To),
				e.GasUsed,
				e.Timestamp,
				cfg.TxURL(e.TxHash),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d of %d transaction(s)", len(entries), a.ledger.Len())))
		return nil
	},
}

// filterEntries keeps entries of kind (all when empty), up to limit (all when 0).
func filterEntries(entries []ledger.Entry, kind string, limit int) ([]ledger.Entry, error) {
	if kind != "" {
		k, err := ledger.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		filtered := entries[:0:0]
		for _, e := range entries {
			if e.Kind == k {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most n entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
	historyCmd.Flags().StringVar(&historyKind, "type", "", "only Transfer, Mint or Burn")
	historyCmd.Flags().BoolVar(&historyOnchain, "onchain", false, "read token transfers from the block explorer")
	historyCmd.Flags().BoolVarP(&historyYes, "yes", "y", false, "connect the wallet for --onchain without asking")
	historyCmd.Flags().StringVarP(&historyAccount, "account", "a", "", "address or ENS name for --onchain (default: connected wallet)")
}
