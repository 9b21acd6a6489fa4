package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/rpc"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Probe the configured RPC endpoints",
	Long: `Probe rpc_url and every rpc_fallbacks entry for chain ID, latest block and
latency, and show which endpoint rpc_algorithm would pick.`,
	Example: `  neondash rpc
  neondash config set rpc_fallbacks https://ethereum-sepolia-rpc.publicnode.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		urls := cfg.RPCURLs()
		spin := ui.NewSpinner(fmt.Sprintf("Probing %d endpoint(s)…", len(urls)))
		spin.Start()
		results := rpc.Benchmark(ctx, urls, cfg.ChainID, cfg.RequestTimeout)
		spin.Stop()

		winner, pickErr := rpc.Pick(results, rpc.Algorithm(cfg.RPCAlgorithm))

		t := ui.NewTable([]ui.Column{
			{Title: "", Width: 1},
			{Title: "URL", Width: 48},
			{Title: "CHAIN", Width: 9},
			{Title: "BLOCK", Width: 10},
			{Title: "LATENCY", Width: 8},
			{Title: "STATUS", Width: 30},
		})
		for _, r := range results {
			mark, chainID, block, latency, status := "", "—", "—", "—", ui.Success("ok")
			if pickErr == nil && r.URL == winner.URL {
				mark = "*"
			}
			if r.ChainID != 0 {
				chainID = fmt.Sprint(r.ChainID)
			}
			if r.Healthy() {
				block = fmt.Sprint(r.BlockNumber)
				latency = fmt.Sprintf("%dms", r.Latency.Milliseconds())
			} else {
				status = ui.Err(r.Err.Error())
			}
			t.AddRow(ui.Row{mark, r.URL, chainID, block, latency, status})
		}
		fmt.Println(t.Render())

		if pickErr != nil {
			return pickErr
		}
		fmt.Println(ui.Meta(fmt.Sprintf("%s picks %s", cfg.RPCAlgorithm, winner.URL)))
		return nil
	},
}
