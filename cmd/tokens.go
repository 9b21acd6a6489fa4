package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/neondash/internal/chain"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var tokensOnchain bool

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the supported tokens",
	Long: `List the supported tokens. With --onchain each contract's name, symbol,
decimals and owner are read from the chain and checked against the registry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		tokens := a.reg.All()
		cols := []ui.Column{
			{Title: "SYMBOL", Width: 7},
			{Title: "NAME", Width: 16},
			{Title: "DECIMALS", Width: 8},
			{Title: "PRICE", Width: 16},
			{Title: "MINT", Width: 4},
			{Title: "CONTRACT", Width: 42},
		}

		type onchain struct {
			meta  chain.Metadata
			owner string
			err   error
		}
		results := make([]onchain, len(tokens))
		if tokensOnchain {
			ctx, stop := signalContext()
			defer stop()
			if err := a.checkChain(ctx); err != nil {
				return err
			}

			var g errgroup.Group
			for i, d := range tokens {
				g.Go(func() error {
					addr := common.HexToAddress(d.Address)
					results[i].meta, results[i].err = a.balances.TokenMetadata(ctx, addr)
					if results[i].err != nil {
						return nil
					}
					if owner, err := a.balances.Owner(ctx, addr); err == nil {
						results[i].owner = owner.Hex()
					}
					return nil
				})
			}
			_ = g.Wait()
			cols = append(cols, ui.Column{Title: "ON-CHAIN", Width: 30})
		}

		t := ui.NewTable(cols)
		for i, d := range tokens {
			priceKey := d.PriceKey
			if priceKey == "" {
				priceKey = "n/a"
			}
			mint := ""
			if a.reg.Mintable(d.Symbol) {
				mint = "yes"
			}
			row := ui.Row{d.Symbol, d.Name, fmt.Sprint(d.Decimals), priceKey, mint, d.Address}
			if tokensOnchain {
				row = append(row, onchainStatus(d.Symbol, d.Decimals, results[i].meta, results[i].owner, results[i].err))
			}
			t.AddRow(row)
		}
		fmt.Println(t.Render())
		return nil
	},
}

// onchainStatus compares on-chain metadata with the registry entry.
func onchainStatus(symbol string, decimals uint8, m chain.Metadata, owner string, err error) string {
	switch {
	case err != nil:
		return "unreachable"
	case m.Symbol != symbol || m.Decimals != decimals:
		return fmt.Sprintf("mismatch: %s/%d", m.Symbol, m.Decimals)
	case owner != "":
		return "ok, owner " + ui.TruncateAddr(owner)
	default:
		return "ok"
	}
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensOnchain, "onchain", false, "verify each contract on chain")
}
