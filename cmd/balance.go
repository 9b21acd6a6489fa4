package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var (
	balanceToken   string
	balanceAccount string
	balanceAll     bool
	balanceYes     bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the token balance of the connected account",
	Long: `Show a token balance with its fiat price.

Without --account the configured wallet is connected and its address used.`,
	Example: `  neondash balance
  neondash balance --token WETH
  neondash balance --all --account 0x70997970C51812dc3A010C7d01b50e0d17dc79C8`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(cfg, logger, appOptions{approve: approveConnect(balanceYes)})
		if err != nil {
			return err
		}
		defer a.Close()

		account, err := resolveAccount(ctx, a, balanceAccount)
		if err != nil {
			return err
		}

		tokens := a.reg.All()
		if !balanceAll {
			d := a.reg.Default()
			if balanceToken != "" {
				if d, err = a.reg.Get(balanceToken); err != nil {
					return fmt.Errorf("token %q: %w", balanceToken, err)
				}
			}
			tokens = []token.Descriptor{d}
		}

		spin := ui.NewSpinner("Reading balances…")
		spin.Start()
		pairs := make([][2]string, 0, len(tokens)+1)
		pairs = append(pairs, [2]string{"Account", ui.Addr(account)})
		var base session.Prices
		for _, d := range tokens {
			sess := session.New(a.reg)
			if _, _, err := sess.SelectToken(d.Symbol); err != nil {
				spin.Stop()
				return err
			}
			r, _ := sess.SetAccount(account)
			a.syncer.Refresh(ctx, sess, r)

			p := sess.Prices()
			base = p
			line := balanceText(sess.Balance())
			if p.Token.Status != session.NotApplicable {
				line += "  " + ui.Meta("@") + " " + readoutText(p.Token, p.Currency)
			}
			pairs = append(pairs, [2]string{d.Symbol, line})
		}
		spin.Stop()

		pairs = append(pairs, [2]string{"ETH", readoutText(base.Base, base.Currency)})
		fmt.Println(ui.KeyValueBlock("Balance  ·  "+networkName(cfg.ChainID), pairs))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVarP(&balanceToken, "token", "t", "", "token symbol (default MXT)")
	balanceCmd.Flags().StringVarP(&balanceAccount, "account", "a", "", "address or ENS name to read instead of the connected wallet")
	balanceCmd.Flags().BoolVar(&balanceAll, "all", false, "show every registered token")
	balanceCmd.Flags().BoolVarP(&balanceYes, "yes", "y", false, "connect the wallet without asking")
}
