package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var priceToken string

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show fiat prices and the base asset's recent history",
	Example: `  neondash price
  neondash price --token WBTC --currency eur`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(cfg, logger, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		sess := session.New(a.reg)
		if priceToken != "" {
			if _, _, err := sess.SelectToken(priceToken); err != nil {
				return fmt.Errorf("token %q: %w", priceToken, err)
			}
		}

		spin := ui.NewSpinner("Fetching prices…")
		spin.Start()
		a.syncer.Refresh(ctx, sess, sess.PriceRefresh())
		spin.Stop()

		p := sess.Prices()
		sel := sess.Selected()
		fmt.Println(ui.KeyValueBlock("Prices  ·  "+upper(p.Currency), [][2]string{
			{sel.Symbol, readoutText(p.Token, p.Currency)},
			{"ETH", readoutText(p.Base, p.Currency)},
			{"Source", cfg.Price.BaseSource},
		}))

		switch p.HistoryStatus {
		case session.Error:
			fmt.Println(ui.Err("history unavailable: " + p.HistoryErr))
			return nil
		case session.Ready:
		default:
			return nil
		}
		if len(p.History) == 0 {
			fmt.Println(ui.Meta("No history data."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "DAY", Width: 8},
			{Title: "ETH", Width: 14},
		})
		for _, pt := range p.History {
			t.AddRow(ui.Row{pt.Label, ui.Fiat(pt.Value, p.Currency)})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.StyleAccent.Render(sparkline(p)))
		return nil
	},
}

// sparkline renders the history as a sparkline with its range.
func sparkline(p session.Prices) string {
	vals := make([]decimal.Decimal, len(p.History))
	for i, pt := range p.History {
		vals[i] = pt.Value
	}
	lo, hi := ui.MinMax(vals)
	last := vals[len(vals)-1]
	return fmt.Sprintf("%s  min %s  max %s  last %s", ui.Sparkline(vals),
		ui.Fiat(lo, p.Currency), ui.Fiat(hi, p.Currency), ui.Fiat(last, p.Currency))
}

func init() {
	priceCmd.Flags().StringVarP(&priceToken, "token", "t", "", "token symbol (default MXT)")
}
