package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/ens"
	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/submit"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var (
	opToken string
	opYes   bool
	opForce bool
)

var transferCmd = &cobra.Command{
	Use:     "transfer <recipient> <amount>",
	Short:   "Transfer tokens to another address",
	Args:    cobra.ExactArgs(2),
	Example: "  neondash transfer 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 1.5 --token WETH\n  neondash transfer alice.eth 10",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(submit.Request{Kind: ledger.Transfer, Recipient: args[0], Amount: args[1]})
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <amount>",
	Short: "Mint tokens to the connected account (MXT only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(submit.Request{Kind: ledger.Mint, Amount: args[0]})
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn <amount>",
	Short: "Burn tokens from the connected account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(submit.Request{Kind: ledger.Burn, Amount: args[0]})
	},
}

// runOperation previews req, asks for confirmation, then signs, sends and
// waits for it. The new balance is shown once the operation is confirmed.
func runOperation(req submit.Request) error {
	ctx, stop := signalContext()
	defer stop()

	spin := ui.NewSpinner("Waiting for confirmation…")
	spinning := false
	confirm := func(p submit.Plan) bool {
		fmt.Println(ui.KeyValueBlock(string(p.Kind)+" Preview", previewPairs(p)))
		if !opYes && !ui.Confirm("Sign and send this transaction?") {
			return false
		}
		spin.Start()
		spinning = true
		return true
	}

	a, err := newApp(cfg, logger, appOptions{
		confirm: confirm,
		approve: approveConnect(opYes),
		force:   opForce,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.reg.Default()
	if opToken != "" {
		if d, err = a.reg.Get(opToken); err != nil {
			return fmt.Errorf("token %q: %w", opToken, err)
		}
	}

	account, err := a.syncer.Connect(ctx)
	if err != nil {
		return err
	}

	if req.Kind == ledger.Transfer && ens.IsName(req.Recipient) {
		addr, err := ens.NewResolver(a.client).Resolve(ctx, req.Recipient)
		if err != nil {
			return err
		}
		fmt.Println(ui.Meta(strings.TrimSpace(req.Recipient)+" → ") + ui.Addr(addr.Hex()))
		req.Recipient = addr.Hex()
	}

	res, err := a.submitter.Submit(ctx, account, d, req)
	if spinning {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.Success(fmt.Sprintf("%s of %s %s confirmed", res.Entry.Kind, res.Entry.Amount, d.Symbol)))
	fmt.Println(ui.KeyValueBlock("Receipt", [][2]string{
		{"Tx", res.Entry.TxHash},
		{"Block", fmt.Sprint(res.Receipt.BlockNumber)},
		{"Gas used", res.Entry.GasUsed},
		{"Time", res.Entry.Timestamp},
		{"Explorer", cfg.TxURL(res.Entry.TxHash)},
	}))
	if res.PersistErr != nil {
		fmt.Fprintln(os.Stderr, ui.Warn("Transaction confirmed but history was not saved: "+res.PersistErr.Error()))
	}

	sess := session.New(a.reg)
	if _, _, err := sess.SelectToken(d.Symbol); err != nil {
		return err
	}
	if r, ok := sess.SetAccount(account); ok {
		bal := a.syncer.FetchBalance(ctx, r)
		if sess.ApplyBalance(bal) {
			fmt.Println(ui.Meta("New balance: ") + balanceText(sess.Balance()))
		}
	}
	logger.Info("operation complete", zap.String("op", string(res.Entry.Kind)), zap.String("tx", res.Entry.TxHash))
	return nil
}

func previewPairs(p submit.Plan) [][2]string {
	pairs := [][2]string{
		{"Token", p.Token.Symbol + " (" + p.Token.Name + ")"},
		{"Amount", p.Display + " " + p.Token.Symbol},
		{"From", p.Account.Hex()},
	}
	if p.Kind == ledger.Transfer {
		pairs = append(pairs, [2]string{"To", p.To.Hex()})
	}
	return append(pairs,
		[2]string{"Contract", p.Token.Address},
		[2]string{"Network", networkName(cfg.ChainID)},
	)
}

func init() {
	for _, c := range []*cobra.Command{transferCmd, mintCmd, burnCmd} {
		c.Flags().StringVarP(&opToken, "token", "t", "", "token symbol (default MXT)")
		c.Flags().BoolVarP(&opYes, "yes", "y", false, "skip the connection and confirmation prompts")
		c.Flags().BoolVar(&opForce, "force", false, "send with a fixed gas limit when gas estimation fails")
	}
}
