package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/providers"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

// activityRow is one on-chain transfer of a registry token.
type activityRow struct {
	Direction    string
	Symbol       string
	Amount       string
	Counterparty string
	Hash         string
	Time         string
	Recorded     bool
}

// classifyTransfers keeps transfers of registry tokens and labels each one
// relative to account. Transfers from or to the zero address are mints and
// burns.
func classifyTransfers(txs []providers.Transfer, account string, reg *token.Registry, recorded map[string]bool) []activityRow {
	byContract := make(map[string]token.Descriptor)
	for _, d := range reg.All() {
		byContract[strings.ToLower(d.Address)] = d
	}
	zero := strings.ToLower(common.Address{}.Hex())
	self := strings.ToLower(account)

	var rows []activityRow
	for _, tx := range txs {
		d, ok := byContract[strings.ToLower(tx.Contract)]
		if !ok {
			continue
		}
		from, to := strings.ToLower(tx.From), strings.ToLower(tx.To)

		row := activityRow{
			Symbol:   d.Symbol,
			Amount:   token.FormatUnits(tx.Value, d.Decimals),
			Hash:     tx.Hash,
			Recorded: recorded[strings.ToLower(tx.Hash)],
		}
		if !tx.Time.IsZero() {
			row.Time = ledger.Stamp(tx.Time)
		}
		switch {
		case from == zero:
			row.Direction = "mint"
		case to == zero:
			row.Direction = "burn"
		case from == self:
			row.Direction, row.Counterparty = "out", tx.To
		default:
			row.Direction, row.Counterparty = "in", tx.From
		}
		rows = append(rows, row)
	}
	return rows
}

// runOnchainHistory lists the account's token transfers from the explorer
// APIs and marks those already in the local ledger.
func runOnchainHistory(ctx context.Context, a *app, account string, limit int) error {
	reg := providers.BuildRegistry(a.cfg)
	if len(reg.Names()) == 0 {
		return fmt.Errorf("no explorer API configured: set explorer_api.blockscout_url or explorer_api.etherscan_key")
	}

	if limit <= 0 {
		limit = 50
	}
	spin := ui.NewSpinner("Fetching on-chain activity…")
	spin.Start()
	res, err := reg.TokenTransfers(ctx, account, limit)
	spin.Stop()
	for _, w := range res.Warnings {
		logger.Warn("explorer provider failed", zap.String("detail", w))
		fmt.Fprintln(os.Stderr, ui.Warn(w))
	}
	if err != nil {
		return err
	}

	recorded := make(map[string]bool)
	for _, e := range a.ledger.All() {
		recorded[strings.ToLower(e.TxHash)] = true
	}
	rows := classifyTransfers(res.Transfers, account, a.reg, recorded)
	if len(rows) == 0 {
		fmt.Println(ui.Info("No token transfers found for " + account))
		return nil
	}

	t := ui.NewTable([]ui.Column{
		{Title: "DIR", Width: 4},
		{Title: "AMOUNT", Width: 24},
		{Title: "COUNTERPARTY", Width: 13},
		{Title: "TX", Width: 13},
		{Title: "TIME", Width: 19},
		{Title: "LEDGER", Width: 6},
	})
	for _, r := range rows {
		mark := ""
		if r.Recorded {
			mark = "✓"
		}
		t.AddRow(ui.Row{r.Direction, r.Amount + " " + r.Symbol, ui.TruncateAddr(r.Counterparty), ui.TruncateAddr(r.Hash), r.Time, mark})
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Meta(fmt.Sprintf("%d transfer(s) via %s", len(rows), res.Source)))
	return nil
}
