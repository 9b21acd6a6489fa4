package ui

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/price"
	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/token"
)

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Dashboard) View() string {
	if m.quitting {
		return ""
	}
	spinner := spinFrames[m.frame%len(spinFrames)]

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⚡ neondash  ·  "+m.network) + "\n")

	sb.WriteString(m.headerView() + "\n")
	sb.WriteString(balanceView(m.sess.Balance(), m.sess.Connected(), spinner) + "\n")
	sb.WriteString(pricesView(m.sess.Selected(), m.sess.Prices(), spinner) + "\n\n")

	switch {
	case m.approval != nil:
		sb.WriteString(approvalView(m.approval) + "\n\n")
	case m.review != nil:
		sb.WriteString(reviewView(*m.review) + "\n\n")
	case m.form != nil:
		cursor := " "
		if m.frame%8 < 4 {
			cursor = "▏"
		}
		sb.WriteString(m.form.view(cursor) + "\n\n")
	case m.pending != nil:
		sb.WriteString(StyleWarning.Render(fmt.Sprintf("%s %s of %s %s: waiting for signature and confirmation…",
			spinner, m.pending.Kind, m.pending.Display, m.pending.Token.Symbol)) + "\n\n")
	}

	sb.WriteString(historyView(m.entries, m.cursor, m.txURL))

	if m.alert != "" {
		sb.WriteString("\n" + StyleAlert.Render("✗ "+m.alert) + "\n")
		sb.WriteString(Hint("enter dismiss") + "\n")
		return sb.String()
	}
	if m.notice != "" {
		sb.WriteString("\n" + StyleWarning.Render("  "+m.notice) + "\n")
	} else {
		sb.WriteString("\n" + controls() + "\n")
	}
	return sb.String()
}

func (m Dashboard) headerView() string {
	account := Meta("not connected · press c")
	switch {
	case m.connecting:
		account = StyleInfo.Render("connecting…")
	case m.sess.Connected():
		account = Addr(m.sess.Account())
	}

	reg := m.sess.Registry()
	sel := m.sess.Selected()
	var tokens []string
	for _, d := range reg.All() {
		if d.Symbol == sel.Symbol {
			tokens = append(tokens, StyleSelected.Render(" "+d.Symbol+" "))
		} else {
			tokens = append(tokens, StyleMeta.Render(" "+d.Symbol+" "))
		}
	}
	return padR(Meta("Account"), 10) + account + "\n" +
		padR(Meta("Token"), 10) + StyleMeta.Render("◀ ") + strings.Join(tokens, "") + StyleMeta.Render(" ▶  ") + Meta(sel.Name)
}

// balanceView renders the balance readout. A failed refresh keeps the last
// amount and flags it.
func balanceView(b session.Balance, connected bool, spinner string) string {
	label := padR(Meta("Balance"), 10)
	switch {
	case !connected:
		return label + Meta("—")
	case b.Status == session.Loading && b.Amount == "":
		return label + StyleInfo.Render(spinner+" loading…")
	case b.Status == session.Error:
		return label + Err("unavailable: "+trimErr(b.Notice))
	}
	out := label + Val(b.Amount) + " " + Symbol(b.Symbol)
	if b.Notice != "" {
		out += "  " + Warn("stale: "+trimErr(b.Notice))
	}
	return out
}

func pricesView(sel token.Descriptor, p session.Prices, spinner string) string {
	var sb strings.Builder
	sb.WriteString(padR(Meta(sel.Symbol+" price"), 14) + readoutView(p.Token, p.Currency, spinner))
	sb.WriteString("    ")
	sb.WriteString(padR(Meta("ETH price"), 11) + readoutView(p.Base, p.Currency, spinner))
	sb.WriteString("\n")
	sb.WriteString(padR(Meta("ETH 7d"), 14) + historyLine(p, spinner))
	return sb.String()
}

func readoutView(r session.Readout, currency, spinner string) string {
	switch r.Status {
	case session.Loading:
		return StyleInfo.Render(spinner + " loading")
	case session.Ready:
		return Val(Fiat(r.Value, currency))
	case session.Error:
		return Err("error") + " " + Meta(trimErr(r.Err))
	case session.NotApplicable:
		return Meta("N/A")
	default:
		return Meta("—")
	}
}

func historyLine(p session.Prices, spinner string) string {
	switch p.HistoryStatus {
	case session.Loading:
		return StyleInfo.Render(spinner + " loading")
	case session.Error:
		return Err("error") + " " + Meta(trimErr(p.HistoryErr))
	case session.Ready:
		if len(p.History) == 0 {
			return Meta("no data")
		}
	default:
		return Meta("—")
	}

	values := pointValues(p.History)
	lo, hi := MinMax(values)
	last := values[len(values)-1]
	return StyleAccent.Render(Sparkline(values)) + "  " +
		Meta("min ") + Val(Fiat(lo, p.Currency)) + "  " +
		Meta("max ") + Val(Fiat(hi, p.Currency)) + "  " +
		Meta("last ") + Val(Fiat(last, p.Currency))
}

func pointValues(pts []price.Point) []decimal.Decimal {
	out := make([]decimal.Decimal, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

// historyWindow returns the [start, end) slice of n rows that keeps cursor visible.
func historyWindow(n, cursor, size int) (start, end int) {
	if n <= size {
		return 0, n
	}
	start = cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

func historyView(entries []ledger.Entry, cursor int, txURL func(string) string) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(fmt.Sprintf("History (%d)", len(entries))) + "\n")
	if len(entries) == 0 {
		sb.WriteString(Meta("  No transactions yet. Press t, m or b to make one.") + "\n")
		return sb.String()
	}

	tbl := NewTable([]Column{
		{Title: "TYPE", Width: 9},
		{Title: "AMOUNT", Width: 18},
		{Title: "TO", Width: 13},
		{Title: "TX", Width: 13},
		{Title: "GAS", Width: 8},
		{Title: "TIME", Width: 19},
	})
	start, end := historyWindow(len(entries), cursor, historyRows)
	for _, e := range entries[start:end] {
		tbl.AddRow(Row{
			string(e.Kind),
			e.Amount,
			TruncateAddr(e.To),
			TruncateAddr(e.TxHash),
			e.GasUsed,
			e.Timestamp,
		})
	}
	tbl.SelIdx = cursor - start
	sb.WriteString(tbl.Render())

	if cursor >= 0 && cursor < len(entries) {
		sb.WriteString(Meta("  ↗ ") + Addr(txURL(entries[cursor].TxHash)) + "\n")
	}
	if end-start < len(entries) {
		sb.WriteString(Meta(fmt.Sprintf("  showing %d-%d of %d", start+1, end, len(entries))) + "\n")
	}
	return sb.String()
}

func controls() string {
	keys := [][2]string{
		{"c", "connect"},
		{"←→", "token"},
		{"t", "transfer"},
		{"m", "mint"},
		{"b", "burn"},
		{"↑↓", "history"},
		{"o", "open"},
		{"y", "copy"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = StyleInfo.Render("[ "+k[0]+" ]") + StyleMeta.Render(" "+k[1])
	}
	return strings.Join(parts, "  ")
}
