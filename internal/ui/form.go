package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/submit"
)

type formAction int

const (
	formNone formAction = iota
	formCancel
	formSubmit
)

type formField struct {
	label       string
	placeholder string
	value       string
}

// opForm collects the inputs of one transfer, mint or burn.
type opForm struct {
	kind   ledger.Kind
	symbol string
	fields []formField
	focus  int
	err    string
}

func newOpForm(kind ledger.Kind, symbol string) *opForm {
	f := &opForm{kind: kind, symbol: symbol}
	if kind == ledger.Transfer {
		f.fields = append(f.fields, formField{label: "Recipient", placeholder: "0x…"})
	}
	f.fields = append(f.fields, formField{label: "Amount", placeholder: "0.0 " + symbol})
	return f
}

func (f *opForm) request() submit.Request {
	req := submit.Request{Kind: f.kind}
	for _, fld := range f.fields {
		switch fld.label {
		case "Recipient":
			req.Recipient = strings.TrimSpace(fld.value)
		case "Amount":
			req.Amount = strings.TrimSpace(fld.value)
		}
	}
	return req
}

func (f *opForm) update(k tea.KeyMsg) formAction {
	switch k.Type {
	case tea.KeyEsc:
		return formCancel
	case tea.KeyEnter:
		if f.focus < len(f.fields)-1 {
			f.focus++
			return formNone
		}
		return formSubmit
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % len(f.fields)
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus + len(f.fields) - 1) % len(f.fields)
	case tea.KeyBackspace:
		v := []rune(f.fields[f.focus].value)
		if len(v) > 0 {
			f.fields[f.focus].value = string(v[:len(v)-1])
		}
	case tea.KeyCtrlU:
		f.fields[f.focus].value = ""
	case tea.KeyRunes, tea.KeySpace:
		f.fields[f.focus].value += string(k.Runes)
	}
	f.err = ""
	return formNone
}

func (f *opForm) view(frame string) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(fmt.Sprintf("%s %s", f.kind, f.symbol)) + "\n")
	for i, fld := range f.fields {
		label := StyleMeta.Render(fmt.Sprintf("  %-10s", fld.label))
		val := fld.value
		if val == "" && i != f.focus {
			val = StyleDim.Render(fld.placeholder)
		} else {
			val = StyleValue.Render(val)
		}
		if i == f.focus {
			label = StyleAccent.Render(fmt.Sprintf("› %-10s", fld.label))
			val += StyleAccent.Render(frame)
		}
		sb.WriteString(label + " " + val + "\n")
	}
	if f.err != "" {
		sb.WriteString(Err(f.err) + "\n")
	}
	sb.WriteString(Hint("enter next/submit · tab switch field · esc cancel"))
	return StyleBorder.Render(sb.String())
}

// reviewView renders the signature prompt for a validated plan.
func reviewView(p submit.Plan) string {
	pairs := [][2]string{
		{"Operation", string(p.Kind)},
		{"Token", p.Token.Symbol},
		{"Amount", p.Display + " " + p.Token.Symbol},
		{"From", p.Account.Hex()},
	}
	if p.Kind == ledger.Transfer {
		pairs = append(pairs, [2]string{"To", p.To.Hex()})
	}
	pairs = append(pairs, [2]string{"Contract", p.Token.Address})
	return KeyValueBlock("Sign transaction?", pairs) + "\n" +
		Hint("y sign & send · n cancel")
}

func approvalView(accounts []string) string {
	pairs := make([][2]string, len(accounts))
	for i, a := range accounts {
		pairs[i] = [2]string{fmt.Sprintf("Account %d", i+1), a}
	}
	return KeyValueBlock("Expose these accounts to neondash?", pairs) + "\n" +
		Hint("y connect · n reject")
}
