package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// padR pads s with spaces to n visible cells. Longer strings are returned as-is.
func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// trimErr shortens an error message to fit one table cell.
func trimErr(s string) string {
	const max = 30
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// Sparkline maps values onto block characters scaled between their min and max.
func Sparkline(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := MinMax(values)
	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(sparkLevels) - 1))

	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if span.IsPositive() {
			idx = int(v.Sub(lo).Div(span).Mul(top).Round(0).IntPart())
		}
		sb.WriteRune(sparkLevels[idx])
	}
	return sb.String()
}

// MinMax returns the smallest and largest of values. Both are zero for an empty slice.
func MinMax(values []decimal.Decimal) (lo, hi decimal.Decimal) {
	if len(values) == 0 {
		return decimal.Zero, decimal.Zero
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v.LessThan(lo) {
			lo = v
		}
		if v.GreaterThan(hi) {
			hi = v
		}
	}
	return lo, hi
}

var currencySigns = map[string]string{
	"usd": "$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
}

// Fiat renders v in currency: $1,234.56 for known signs, "1234.56 CHF" otherwise.
func Fiat(v decimal.Decimal, currency string) string {
	cur := strings.ToLower(currency)
	n := groupThousands(v.StringFixed(2))
	if sign, ok := currencySigns[cur]; ok {
		if strings.HasPrefix(n, "-") {
			return "-" + sign + n[1:]
		}
		return sign + n
	}
	return n + " " + strings.ToUpper(cur)
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	out := sb.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
