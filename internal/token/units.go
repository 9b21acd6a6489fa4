package token

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount parsing errors.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrTooPrecise        = errors.New("amount has more decimals than the token supports")
)

// FormatUnits converts a smallest-unit integer into a human-readable decimal
// string. Trailing zeros are trimmed but at least one fractional digit is
// kept: 1e18 with 18 decimals renders as "1.0".
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0.0"
	}
	s := decimal.NewFromBigInt(raw, -int32(decimals)).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseUnits converts a human-readable positive amount into the token's
// smallest unit.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	return scaled.BigInt(), nil
}
