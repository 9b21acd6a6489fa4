package token

import (
	"errors"
	"strings"
)

// ErrUnknownToken is returned when a ticker is not in the registry.
var ErrUnknownToken = errors.New("unknown token")

// Descriptor identifies one supported fungible asset. Descriptors are
// defined at build time and never mutated.
type Descriptor struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	PriceKey string `json:"price_key"` // CoinGecko id; empty = price not applicable
	Logo     string `json:"logo"`
}

// HasPrice reports whether the asset has an external price lookup key.
func (d Descriptor) HasPrice() bool { return d.PriceKey != "" }

// Registry is the static set of supported tokens, keyed by ticker.
type Registry struct {
	tokens   []Descriptor
	bySymbol map[string]int
	def      string
	mintable string
}

// NewRegistry builds the registry of every supported token.
func NewRegistry() *Registry {
	return newRegistry(builtinTokens(), "MXT", "MXT")
}

func newRegistry(tokens []Descriptor, def, mintable string) *Registry {
	r := &Registry{
		tokens:   tokens,
		bySymbol: make(map[string]int, len(tokens)),
		def:      def,
		mintable: mintable,
	}
	for i, t := range tokens {
		r.bySymbol[strings.ToUpper(t.Symbol)] = i
	}
	return r
}

// All returns every token in display order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// Get finds a token by ticker (case-insensitive).
func (r *Registry) Get(symbol string) (Descriptor, error) {
	i, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Descriptor{}, ErrUnknownToken
	}
	return r.tokens[i], nil
}

// Default returns the asset selected when a session starts.
func (r *Registry) Default() Descriptor {
	d, _ := r.Get(r.def)
	return d
}

// Mintable reports whether client-side policy allows minting symbol.
// The contract enforces its own access control independently.
func (r *Registry) Mintable(symbol string) bool {
	return strings.EqualFold(symbol, r.mintable)
}

// MintableSymbol returns the ticker of the only mintable token.
func (r *Registry) MintableSymbol() string { return r.mintable }

// Next returns the token after symbol in display order, wrapping around.
// A negative step walks backwards.
func (r *Registry) Next(symbol string, step int) Descriptor {
	i, ok := r.bySymbol[strings.ToUpper(symbol)]
	if !ok || len(r.tokens) == 0 {
		return r.Default()
	}
	n := len(r.tokens)
	return r.tokens[((i+step)%n+n)%n]
}

func builtinTokens() []Descriptor {
	return []Descriptor{
		{
			Name:     "MaveriX Token",
			Symbol:   "MXT",
			Address:  "0x8ec06564305BF5624a784d943572Bc1A0ccB8166",
			Decimals: 18,
			Logo:     "/mxt-logo.png",
		},
		{
			Name:     "Wrapped ETH",
			Symbol:   "WETH",
			Address:  "0xdd13E55209Fd76AfE204dBda4007C227904f0a81",
			Decimals: 18,
			PriceKey: "weth",
			Logo:     "https://cryptologos.cc/logos/ethereum-eth-logo.png",
		},
		{
			Name:     "Wrapped BTC",
			Symbol:   "WBTC",
			Address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			Decimals: 8,
			PriceKey: "wrapped-bitcoin",
			Logo:     "https://cryptologos.cc/logos/bitcoin-btc-logo.png",
		},
	}
}
