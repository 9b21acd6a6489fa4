// Package providers reads ERC-20 transfer activity for an account from block
// explorer APIs, trying each configured provider in order.
package providers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrAllFailed is returned when every provider in the registry fails.
var ErrAllFailed = errors.New("all providers failed")

// Transfer is one ERC-20 Transfer event touching the account.
type Transfer struct {
	Hash     string
	Block    uint64
	Time     time.Time
	From     string
	To       string
	Contract string
	Symbol   string
	Decimals uint8
	Value    *big.Int
	GasUsed  uint64
}

// Provider fetches token transfers for an address, newest first.
type Provider interface {
	Name() string
	TokenTransfers(ctx context.Context, address string, n int) ([]Transfer, error)
}

// Registry tries providers in order and returns the first successful result.
type Registry struct {
	providers []Provider
}

// New creates a Registry from an ordered list of providers.
func New(ps ...Provider) *Registry {
	return &Registry{providers: ps}
}

// Names lists the providers in the order they are tried.
func (r *Registry) Names() []string {
	out := make([]string, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Name()
	}
	return out
}

// Result carries the fetched transfers and the provider that supplied them.
type Result struct {
	Transfers []Transfer
	Source    string
	Warnings  []string // non-fatal provider errors
}

// TokenTransfers tries each provider in order and returns on the first one
// that answers. An empty answer is a valid answer.
func (r *Registry) TokenTransfers(ctx context.Context, address string, n int) (*Result, error) {
	res := &Result{}
	for _, p := range r.providers {
		txs, err := p.TokenTransfers(ctx, address, n)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		res.Transfers = txs
		res.Source = p.Name()
		return res, nil
	}
	return res, ErrAllFailed
}
