package wallet

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrWalletUnavailable means no signing wallet is configured.
	ErrWalletUnavailable = errors.New("no wallet available: add one with `neondash wallet add`")
	// ErrConnectionRejected means the user declined to expose accounts.
	ErrConnectionRejected = errors.New("connection rejected")
)

// ApproveFunc is asked before accounts are exposed. Returning false rejects
// the connection.
type ApproveFunc func(accounts []string) bool

// Provider exposes the configured signing wallets as connectable accounts.
type Provider struct {
	mgr       *Manager
	preferred string
	approve   ApproveFunc
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithPreferred puts the named wallet first when present.
func WithPreferred(name string) ProviderOption {
	return func(p *Provider) { p.preferred = name }
}

// WithApproval installs a connection approval hook.
func WithApproval(fn ApproveFunc) ProviderOption {
	return func(p *Provider) { p.approve = fn }
}

// NewProvider returns a provider over mgr's wallets.
func NewProvider(mgr *Manager, opts ...ProviderOption) *Provider {
	p := &Provider{mgr: mgr}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RequestAccounts returns the addresses of every signing wallet once the
// approval hook, if any, accepts them.
func (p *Provider) RequestAccounts(ctx context.Context) ([]string, error) {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if p.approve != nil && !p.approve(accounts) {
		return nil, ErrConnectionRejected
	}
	return accounts, nil
}

// Accounts lists the connectable addresses without asking for approval. The
// preferred wallet comes first, then the default, then the rest by name.
func (p *Provider) Accounts(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wallets, err := p.mgr.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}

	lead := p.preferred
	if lead == "" {
		if def := p.mgr.Default(); def != nil {
			lead = def.Name
		}
	}

	var first, rest []string
	for _, w := range wallets {
		if !w.CanSign() {
			continue
		}
		if w.Name == lead {
			first = append(first, w.Address)
		} else {
			rest = append(rest, w.Address)
		}
	}
	accounts := append(first, rest...)
	if len(accounts) == 0 {
		return nil, ErrWalletUnavailable
	}
	return accounts, nil
}

// Signer returns the signing capability for account.
func (p *Provider) Signer(account string) (*Signer, error) {
	w, err := p.mgr.ByAddress(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWalletUnavailable, account)
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", w.Name)
	}
	return NewSigner(w, p.mgr.Keystore()), nil
}
