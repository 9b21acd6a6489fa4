package wallet_test

import (
	"context"
	"testing"

	"github.com/Mohsinsiddi/neondash/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAccountsNoWallets(t *testing.T) {
	p := wallet.NewProvider(wallet.NewManager())
	_, err := p.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, wallet.ErrWalletUnavailable)
}

func TestRequestAccountsSkipsWatchOnly(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWatchOnly("watch", "0x1234567890abcdef1234567890abcdef12345678"))
	_, err := wallet.NewProvider(mgr).RequestAccounts(context.Background())
	assert.ErrorIs(t, err, wallet.ErrWalletUnavailable)
}

func TestRequestAccountsDefaultFirst(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))
	require.NoError(t, mgr.AddWithKey("b", key1))
	require.NoError(t, mgr.SetDefault("b"))

	accounts, err := wallet.NewProvider(mgr).RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{addr1, addr0}, accounts)
}

func TestRequestAccountsPreferredOverridesDefault(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))
	require.NoError(t, mgr.AddWithKey("b", key1))
	require.NoError(t, mgr.SetDefault("b"))

	accounts, err := wallet.NewProvider(mgr, wallet.WithPreferred("a")).RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr0, accounts[0])
}

func TestRequestAccountsRejected(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))

	var offered []string
	p := wallet.NewProvider(mgr, wallet.WithApproval(func(accounts []string) bool {
		offered = accounts
		return false
	}))
	_, err := p.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, wallet.ErrConnectionRejected)
	assert.Equal(t, []string{addr0}, offered)
}

func TestAccountsSkipsApproval(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))

	asked := false
	p := wallet.NewProvider(mgr, wallet.WithApproval(func([]string) bool {
		asked = true
		return false
	}))
	accounts, err := p.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{addr0}, accounts)
	assert.False(t, asked)
}

func TestRequestAccountsCancelled(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := wallet.NewProvider(mgr).RequestAccounts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderSigner(t *testing.T) {
	mgr := wallet.NewManager()
	require.NoError(t, mgr.AddWithKey("a", key0))
	p := wallet.NewProvider(mgr)

	s, err := p.Signer(addr0)
	require.NoError(t, err)
	assert.Equal(t, addr0, s.Address())

	_, err = p.Signer(addr1)
	assert.ErrorIs(t, err, wallet.ErrWalletUnavailable)
}
