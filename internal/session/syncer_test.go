package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/neondash/internal/price"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/wallet"
)

type fakeWallet struct {
	accounts []string
	err      error
}

func (f fakeWallet) RequestAccounts(context.Context) ([]string, error) { return f.accounts, f.err }

type fakeBalances struct {
	mu     sync.Mutex
	calls  map[string]int
	amount string
	err    error
}

func (f *fakeBalances) GetBalance(_ context.Context, account string, d token.Descriptor) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[account+"/"+d.Symbol]++
	return f.amount, f.err
}

type fakePrices struct {
	mu      sync.Mutex
	spot    map[string]int
	history int
	err     error
}

func (f *fakePrices) GetFiatPrice(_ context.Context, key string) (price.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spot == nil {
		f.spot = map[string]int{}
	}
	f.spot[key]++
	if f.err != nil {
		return price.Quote{Key: key, Applicable: true}, f.err
	}
	return quote("100"), nil
}

func (f *fakePrices) GetHistory(context.Context, string, int) ([]price.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history++
	if f.err != nil {
		return nil, f.err
	}
	return []price.Point{{Label: "May 1"}}, nil
}

var ctx = context.Background()

func TestConnectReturnsFirstAccount(t *testing.T) {
	s := NewSyncer(fakeWallet{accounts: []string{"0xABC", "0xDEF"}}, &fakeBalances{}, &fakePrices{})
	acct, err := s.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0xABC", acct)

	sess := newSession()
	genBefore := sess.Gen()
	_, ok := sess.SetAccount(acct)
	assert.True(t, ok)
	assert.Equal(t, genBefore+1, sess.Gen(), "exactly one refresh")
}

func TestConnectErrors(t *testing.T) {
	_, err := NewSyncer(fakeWallet{}, nil, nil).Connect(ctx)
	assert.ErrorIs(t, err, wallet.ErrWalletUnavailable)

	_, err = NewSyncer(fakeWallet{err: wallet.ErrConnectionRejected}, nil, nil).Connect(ctx)
	assert.ErrorIs(t, err, wallet.ErrConnectionRejected)

	_, err = NewSyncer(fakeWallet{err: errors.New("disk")}, nil, nil).Connect(ctx)
	assert.ErrorIs(t, err, wallet.ErrWalletUnavailable)
}

func TestFetchPricesNoPriceKeySkipsNetwork(t *testing.T) {
	fp := &fakePrices{}
	s := NewSyncer(nil, nil, fp)
	res := s.FetchPrices(ctx, Refresh{Token: token.NewRegistry().Default()})
	assert.False(t, res.Token.Applicable)
	assert.NoError(t, res.TokenErr)
	assert.Equal(t, map[string]int{"ethereum": 1}, fp.spot, "only the base asset is priced")
	assert.Equal(t, 1, fp.history)
}

func TestFetchPricesWithKey(t *testing.T) {
	fp := &fakePrices{}
	weth, _ := token.NewRegistry().Get("WETH")
	res := NewSyncer(nil, nil, fp, WithBaseAsset("ethereum")).FetchPrices(ctx, Refresh{Token: weth})
	require.NoError(t, res.TokenErr)
	assert.True(t, res.Token.Applicable)
	assert.Equal(t, 1, fp.spot["weth"])
	assert.Equal(t, 1, fp.spot["ethereum"])
}

func TestFetchBalanceNoAccount(t *testing.T) {
	fb := &fakeBalances{}
	res := NewSyncer(nil, fb, nil).FetchBalance(ctx, Refresh{Token: token.NewRegistry().Default()})
	assert.Error(t, res.Err)
	assert.Empty(t, fb.calls)
}

func TestRefreshSelectThenConnectFetchesPairOnce(t *testing.T) {
	fb := &fakeBalances{amount: "1.0"}
	fp := &fakePrices{}
	syncer := NewSyncer(nil, fb, fp)
	sess := newSession()

	_, ok, err := sess.SelectToken("WETH")
	require.NoError(t, err)
	require.False(t, ok)

	r, ok := sess.SetAccount("0xA")
	require.True(t, ok)
	bApplied, pApplied := syncer.Refresh(ctx, sess, r)
	assert.True(t, bApplied)
	assert.True(t, pApplied)

	assert.Equal(t, map[string]int{"0xA/WETH": 1}, fb.calls)
	assert.Equal(t, 1, fp.spot["weth"])
	assert.Equal(t, "1.0", sess.Balance().Amount)
}

func TestRefreshStaleTicketNotApplied(t *testing.T) {
	fb := &fakeBalances{amount: "7.0"}
	syncer := NewSyncer(nil, fb, &fakePrices{})
	sess := newSession()

	stale, _ := sess.SetAccount("0xA")
	_, _, _ = sess.SelectToken("WBTC")

	bApplied, pApplied := syncer.Refresh(ctx, sess, stale)
	assert.False(t, bApplied)
	assert.False(t, pApplied)
	assert.Equal(t, "", sess.Balance().Amount)
}

func TestRefreshPriceFailureShowsError(t *testing.T) {
	fp := &fakePrices{err: price.ErrPriceUnavailable}
	syncer := NewSyncer(nil, &fakeBalances{amount: "1.0"}, fp)
	sess := newSession()
	_, _, _ = sess.SelectToken("WETH")
	r, _ := sess.SetAccount("0xA")

	syncer.Refresh(ctx, sess, r)
	p := sess.Prices()
	assert.Equal(t, Error, p.Token.Status)
	assert.True(t, p.Token.Value.IsZero())
	assert.Equal(t, Error, p.Base.Status)
	assert.Equal(t, Error, p.HistoryStatus)
	assert.Equal(t, Ready, sess.Balance().Status, "price failure does not touch balance")
}
