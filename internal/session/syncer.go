package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/neondash/internal/price"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/wallet"
)

// AccountSource is the wallet capability.
type AccountSource interface {
	RequestAccounts(ctx context.Context) ([]string, error)
}

// BalanceSource reads token balances.
type BalanceSource interface {
	GetBalance(ctx context.Context, account string, d token.Descriptor) (string, error)
}

// PriceSource reads fiat prices.
type PriceSource interface {
	GetFiatPrice(ctx context.Context, key string) (price.Quote, error)
	GetHistory(ctx context.Context, key string, days int) ([]price.Point, error)
}

// Syncer performs the network reads behind a Session.
type Syncer struct {
	accounts AccountSource
	balances BalanceSource
	prices   PriceSource
	baseKey  string
	currency string
	days     int
	log      *zap.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithBaseAsset sets the price key of the chain's base asset.
func WithBaseAsset(key string) SyncerOption {
	return func(s *Syncer) {
		if key != "" {
			s.baseKey = key
		}
	}
}

// WithHistoryDays sets the length of the price history.
func WithHistoryDays(n int) SyncerOption {
	return func(s *Syncer) {
		if n > 0 {
			s.days = n
		}
	}
}

// WithCurrency labels price results with the quote currency.
func WithCurrency(c string) SyncerOption {
	return func(s *Syncer) { s.currency = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSyncer wires the read sources.
func NewSyncer(accounts AccountSource, balances BalanceSource, prices PriceSource, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		accounts: accounts,
		balances: balances,
		prices:   prices,
		baseKey:  "ethereum",
		currency: "usd",
		days:     7,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect asks the wallet for accounts and returns the first one.
func (s *Syncer) Connect(ctx context.Context) (string, error) {
	accounts, err := s.accounts.RequestAccounts(ctx)
	if err != nil {
		s.log.Warn("wallet connect failed", zap.Error(err))
		if errors.Is(err, wallet.ErrConnectionRejected) || errors.Is(err, wallet.ErrWalletUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", wallet.ErrWalletUnavailable, err)
	}
	if len(accounts) == 0 || accounts[0] == "" {
		return "", wallet.ErrWalletUnavailable
	}
	s.log.Info("wallet connected", zap.String("account", accounts[0]))
	return accounts[0], nil
}

// FetchBalance reads the balance for r's pair.
func (s *Syncer) FetchBalance(ctx context.Context, r Refresh) BalanceResult {
	res := BalanceResult{Refresh: r}
	if r.Account == "" {
		res.Err = errors.New("no account connected")
		return res
	}
	res.Amount, res.Err = s.balances.GetBalance(ctx, r.Account, r.Token)
	if res.Err != nil {
		s.log.Warn("balance read failed",
			zap.String("account", r.Account),
			zap.String("token", r.Token.Symbol),
			zap.Uint64("gen", r.Gen),
			zap.Error(res.Err))
	}
	return res
}

// FetchPrices reads the token price, the base asset price and the base
// asset's history concurrently. Each part fails independently.
func (s *Syncer) FetchPrices(ctx context.Context, r Refresh) PriceResult {
	res := PriceResult{Refresh: r, Currency: s.currency}

	var g errgroup.Group
	if r.Token.HasPrice() {
		g.Go(func() error {
			res.Token, res.TokenErr = s.prices.GetFiatPrice(ctx, r.Token.PriceKey)
			return nil
		})
	} else {
		res.Token = price.Quote{Currency: s.currency}
	}
	g.Go(func() error {
		res.Base, res.BaseErr = s.prices.GetFiatPrice(ctx, s.baseKey)
		return nil
	})
	g.Go(func() error {
		res.History, res.HistoryErr = s.prices.GetHistory(ctx, s.baseKey, s.days)
		return nil
	})
	_ = g.Wait()

	for name, err := range map[string]error{"token": res.TokenErr, "base": res.BaseErr, "history": res.HistoryErr} {
		if err != nil {
			s.log.Warn("price read failed",
				zap.String("readout", name),
				zap.String("token", r.Token.Symbol),
				zap.Uint64("gen", r.Gen),
				zap.Error(err))
		}
	}
	return res
}

// Refresh fetches balance and prices for r concurrently and applies both to
// sess. Balance is skipped when r has no account.
func (s *Syncer) Refresh(ctx context.Context, sess *Session, r Refresh) (balanceApplied, pricesApplied bool) {
	var (
		g   errgroup.Group
		bal BalanceResult
		prc PriceResult
	)
	if r.Account != "" {
		g.Go(func() error {
			bal = s.FetchBalance(ctx, r)
			return nil
		})
	}
	g.Go(func() error {
		prc = s.FetchPrices(ctx, r)
		return nil
	})
	_ = g.Wait()

	if r.Account != "" {
		balanceApplied = sess.ApplyBalance(bal)
	}
	pricesApplied = sess.ApplyPrices(prc)
	return balanceApplied, pricesApplied
}
