package cmd

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/chain"
	"github.com/Mohsinsiddi/neondash/internal/config"
	"github.com/Mohsinsiddi/neondash/internal/ledger"
	"github.com/Mohsinsiddi/neondash/internal/price"
	"github.com/Mohsinsiddi/neondash/internal/rpc"
	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/storage"
	"github.com/Mohsinsiddi/neondash/internal/submit"
	"github.com/Mohsinsiddi/neondash/internal/token"
	"github.com/Mohsinsiddi/neondash/internal/wallet"
)

// app holds every component a command may need, wired from config.
type app struct {
	cfg       *config.Config
	opts      appOptions
	log       *zap.Logger
	reg       *token.Registry
	kv        storage.KV
	ledger    *ledger.Ledger
	wallets   *wallet.Manager
	provider  *wallet.Provider
	client    *chain.EVMClient
	balances  *chain.BalanceReader
	prices    *price.Router
	syncer    *session.Syncer
	submitter *submit.Submitter
}

type appOptions struct {
	confirm submit.ConfirmFunc
	approve wallet.ApproveFunc
	force   bool
}

// newWalletManager opens the wallet store and keystore under the config dir.
func newWalletManager(c *config.Config) *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(c.WalletsPath())),
		wallet.WithKeystore(wallet.OpenKeystore(c.Dir)),
	)
}

// newApp wires storage, ledger, wallet, chain and price components. A ledger
// storage failure degrades history to memory instead of failing the command.
func newApp(c *config.Config, log *zap.Logger, o appOptions) (*app, error) {
	a := &app{
		cfg:  c,
		opts: o,
		log:  log,
		reg:  token.NewRegistry(),
	}

	kv, err := storage.Open(c.Storage.Backend, c.Dir, log)
	if err != nil {
		log.Warn("ledger storage unavailable, history kept in memory only", zap.Error(err))
	} else {
		a.kv = kv
	}
	a.ledger = ledger.New(a.kv,
		ledger.WithKey(c.Ledger.Key),
		ledger.WithMaxEntries(c.Ledger.MaxEntries),
		ledger.WithLogger(log.Named("ledger")),
	)
	if err := a.ledger.Load(); err != nil {
		log.Warn("ledger load failed", zap.Error(err))
	}

	a.wallets = newWalletManager(c)
	popts := []wallet.ProviderOption{wallet.WithPreferred(c.Wallet)}
	if o.approve != nil {
		popts = append(popts, wallet.WithApproval(o.approve))
	}
	a.provider = wallet.NewProvider(a.wallets, popts...)

	a.client = chain.NewEVMClient(selectRPC(c, log),
		chain.WithTimeout(c.RequestTimeout),
		chain.WithPollInterval(c.PollInterval),
		chain.WithClientLogger(log.Named("chain")),
	)
	a.balances = chain.NewBalanceReader(a.client)

	fetcher := price.NewFetcher(c.Price.Currency,
		price.WithBaseURL(c.Price.APIURL),
		price.WithTimeout(c.RequestTimeout),
	)
	a.prices = price.NewRouter(fetcher)
	if c.Price.BaseSource == config.SourceChainlink {
		a.prices.UseFeed(c.Price.BaseAsset, price.NewFeedReader(a.client, c.Price.FeedAddress))
	}

	a.syncer = session.NewSyncer(a.provider, a.balances, a.prices,
		session.WithBaseAsset(c.Price.BaseAsset),
		session.WithHistoryDays(c.Price.HistoryDays),
		session.WithCurrency(c.Price.Currency),
		session.WithLogger(log.Named("session")),
	)

	sopts := []submit.Option{
		submit.WithConfirmTimeout(c.ConfirmTimeout),
		submit.WithLogger(log.Named("submit")),
	}
	if o.confirm != nil {
		sopts = append(sopts, submit.WithConfirm(o.confirm))
	}
	a.submitter = submit.New(a.reg, a.sender, a.ledger, sopts...)
	return a, nil
}

// selectRPC returns the endpoint to use. With fallbacks configured every
// endpoint is probed and the configured algorithm picks one; the primary is
// kept when none is healthy.
func selectRPC(c *config.Config, log *zap.Logger) string {
	if len(c.RPCFallbacks) == 0 {
		return c.RPCURL
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.RequestTimeout)
	defer cancel()

	url, results, err := rpc.Select(ctx, c.RPCURLs(), rpc.Algorithm(c.RPCAlgorithm), c.ChainID, c.RequestTimeout)
	for _, r := range results {
		if !r.Healthy() {
			log.Debug("rpc endpoint unhealthy", zap.String("url", r.URL), zap.Error(r.Err))
		}
	}
	if err != nil {
		log.Warn("no healthy rpc endpoint, using primary", zap.String("url", c.RPCURL), zap.Error(err))
		return c.RPCURL
	}
	log.Info("rpc endpoint selected", zap.String("url", url), zap.String("algorithm", c.RPCAlgorithm))
	return url
}

// sender builds a Transactor signing with account's wallet key.
func (a *app) sender(account string) (submit.Sender, error) {
	signer, err := a.provider.Signer(account)
	if err != nil {
		return nil, err
	}
	return chain.NewTransactor(a.client, signer, big.NewInt(a.cfg.ChainID), chain.WithForceSend(a.opts.force)), nil
}

// checkChain verifies the RPC endpoint serves the configured chain.
func (a *app) checkChain(ctx context.Context) error {
	id, err := a.client.ChainID(ctx)
	if err != nil {
		return err
	}
	if id.Int64() != a.cfg.ChainID {
		return fmt.Errorf("rpc %s serves chain %s, expected %d", a.client.URL(), id, a.cfg.ChainID)
	}
	return nil
}

func (a *app) Close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.log.Warn("storage close failed", zap.Error(err))
		}
	}
}
