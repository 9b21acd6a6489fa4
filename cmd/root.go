package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/neondash/internal/config"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/neondash/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	cfgFile string
	cfg     *config.Config
	logger  = zap.NewNop()
)

// rootCmd is the top-level command. Without a subcommand it opens the dashboard.
var rootCmd = &cobra.Command{
	Use:   "neondash",
	Short: "ERC-20 token dashboard for Sepolia",
	Long: `neondash: connect a wallet, watch token balances and prices, and
transfer, mint or burn tokens from the terminal.

Run without arguments for the interactive dashboard, or use the one-shot
commands below. Settings come from <config dir>/config.yaml, NEONDASH_*
environment variables and flags, in increasing order of precedence.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		dir, err := config.ResolveDir(cfgDir)
		if err != nil {
			return err
		}
		cfg, err = config.Load(dir, cfgFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err = newLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		logger.Debug("config loaded", zap.String("dir", cfg.Dir), zap.String("file", cfg.File()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runDashboard,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", "", "config directory (default: $NEONDASH_HOME or ~/.neondash)")
	pf.StringVar(&cfgFile, "config-file", "", "config file (default: <config dir>/config.yaml)")
	pf.String("rpc", "", "JSON-RPC endpoint")
	pf.String("currency", "", "fiat currency for prices")
	pf.String("storage", "", "ledger storage backend (file, badger, memory)")
	pf.String("wallet", "", "wallet to connect first")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("price-source", "", "base asset price source (coingecko, chainlink)")

	rootCmd.AddCommand(
		dashboardCmd,
		balanceCmd,
		priceCmd,
		historyCmd,
		transferCmd,
		mintCmd,
		burnCmd,
		tokensCmd,
		rpcCmd,
		walletCmd,
		configCmd,
	)
}
