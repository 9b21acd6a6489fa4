package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/ui"
)

var (
	dashConnect bool
	dashToken   string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive token dashboard (default)",
	Long: `Open the interactive token dashboard.

  c        connect wallet          ←/→ [ ]  select token
  t m b    transfer / mint / burn   ↑/↓      browse history
  o        open tx in explorer      y        copy tx hash
  r        refresh                  q        quit`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(a.reg)
	if dashToken != "" {
		if _, _, err := sess.SelectToken(dashToken); err != nil {
			return fmt.Errorf("token %q: %w", dashToken, err)
		}
	}

	m := ui.NewDashboard(sess, a.syncer, a.submitter, a.ledger,
		ui.WithNetwork(networkName(cfg.ChainID)),
		ui.WithTxURL(cfg.TxURL),
		ui.WithReadTimeout(cfg.RequestTimeout),
		ui.WithAutoConnect(dashConnect),
		ui.WithConnectApproval(a.provider.Accounts),
		ui.WithDashboardLogger(logger.Named("ui")),
	)
	logger.Info("dashboard start")
	return ui.RunDashboard(m)
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, dashboardCmd} {
		c.Flags().BoolVar(&dashConnect, "connect", false, "connect the wallet on start")
		c.Flags().StringVar(&dashToken, "token", "", "token selected on start")
	}
}
