package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/neondash/internal/ens"
	"github.com/Mohsinsiddi/neondash/internal/session"
	"github.com/Mohsinsiddi/neondash/internal/ui"
	"github.com/Mohsinsiddi/neondash/internal/wallet"
)

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// networkName labels well-known chain ids.
func networkName(chainID int64) string {
	switch chainID {
	case 1:
		return "Ethereum"
	case 11155111:
		return "Sepolia"
	case 17000:
		return "Holesky"
	case 31337:
		return "Hardhat"
	default:
		return fmt.Sprintf("chain %d", chainID)
	}
}

// approveConnect asks on the terminal before wallet accounts are exposed.
// With skip set every request is approved.
func approveConnect(skip bool) wallet.ApproveFunc {
	return approveConnectFrom(os.Stdin, os.Stdout, skip)
}

func approveConnectFrom(r io.Reader, w io.Writer, skip bool) wallet.ApproveFunc {
	return func(accounts []string) bool {
		if skip {
			return true
		}
		short := make([]string, len(accounts))
		for i, a := range accounts {
			short[i] = ui.TruncateAddr(a)
		}
		return ui.ConfirmFrom(r, w, "Expose "+strings.Join(short, ", ")+" to neondash?")
	}
}

// resolveAccount returns the --account address (or the address an ENS name
// points to), or connects the wallet provider when none is given.
func resolveAccount(ctx context.Context, a *app, flagAccount string) (string, error) {
	if ens.IsName(flagAccount) {
		addr, err := ens.NewResolver(a.client).Resolve(ctx, flagAccount)
		if err != nil {
			return "", err
		}
		return addr.Hex(), nil
	}
	if flagAccount != "" {
		if !common.IsHexAddress(flagAccount) {
			return "", fmt.Errorf("invalid address %q", flagAccount)
		}
		return common.HexToAddress(flagAccount).Hex(), nil
	}
	return a.syncer.Connect(ctx)
}

// readoutText renders a price readout for one-shot output.
func readoutText(r session.Readout, currency string) string {
	switch r.Status {
	case session.Ready:
		return ui.Val(ui.Fiat(r.Value, currency))
	case session.Error:
		return ui.Err("unavailable: " + r.Err)
	case session.NotApplicable:
		return ui.Meta("N/A")
	default:
		return ui.Meta("—")
	}
}

// balanceText renders a balance snapshot for one-shot output.
func balanceText(b session.Balance) string {
	switch {
	case b.Status == session.Error:
		return ui.Err("unavailable: " + b.Notice)
	case b.Amount == "":
		return ui.Meta("—")
	case b.Notice != "":
		return ui.Val(b.Amount) + " " + ui.Symbol(b.Symbol) + "  " + ui.Warn("stale: "+b.Notice)
	default:
		return ui.Val(b.Amount) + " " + ui.Symbol(b.Symbol)
	}
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
