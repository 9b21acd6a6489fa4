// check-balances: queries every registry token balance for a set of accounts
// in parallel and prints a summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-balances 0xf39F... 0x7099...
//
// The endpoint defaults to NEONDASH_RPC_URL, then the public Sepolia RPC.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/neondash/internal/chain"
	"github.com/Mohsinsiddi/neondash/internal/token"
)

// ── config ────────────────────────────────────────────────────────────────────

const (
	defaultRPC = "https://rpc.sepolia.org"
	rpcTimeout = 12 * time.Second
)

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	symbol  string
	account string // short form
	balance string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	accounts := os.Args[1:]
	if len(accounts) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-balances <address> [address...]")
		os.Exit(2)
	}
	for _, a := range accounts {
		if !common.IsHexAddress(a) {
			fmt.Fprintf(os.Stderr, "invalid address %q\n", a)
			os.Exit(2)
		}
	}

	rpcURL := os.Getenv("NEONDASH_RPC_URL")
	if rpcURL == "" {
		rpcURL = defaultRPC
	}
	client := chain.NewEVMClient(rpcURL, chain.WithTimeout(rpcTimeout))
	reader := chain.NewBalanceReader(client)

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	if _, err := client.ChainID(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s unreachable: %v\n", rpcURL, err)
		os.Exit(1)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)
	for _, d := range token.NewRegistry().All() {
		for _, account := range accounts {
			wg.Add(1)
			go func(d token.Descriptor, account string) {
				defer wg.Done()

				r := result{symbol: d.Symbol, account: shortAddr(account)}
				bal, err := reader.GetBalance(ctx, account, d)
				if err != nil {
					r.balance = "—"
					r.err = shortErr(err)
				} else {
					r.balance = bal
				}

				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}(d, account)
		}
	}
	wg.Wait()

	printTable(results)
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.symbol != b.symbol {
			return a.symbol < b.symbol
		}
		return a.account < b.account
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "TOKEN\tACCOUNT\tBALANCE\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 24)+"\t"+
		strings.Repeat("-", 12))

	last := ""
	for _, r := range results {
		if r.symbol != last {
			if last != "" {
				fmt.Fprintln(w, "\t\t\t")
			}
			last = r.symbol
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.symbol, r.account, r.balance, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len([]rune(s)) > 30 {
		return string([]rune(s)[:30]) + "…"
	}
	return s
}
