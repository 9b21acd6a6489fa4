// Package rpc probes JSON-RPC endpoints and picks the one the dashboard
// should talk to.
package rpc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/neondash/internal/chain"
)

// Endpoint is one probed RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	ChainID     int64
	BlockNumber uint64
	Err         error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Probe asks url for its chain ID and latest block. An endpoint serving a
// different chain than wantChain is unhealthy; wantChain 0 skips the check.
func Probe(ctx context.Context, url string, wantChain int64, timeout time.Duration) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ep := Endpoint{URL: url}
	c := chain.NewEVMClient(url, chain.WithTimeout(timeout))

	start := time.Now()
	id, err := c.ChainID(ctx)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.ChainID = id.Int64()
	if ep.BlockNumber, err = c.BlockNumber(ctx); err != nil {
		ep.Err = err
		return ep
	}
	ep.Latency = time.Since(start)

	if wantChain != 0 && ep.ChainID != wantChain {
		ep.Err = fmt.Errorf("serves chain %d, expected %d", ep.ChainID, wantChain)
	}
	return ep
}

// Benchmark probes every url in parallel. Results keep the order of urls.
func Benchmark(ctx context.Context, urls []string, wantChain int64, timeout time.Duration) []Endpoint {
	out := make([]Endpoint, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			out[i] = Probe(ctx, u, wantChain, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
