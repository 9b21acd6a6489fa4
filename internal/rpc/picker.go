package rpc

import (
	"context"
	"errors"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is picked from probe results.
type Algorithm string

const (
	// AlgorithmFastest picks the lowest-latency endpoint that is not stale.
	AlgorithmFastest Algorithm = "fastest"
	// AlgorithmFailover picks the first healthy endpoint in configured order.
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Pick chooses an endpoint from probe results.
func Pick(endpoints []Endpoint, algo Algorithm) (Endpoint, error) {
	if algo == AlgorithmFailover {
		for _, e := range endpoints {
			if e.Healthy() {
				return e, nil
			}
		}
		return Endpoint{}, ErrNoHealthyRPC
	}

	var best uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var (
		winner    Endpoint
		found     bool
		bestScore float64
	)
	for _, e := range endpoints {
		if !e.Healthy() || best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, best); !found || s > bestScore {
			winner, found, bestScore = e, true, s
		}
	}
	if !found {
		return Endpoint{}, ErrNoHealthyRPC
	}
	return winner, nil
}

// Select probes urls and returns the endpoint to use together with every
// probe result. A single URL is returned without probing.
func Select(ctx context.Context, urls []string, algo Algorithm, wantChain int64, timeout time.Duration) (string, []Endpoint, error) {
	switch len(urls) {
	case 0:
		return "", nil, ErrNoHealthyRPC
	case 1:
		return urls[0], nil, nil
	}
	results := Benchmark(ctx, urls, wantChain, timeout)
	winner, err := Pick(results, algo)
	if err != nil {
		return "", results, err
	}
	return winner.URL, results, nil
}

// score rewards low latency and penalises each block behind the best.
func score(e Endpoint, best uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}
	s -= float64(best - e.BlockNumber)
	return s
}
