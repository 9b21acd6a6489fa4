package rpc_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/neondash/internal/rpc"
)

const sepolia = 11155111

// nodeServer answers eth_chainId and eth_blockNumber after delay.
func nodeServer(t *testing.T, chainID, block uint64, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		time.Sleep(delay)

		result := ""
		switch req.Method {
		case "eth_chainId":
			result = fmt.Sprintf("0x%x", chainID)
		case "eth_blockNumber":
			result = fmt.Sprintf("0x%x", block)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":"%s"}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Probe
// ---------------------------------------------------------------------------

func TestProbeHealthy(t *testing.T) {
	srv := nodeServer(t, sepolia, 1000, 0)

	ep := rpc.Probe(context.Background(), srv.URL, sepolia, time.Second)
	require.NoError(t, ep.Err)
	assert.True(t, ep.Healthy())
	assert.Equal(t, uint64(1000), ep.BlockNumber)
	assert.Equal(t, int64(sepolia), ep.ChainID)
	assert.Positive(t, ep.Latency)
}

func TestProbeWrongChain(t *testing.T) {
	srv := nodeServer(t, 1, 1000, 0)

	ep := rpc.Probe(context.Background(), srv.URL, sepolia, time.Second)
	assert.False(t, ep.Healthy())
	assert.ErrorContains(t, ep.Err, "expected 11155111")
}

func TestProbeUnreachable(t *testing.T) {
	srv := nodeServer(t, sepolia, 1, 0)
	url := srv.URL
	srv.Close()

	ep := rpc.Probe(context.Background(), url, sepolia, time.Second)
	assert.False(t, ep.Healthy())
}

func TestProbeTimeout(t *testing.T) {
	srv := nodeServer(t, sepolia, 1, 500*time.Millisecond)

	ep := rpc.Probe(context.Background(), srv.URL, sepolia, 50*time.Millisecond)
	assert.False(t, ep.Healthy())
}

// ---------------------------------------------------------------------------
// Benchmark / Select
// ---------------------------------------------------------------------------

func TestBenchmarkKeepsOrder(t *testing.T) {
	a := nodeServer(t, sepolia, 10, 30*time.Millisecond)
	b := nodeServer(t, sepolia, 11, 0)

	results := rpc.Benchmark(context.Background(), []string{a.URL, b.URL}, sepolia, time.Second)
	require.Len(t, results, 2)
	assert.Equal(t, a.URL, results[0].URL)
	assert.Equal(t, b.URL, results[1].URL)
}

func TestSelectSingleURLSkipsProbe(t *testing.T) {
	url, results, err := rpc.Select(context.Background(), []string{"http://127.0.0.1:1"}, rpc.AlgorithmFastest, sepolia, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", url)
	assert.Nil(t, results)
}

func TestSelectFallsBackFromDeadPrimary(t *testing.T) {
	backup := nodeServer(t, sepolia, 100, 0)

	url, results, err := rpc.Select(context.Background(),
		[]string{"http://127.0.0.1:1", backup.URL}, rpc.AlgorithmFailover, sepolia, time.Second)
	require.NoError(t, err)
	assert.Equal(t, backup.URL, url)
	require.Len(t, results, 2)
	assert.False(t, results[0].Healthy())
}

func TestSelectNoHealthy(t *testing.T) {
	wrong := nodeServer(t, 1, 100, 0)

	_, results, err := rpc.Select(context.Background(),
		[]string{"http://127.0.0.1:1", wrong.URL}, rpc.AlgorithmFastest, sepolia, time.Second)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
	assert.Len(t, results, 2)
}
