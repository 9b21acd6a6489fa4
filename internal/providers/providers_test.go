package providers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/neondash/internal/config"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// explorerResp wraps a standard Etherscan-compatible API response.
func explorerResp(txs []map[string]interface{}) []byte {
	b, _ := json.Marshal(txs)
	out, _ := json.Marshal(map[string]interface{}{
		"status":  "1",
		"message": "OK",
		"result":  json.RawMessage(b),
	})
	return out
}

func explorerErrResp(msg, result string) []byte {
	out, _ := json.Marshal(map[string]interface{}{
		"status":  "0",
		"message": msg,
		"result":  result,
	})
	return out
}

func mxtTransfer(hash string) map[string]interface{} {
	return map[string]interface{}{
		"hash":            hash,
		"blockNumber":     "5000000",
		"timeStamp":       "1700000000",
		"from":            "0x0000000000000000000000000000000000000000",
		"to":              "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266",
		"contractAddress": "0x1111111111111111111111111111111111111111",
		"tokenSymbol":     "MXT",
		"tokenDecimal":    "18",
		"value":           "1500000000000000000",
		"gasUsed":         "51234",
	}
}

func testServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

type stubProvider struct {
	name string
	txs  []Transfer
	err  error
}

func (s stubProvider) Name() string { return s.name }
func (s stubProvider) TokenTransfers(context.Context, string, int) ([]Transfer, error) {
	return s.txs, s.err
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func TestNewEtherscanNilWithoutKey(t *testing.T) {
	assert.Nil(t, NewEtherscan(11155111, ""))
	assert.Nil(t, NewEtherscan(0, "KEY"))
	assert.NotNil(t, NewEtherscan(11155111, "KEY"))
}

func TestNewBlockScoutNilWithoutURL(t *testing.T) {
	assert.Nil(t, NewBlockScout("", ""))
	assert.Equal(t, "blockscout", NewBlockScout("https://eth-sepolia.blockscout.com/api", "").Name())
}

func TestBuildRegistryOrder(t *testing.T) {
	c := &config.Config{ChainID: 11155111, ExplorerAPI: config.ExplorerAPIConfig{
		EtherscanKey:  "KEY",
		BlockscoutURL: "https://eth-sepolia.blockscout.com/api",
	}}
	assert.Equal(t, []string{"etherscan", "blockscout"}, BuildRegistry(c).Names())

	c.ExplorerAPI.EtherscanKey = ""
	assert.Equal(t, []string{"blockscout"}, BuildRegistry(c).Names())

	c.ExplorerAPI.BlockscoutURL = ""
	assert.Empty(t, BuildRegistry(c).Names())
}

// ---------------------------------------------------------------------------
// ExplorerAPI
// ---------------------------------------------------------------------------

func TestEtherscanQuery(t *testing.T) {
	var got map[string]string
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		w.Write(explorerResp(nil)) //nolint:errcheck
	})

	e := NewEtherscan(11155111, "SECRET", WithBaseURL(srv.URL))
	_, err := e.TokenTransfers(context.Background(), "0xabc", 25)
	require.NoError(t, err)

	assert.Equal(t, "11155111", got["chainid"])
	assert.Equal(t, "account", got["module"])
	assert.Equal(t, "tokentx", got["action"])
	assert.Equal(t, "0xabc", got["address"])
	assert.Equal(t, "25", got["offset"])
	assert.Equal(t, "desc", got["sort"])
	assert.Equal(t, "SECRET", got["apikey"])
}

func TestBlockScoutOmitsChainIDAndKey(t *testing.T) {
	var query string
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write(explorerResp(nil)) //nolint:errcheck
	})

	_, err := NewBlockScout(srv.URL+"/", "").TokenTransfers(context.Background(), "0xabc", 5)
	require.NoError(t, err)
	assert.NotContains(t, query, "chainid")
	assert.NotContains(t, query, "apikey")
}

func TestTokenTransfersParsesFields(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(explorerResp([]map[string]interface{}{mxtTransfer("0xaaa"), mxtTransfer("0xbbb")})) //nolint:errcheck
	})

	txs, err := NewBlockScout(srv.URL, "").TokenTransfers(context.Background(), "0xf39f", 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	tx := txs[0]
	assert.Equal(t, "0xaaa", tx.Hash)
	assert.Equal(t, uint64(5000000), tx.Block)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), tx.Time)
	assert.Equal(t, "MXT", tx.Symbol)
	assert.Equal(t, uint8(18), tx.Decimals)
	assert.Equal(t, uint64(51234), tx.GasUsed)
	assert.Equal(t, 0, tx.Value.Cmp(big.NewInt(1_500_000_000_000_000_000)))
}

func TestTokenTransfersBadValueIsZero(t *testing.T) {
	raw := mxtTransfer("0xaaa")
	raw["value"] = "not-a-number"
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(explorerResp([]map[string]interface{}{raw})) //nolint:errcheck
	})

	txs, err := NewBlockScout(srv.URL, "").TokenTransfers(context.Background(), "0xf39f", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, txs[0].Value.Sign())
}

func TestTokenTransfersNoTransactions(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(explorerErrResp("No transactions found", "")) //nolint:errcheck
	})

	txs, err := NewBlockScout(srv.URL, "").TokenTransfers(context.Background(), "0xf39f", 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTokenTransfersAPIError(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(explorerErrResp("NOTOK", "Invalid API Key")) //nolint:errcheck
	})

	_, err := NewEtherscan(11155111, "BAD", WithBaseURL(srv.URL)).TokenTransfers(context.Background(), "0xf39f", 10)
	assert.ErrorContains(t, err, "Invalid API Key")
}

func TestTokenTransfersHTTPError(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := NewBlockScout(srv.URL, "").TokenTransfers(context.Background(), "0xf39f", 10)
	assert.ErrorContains(t, err, "HTTP 429")
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistryFallsThrough(t *testing.T) {
	r := New(
		stubProvider{name: "first", err: errors.New("rate limited")},
		stubProvider{name: "second", txs: []Transfer{{Hash: "0x1"}}},
	)

	res, err := r.TokenTransfers(context.Background(), "0xf39f", 10)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Source)
	assert.Len(t, res.Transfers, 1)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "first: rate limited")
}

func TestRegistryEmptyAnswerWins(t *testing.T) {
	r := New(
		stubProvider{name: "first", txs: []Transfer{}},
		stubProvider{name: "second", txs: []Transfer{{Hash: "0x1"}}},
	)

	res, err := r.TokenTransfers(context.Background(), "0xf39f", 10)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Source)
	assert.Empty(t, res.Transfers)
}

func TestRegistryAllFailed(t *testing.T) {
	r := New(stubProvider{name: "only", err: errors.New("down")})
	res, err := r.TokenTransfers(context.Background(), "0xf39f", 10)
	assert.ErrorIs(t, err, ErrAllFailed)
	assert.Len(t, res.Warnings, 1)

	_, err = New().TokenTransfers(context.Background(), "0xf39f", 10)
	assert.ErrorIs(t, err, ErrAllFailed)
}

func TestRegistryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(
		stubProvider{name: "first", err: context.Canceled},
		stubProvider{name: "second", txs: []Transfer{{Hash: "0x1"}}},
	)
	_, err := r.TokenTransfers(ctx, "0xf39f", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
